package staticserve

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickb777/expect"
)

func TestFormatETag(t *testing.T) {
	mtime := time.Unix(1700000000, 0)

	strong := formatETag(mtime, 4096, false)
	expect.Any(strong[0] == 'W').ToBe(t, false)

	weak := formatETag(mtime, 4096, true)
	expect.String(weak[:2]).ToBe(t, "W/")
}

func TestEmitWholeSetsHeaders(t *testing.T) {
	a := &Artifact{
		Path:     "/a.css",
		Mtime:    time.Unix(1700000000, 0),
		Bytes:    []byte("body{}"),
		Encoding: Identity,
		Type:     "text/css; charset=utf-8",
	}
	cfg := DefaultConfiguration(nil)

	req := httptest.NewRequest(http.MethodGet, "/a.css", nil)
	w := httptest.NewRecorder()

	emitWhole(w, req, a, cfg)

	expect.Number(w.Code).ToBe(t, http.StatusOK)
	expect.String(w.Header().Get("Content-Type")).ToBe(t, "text/css; charset=utf-8")
	expect.String(w.Body.String()).ToBe(t, "body{}")
	expect.String(w.Header().Get("Content-Encoding")).ToBeEmpty(t)
}

func TestEmitWholeHeadSuppressesBody(t *testing.T) {
	a := &Artifact{Path: "/a.css", Mtime: time.Unix(0, 0), Bytes: []byte("body{}"), Encoding: Identity}
	cfg := DefaultConfiguration(nil)

	req := httptest.NewRequest(http.MethodHead, "/a.css", nil)
	w := httptest.NewRecorder()

	emitWhole(w, req, a, cfg)

	expect.Number(w.Body.Len()).ToBe(t, 0)
}

func TestEmitWholeCompressedSetsVaryAndWeakETag(t *testing.T) {
	a := &Artifact{Path: "/a.js", Mtime: time.Unix(0, 0), Bytes: []byte("x"), Encoding: Gzip, Type: "application/javascript"}
	cfg := DefaultConfiguration(nil)

	req := httptest.NewRequest(http.MethodGet, "/a.js", nil)
	w := httptest.NewRecorder()

	emitWhole(w, req, a, cfg)

	expect.String(w.Header().Get("Content-Encoding")).ToBe(t, "gzip")
	expect.String(w.Header().Get("Vary")).ToBe(t, "Accept-Encoding")
	expect.String(w.Header().Get("ETag")[:2]).ToBe(t, "W/")
}

func TestApplyCacheControlOnlyWhenMaxAgeSet(t *testing.T) {
	cfg := DefaultConfiguration(nil)
	w := httptest.NewRecorder()
	applyCacheControl(newHTTPWriterPort(w), cfg)
	expect.String(w.Header().Get("Cache-Control")).ToBeEmpty(t)

	cfg.MaxAge = time.Hour
	w = httptest.NewRecorder()
	applyCacheControl(newHTTPWriterPort(w), cfg)
	expect.String(w.Header().Get("Cache-Control")).ToBe(t, "public, max-age=3600")
}
