// MIT License
//
// Copyright (c) 2016 Rick Beton
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package staticserve

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rickb777/expect"
	"github.com/spf13/afero"
)

func newTestHandler(t *testing.T, files map[string]string, configure func(*Configuration)) *Handler {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := DefaultConfiguration(fs)
	if configure != nil {
		configure(&cfg)
	}
	h, err := New("/", cfg)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// TestScenarioWholeFileGzipCached is scenario S1: a whole text file
// negotiates gzip on first request and is served from the gzip cache
// shard on the second, identical request.
func TestScenarioWholeFileGzipCached(t *testing.T) {
	body := strings.Repeat("hello world ", 400) // well above MinCompressSize
	h := newTestHandler(t, map[string]string{"/a.txt": body}, func(cfg *Configuration) {
		cfg.MinCompressSize = 1280
	})

	req := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusOK)
	expect.String(w.Header().Get("Content-Encoding")).ToBe(t, "gzip")

	gz, err := gzip.NewReader(w.Body)
	expect.Error(err).Not().ToHaveOccurred(t)
	got, err := io.ReadAll(gz)
	expect.Error(err).Not().ToHaveOccurred(t)
	expect.String(string(got)).ToBe(t, body)

	// Second identical request: same response, now a cache hit.
	req2 := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	req2.Header.Set("Accept-Encoding", "gzip, deflate")
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)

	expect.Number(w2.Code).ToBe(t, http.StatusOK)
	expect.String(w2.Header().Get("Content-Encoding")).ToBe(t, "gzip")
	expect.Number(w2.Body.Len()).ToBe(t, w.Body.Len())
}

// TestScenarioSubThresholdNotCompressed is scenario S2: a file smaller
// than MinCompressSize is served uncompressed even though the client
// accepts gzip.
func TestScenarioSubThresholdNotCompressed(t *testing.T) {
	body := strings.Repeat("x", 300)
	h := newTestHandler(t, map[string]string{"/tiny.txt": body}, func(cfg *Configuration) {
		cfg.MinCompressSize = 1280
	})

	req := httptest.NewRequest(http.MethodGet, "/tiny.txt", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusOK)
	expect.String(w.Header().Get("Content-Encoding")).ToBeEmpty(t)
	expect.String(w.Body.String()).ToBe(t, body)
}

// TestScenarioRange is scenario S3: a byte range on a large file
// streams exactly the requested slice with a 206 and Content-Range.
func TestScenarioRange(t *testing.T) {
	total := 1000000
	body := make([]byte, total)
	for i := range body {
		body[i] = byte(i % 256)
	}
	h := newTestHandler(t, map[string]string{"/video.mp4": string(body)}, func(cfg *Configuration) {
		cfg.MinStreamSize = 1 << 20 // above the file size: only the Range header routes this to the stream path
	})

	req := httptest.NewRequest(http.MethodGet, "/video.mp4", nil)
	req.Header.Set("Range", "bytes=100-199")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusPartialContent)
	expect.String(w.Header().Get("Content-Range")).ToBe(t, "bytes 100-199/1000000")
	expect.Number(w.Body.Len()).ToBe(t, 100)
	expect.String(w.Body.String()).ToBe(t, string(body[100:200]))
}

// TestScenarioUnsatisfiableRange is scenario S4: a range starting past
// EOF is rejected with 416 and the spec's fixed error body.
func TestScenarioUnsatisfiableRange(t *testing.T) {
	total := 1000000
	body := strings.Repeat("y", total)
	h := newTestHandler(t, map[string]string{"/video.mp4": body}, nil)

	req := httptest.NewRequest(http.MethodGet, "/video.mp4", nil)
	req.Header.Set("Range", "bytes=5000000-")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusRequestedRangeNotSatisfiable)
	expect.String(w.Header().Get("Content-Range")).ToBe(t, "bytes */999999")
	expect.String(strings.TrimSpace(w.Body.String())).ToBe(t, "Range Not Satisfiable")
}

// TestScenarioTraversalRejected is scenario S5: a request that climbs
// above root resolves to 404 without ever reaching the filesystem
// outside the jailed root.
func TestScenarioTraversalRejected(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/index.html": "home"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/../etc/passwd", nil)
	req.URL.Path = "/../etc/passwd" // httptest.NewRequest otherwise cleans this
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusNotFound)
	expect.String(strings.TrimSpace(w.Body.String())).ToBe(t, "Not Found")
}

// TestScenarioIndexRedirectsByDefault is scenario S6's default-policy
// branch: a directory with an index.html gets a 301 to it.
func TestScenarioIndexRedirectsByDefault(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/app/index.html": "<html>app</html>"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Accept", "text/html,*/*")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusMovedPermanently)
	expect.String(w.Header().Get("Location")).ToBe(t, "/app/index.html")
}

// TestScenarioIndexRewriteServesInline is scenario S6's custom-policy
// branch: a caller-supplied IndexFunc that performs a same-level
// rewrite gets served transparently with a 200, never a redirect.
func TestScenarioIndexRewriteServesInline(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/app.html": "<html>app</html>"}, func(cfg *Configuration) {
		cfg.Index = func(req *pathRequest, fallback IndexFunc) IndexResult {
			return IndexRewrite(req.url + ".html")
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Accept", "text/html,*/*")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusOK)
	expect.String(w.Body.String()).ToBe(t, "<html>app</html>")
}

// TestBaseIsStrippedNotPrepended covers spec.md §3's "leading slash
// intact after the configured base prefix is stripped": a handler
// mounted under a Base must consume that prefix from the incoming URL
// before resolving against root, not append it on top.
func TestBaseIsStrippedNotPrepended(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/app.js": "console.log(1)"}, func(cfg *Configuration) {
		cfg.Base = "/static"
	})

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusOK)
	expect.String(w.Body.String()).ToBe(t, "console.log(1)")
}

// TestMethodNotAllowed exercises the dispatcher's method filtering
// ahead of any path resolution.
func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/a.txt": "hi"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/a.txt", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expect.Number(w.Code).ToBe(t, http.StatusMethodNotAllowed)
	expect.String(w.Header().Get("Allow")).ToBe(t, "GET, HEAD")
}
