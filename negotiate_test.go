package staticserve

import (
	"testing"

	"github.com/rickb777/expect"
)

func TestParseAcceptEncoding(t *testing.T) {
	serverPref := []Encoding{Brotli, Gzip, Deflate}

	cases := []struct {
		header string
		want   []string
	}{
		{"", nil},
		{"gzip", []string{"gzip"}},
		{"gzip, br", []string{"br", "gzip"}},
		{"gzip;q=0.5, br;q=0.8", []string{"br", "gzip"}},
		{"gzip;q=0, br", []string{"br"}},
		{"identity", nil},
		{"br;q=1.0, gzip;q=1.0", []string{"br", "gzip"}},
		{"compress, sdch", nil},
	}

	for i, test := range cases {
		got := parseAcceptEncoding(test.header, serverPref)
		if test.want == nil {
			expect.Slice(got).Info(i).ToBeEmpty(t)
			continue
		}
		expect.Slice(got).Info(i).ToBe(t, test.want...)
	}
}

func TestGetEncoding(t *testing.T) {
	mimeTable := newMimeResolver()
	serverPref := []Encoding{Brotli, Gzip}

	cases := []struct {
		header    string
		mediaType string
		want      Encoding
	}{
		{"", "text/css", Identity},
		{"gzip", "text/css", Gzip},
		{"br, gzip", "text/css", Brotli},
		{"gzip", "image/png", Identity},
		{"gzip;q=0", "text/css", Identity},
	}

	for i, test := range cases {
		got := getEncoding(test.header, serverPref, test.mediaType, mimeTable)
		expect.Number(int(got)).Info(i).ToBe(t, int(test.want))
	}
}

func TestEncodingString(t *testing.T) {
	expect.String(Identity.String()).ToBe(t, "identity")
	expect.String(Gzip.String()).ToBe(t, "gzip")
	expect.String(Deflate.String()).ToBe(t, "deflate")
	expect.String(Brotli.String()).ToBe(t, "br")
}

func TestMimeResolverCompressible(t *testing.T) {
	m := newMimeResolver()

	cases := []struct {
		mediaType string
		want      bool
	}{
		{"text/html; charset=utf-8", true},
		{"application/json", true},
		{"image/svg+xml", true},
		{"image/png", false},
		{"font/woff2", false},
		{"", false},
	}

	for i, test := range cases {
		expect.Any(m.Compressible(test.mediaType)).Info(i).ToBe(t, test.want)
	}
}
