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
	"mime"
	"strings"
)

// mimeResolver maps a file extension to a media type and knows which
// media types are worth compressing. Grounded on rickb777-servefiles'
// use of the standard mime.TypeByExtension (assets.go/handler.go
// chooseResource), extended with the compressibility predicate spec.md
// §4.2 requires and the teacher never needed (it only ever served
// files that were pre-gzipped at build time).
type mimeResolver struct {
	// extra augments the standard library's table for extensions it
	// does not know about, keyed without the leading dot.
	extra map[string]string
}

func newMimeResolver() *mimeResolver {
	return &mimeResolver{
		extra: map[string]string{
			"js":   "application/javascript; charset=utf-8",
			"mjs":  "application/javascript; charset=utf-8",
			"json": "application/json; charset=utf-8",
			"svg":  "image/svg+xml",
			"wasm": "application/wasm",
			"map":  "application/json; charset=utf-8",
		},
	}
}

// TypeByExtension returns the media type for a lowercased, dot-free
// extension, or "" if unknown.
func (m *mimeResolver) TypeByExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if t, ok := m.extra[ext]; ok {
		return t
	}
	return mime.TypeByExtension("." + ext)
}

// Compressible reports whether responses of this media type benefit
// from compression. This is the closed predicate spec.md §4.2 assigns
// to "the MIME table": text/*, plus a fixed set of textual
// application/* and image/* formats and the uncompressed font/ttf and
// font/otf. Already-compressed binary formats (raster images, video,
// archives, woff/woff2 fonts) are excluded.
func (m *mimeResolver) Compressible(mediaType string) bool {
	if mediaType == "" {
		return false
	}
	semi := strings.IndexByte(mediaType, ';')
	if semi >= 0 {
		mediaType = mediaType[:semi]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	if strings.HasPrefix(mediaType, "text/") {
		return true
	}

	switch mediaType {
	case "application/json",
		"application/javascript",
		"application/x-javascript",
		"application/xml",
		"application/xhtml+xml",
		"application/wasm",
		"application/manifest+json",
		"application/ld+json",
		"image/svg+xml",
		"font/ttf",
		"font/otf":
		return true
	}

	return false
}
