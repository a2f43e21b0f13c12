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
	"sort"
	"strconv"
	"strings"
)

// Encoding identifies a content-coding understood by this package.
// Matches the enum in spec.md §3's Artifact.encoding field.
type Encoding int

const (
	Identity Encoding = iota
	Gzip
	Deflate
	Brotli

	numEncodings // sentinel, used to size the per-encoding cache shard array
)

func (e Encoding) String() string {
	switch e {
	case Identity:
		return "identity"
	case Gzip:
		return "gzip"
	case Deflate:
		return "deflate"
	case Brotli:
		return "br"
	}
	return "identity"
}

func encodingByName(name string) (Encoding, bool) {
	switch name {
	case "gzip":
		return Gzip, true
	case "deflate":
		return Deflate, true
	case "br":
		return Brotli, true
	case "identity":
		return Identity, true
	}
	return 0, false
}

// acceptPreference pairs a requested encoding name with its quality
// value and its rank in the server's own preference list, which is
// the tie-break spec.md §4.2 specifies ("ascending index in
// serverPreference"). Grounded on
// caddyserver-caddy/modules/caddyhttp/encode/encode.go's
// acceptedEncodings/encodingPreference, extended with the
// server-preference intersection and tie-break the teacher's version
// does not need (Caddy's encode middleware owns only one encoder at a
// time per request and never has to choose among several).
type acceptPreference struct {
	name string
	q    float64
	rank int
}

// parseAcceptEncoding implements spec.md §4.2: split on commas, parse
// an optional ";q=" factor defaulting to 1.0, discard zero-quality and
// unlisted-by-the-server entries, then sort by descending quality with
// ties broken by ascending server-preference rank.
func parseAcceptEncoding(header string, serverPreference []Encoding) []string {
	if header == "" || len(serverPreference) == 0 {
		return nil
	}

	rankOf := make(map[string]int, len(serverPreference))
	for i, enc := range serverPreference {
		rankOf[enc.String()] = i
	}

	var prefs []acceptPreference
	for _, entry := range strings.Split(header, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name := entry
		q := 1.0
		if idx := strings.Index(entry, ";q="); idx >= 0 {
			name = strings.TrimSpace(entry[:idx])
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(entry[idx+3:]), 64); err == nil {
				q = parsed
			}
		}
		name = strings.ToLower(name)

		if q <= 0 {
			continue
		}
		rank, known := rankOf[name]
		if !known {
			continue
		}
		prefs = append(prefs, acceptPreference{name: name, q: q, rank: rank})
	}

	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].q != prefs[j].q {
			return prefs[i].q > prefs[j].q
		}
		return prefs[i].rank < prefs[j].rank
	})

	names := make([]string, len(prefs))
	for i, p := range prefs {
		names[i] = p.name
	}
	return names
}

// getEncoding implements spec.md §4.2's getEncoding: identity (no
// Content-Encoding at all) whenever the header is absent, the server
// offers nothing, or the media type is not compressible; otherwise the
// first client-accepted, server-offered encoding.
func getEncoding(header string, serverPreference []Encoding, mediaType string, mimeTable *mimeResolver) Encoding {
	if header == "" || len(serverPreference) == 0 {
		return Identity
	}
	if !mimeTable.Compressible(mediaType) {
		return Identity
	}

	for _, name := range parseAcceptEncoding(header, serverPreference) {
		if enc, ok := encodingByName(name); ok && enc != Identity {
			return enc
		}
	}
	return Identity
}
