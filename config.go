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
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// TransformFunc is spec.md §3's `transform` hook: an optional
// pre-compression step that may mutate a whole-body Artifact's Bytes
// and Type before compression and cache admission.
type TransformFunc func(a *Artifact) error

// ErrorEmitter writes an error response for a request. The zero value
// of Configuration uses the package defaults (DefaultNotFound,
// DefaultInternalError); spec.md §3 allows callers to replace them.
type ErrorEmitter func(w http.ResponseWriter, r *http.Request)

// Configuration is spec.md §3's immutable, handler-instance-bound
// configuration. Built with functional options in the style of
// rickb777-servefiles/assets.go's StripOff/WithMaxAge/WithNotFound
// (value-receiver copy-and-return), generalized from that teacher's
// single MaxAge/NotFound knobs to the full option set spec.md names.
type Configuration struct {
	Base string
	FS   afero.Fs
	// Index overrides the default index resolution policy. Leave nil to
	// use the built-in policy (spec.md §4.1's four-step search); a
	// custom IndexFunc still receives that built-in policy as its
	// fallback argument so it can delegate for requests it doesn't want
	// to special-case.
	Index           IndexFunc
	Secure          bool
	Compressions    []Encoding
	LastModified    bool
	ETag            bool
	Cache           bool
	MinStreamSize   int64
	MaxCacheSize    int64
	MinCompressSize int64
	NotFound        ErrorEmitter
	InternalError   ErrorEmitter
	Transform       TransformFunc

	// StripSegments generalizes the teacher's UnwantedPrefixSegments:
	// a count of leading path segments dropped before Base is applied.
	// See SPEC_FULL.md §4.
	StripSegments int

	// MaxAge, when non-zero, emits Cache-Control/Expires headers,
	// carried forward from the teacher per SPEC_FULL.md §4.
	MaxAge time.Duration

	Logger  *slog.Logger
	Metrics MetricsRecorder
}

// DefaultConfiguration returns the Configuration spec.md §3's table
// implies as sane defaults: Index left nil so the built-in four-step
// policy applies, both conditional headers on, caching on, streaming
// for anything 1MiB or larger, nothing of 8MiB or larger admitted to cache,
// and no compression below 1280 bytes (below which gzip framing
// overhead usually loses).
func DefaultConfiguration(fs afero.Fs) Configuration {
	return Configuration{
		FS:              fs,
		Compressions:    []Encoding{Brotli, Gzip, Deflate},
		LastModified:    true,
		ETag:            true,
		Cache:           true,
		MinStreamSize:   1 << 20,
		MaxCacheSize:    8 << 20,
		MinCompressSize: 1280,
		Logger:          slog.Default(),
	}
}

// WithSecure narrows the default compression list the way spec.md §3
// says `secure` influences it: BREACH-style compression oracles are a
// bigger concern for TLS-terminated traffic serving any
// credential-bearing response, so a secure handler drops Deflate
// (raw, unframed — more easily abused) and keeps only Brotli and Gzip
// unless the caller has already set Compressions explicitly. An empty
// list or DefaultConfiguration's list counts as not explicitly set.
func (c Configuration) WithSecure(secure bool) Configuration {
	c.Secure = secure
	if secure && (len(c.Compressions) == 0 || slices.Equal(c.Compressions, []Encoding{Brotli, Gzip, Deflate})) {
		c.Compressions = []Encoding{Brotli, Gzip}
	}
	return c
}

func (c Configuration) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Configuration) notFound() ErrorEmitter {
	if c.NotFound != nil {
		return c.NotFound
	}
	return DefaultNotFound
}

func (c Configuration) internalError() ErrorEmitter {
	if c.InternalError != nil {
		return c.InternalError
	}
	return DefaultInternalError
}

// DefaultNotFound writes spec.md §7's NotFound outcome.
func DefaultNotFound(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

// DefaultInternalError writes spec.md §7's Internal outcome.
func DefaultInternalError(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
