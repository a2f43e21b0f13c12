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

/*
Package staticserve is a high-throughput static file serving core for
net/http. It resolves a request URL to a file beneath a configured
root, negotiates an on-the-fly content-coding with the client, and
either serves the whole body from an in-process cache or streams it
under backpressure, without ever letting a relative path climb above
the root.

	cfg := staticserve.DefaultConfiguration(nil)
	cfg.Base = "/static"
	h, err := staticserve.New("./assets", cfg)
	if err != nil {
		log.Fatal(err)
	}
	http.Handle("/static/", h)

Handler is an http.Handler and composes with any router that can
mount one.

# On-the-fly compression

Unlike handlers that expect a build step to have produced ".gz" or
".br" siblings next to each asset, staticserve compresses eligible
responses itself using klauspost/compress and andybalholm/brotli, and
caches the result so repeat requests for the same (path, encoding)
pair skip compression entirely. Compressibility is judged by media
type; already-compressed formats (raster images, woff fonts, archives)
are served as Identity regardless of what the client accepts.

# Conditional requests and far-future caching

ETag and Last-Modified are computed from file size and modification
time, the same low-cost approach used throughout this ecosystem; a
weak ETag marks a compressed representation so caches don't assume
byte-identity with the uncompressed original. When Configuration.MaxAge
is set, Cache-Control and Expires are also emitted so that well-behaved
clients stop revalidating altogether.

# Range requests

Single-range byte requests ("Range: bytes=start-end") are honored when
the file is read from disk, and such a request is always served with
Identity encoding: a compressed stream's byte offsets bear no fixed
relationship to the underlying file's offsets, so the two features
don't compose. The artifact cache is consulted first: a cache hit is
served whole with a 200, whatever the Range header asks for.

# Index resolution

A directory-style URL with no extension is resolved against a
four-step default policy (exact file, then an HTML or JS index
sibling) memoized per URL; finding a nested "index.html" issues a 301
redirect to that file's own URL ("/app" to "/app/index.html"), while a same-level sibling
such as "about.html" is served transparently. Callers needing
different behavior can supply their own Configuration.Index, which
receives the default policy as a fallback to delegate to.

# Path stripping

Configuration.StripSegments discards a fixed number of leading URL
segments before resolution, the same mechanism this package's
ancestor offered for serving assets behind a cache-busting hash
segment that changes on every deploy. Configuration.Base is stripped
from the front of the (already StripSegments-trimmed) URL, leaving the
leading slash intact, so a handler mounted under "/static/" with
Base == "/static" resolves "/static/app.js" to "/app.js" beneath root.
*/
package staticserve
