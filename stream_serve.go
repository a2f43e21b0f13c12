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
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/afero"
)

// serveStream implements spec.md §4.6 end to end: range parsing,
// compressor setup, header emission under cork, and the backpressure
// pump. It owns f for the remainder of the request and closes it on
// every exit path, per spec.md §3's File reader / Stream pump
// ownership split.
func serveStream(w http.ResponseWriter, r *http.Request, f afero.File, fi os.FileInfo, abs string, encoding Encoding, mediaType string, cfg Configuration) error {
	defer f.Close()

	size := fi.Size()
	br, err := parseRange(r.Header.Get("Range"), size)
	if err != nil {
		if errors.Is(err, ErrNotSatisfiable) {
			emitNotSatisfiable(w, size)
			return nil
		}
		return err
	}

	// compression and byte ranges don't compose: a compressed stream's
	// offsets have no fixed relationship to the stored file's offsets,
	// so any Range request is served as identity encoding regardless
	// of what negotiation picked.
	if br.requested {
		encoding = Identity
	}

	if r.Context().Err() != nil {
		return ErrAborted
	}

	if _, err := f.Seek(br.start, io.SeekStart); err != nil {
		return wrapInternal("seek", err)
	}
	total := br.end - br.start + 1
	section := io.LimitReader(f, total)

	wp := newHTTPWriterPort(w)
	pump := &streamPump{ctx: r.Context(), wp: wp}

	var compressor io.WriteCloser
	if encoding != Identity {
		compressor, err = newStreamingCompressor(encoding, &backpressureWriter{pump: pump})
		if err != nil {
			return wrapInternal("compressor init", err)
		}
	}

	wp.cork(func() {
		if br.requested {
			wp.writeHeader("Content-Range", contentRangeHeader(br, size))
		} else {
			wp.writeHeader("Accept-Ranges", "bytes")
		}
		if cfg.LastModified {
			wp.writeHeader("Last-Modified", fi.ModTime().UTC().Format(http.TimeFormat))
		}
		if cfg.ETag {
			wp.writeHeader("ETag", formatETag(fi.ModTime(), int(size), encoding != Identity))
		}
		if mediaType != "" {
			wp.writeHeader("Content-Type", mediaType)
		}
		if encoding != Identity {
			wp.writeHeader("Content-Encoding", encoding.String())
			wp.writeHeader("Vary", "Accept-Encoding")
		} else {
			wp.writeHeader("Content-Length", strconv.FormatInt(total, 10))
		}
		applyCacheControl(wp, cfg)
	})

	status := http.StatusOK
	if br.requested {
		status = http.StatusPartialContent
	}
	wp.writeStatus(status)

	if r.Method == http.MethodHead {
		return nil
	}

	var runErr error
	if compressor != nil {
		runErr = pump.runUnknownTotal(section, compressor)
	} else {
		runErr = pump.runKnownTotal(section, total)
	}

	// Headers and a status line are already committed at this point:
	// spec.md §7 forbids a second status, so any failure here is
	// logged and the response is simply ended, never re-emitted as a
	// 500. An ErrAborted is identical in effect (silent cleanup) but
	// is not itself an error worth logging.
	if runErr != nil && !errors.Is(runErr, ErrAborted) {
		cfg.logger().Warn("staticserve: stream ended with error after headers committed",
			"path", abs, "error", runErr)
	}
	if runErr == nil {
		cfg.metrics().BytesServed(encoding, total)
	}
	return nil
}
