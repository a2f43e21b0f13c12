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
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	kflate "github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
)

// compressWhole implements spec.md §4.4 step 6: compress a whole
// in-memory body into a new byte slice. Uses klauspost/compress for
// gzip/deflate rather than the standard library, matching the stack
// caddyserver-caddy's encode module standardizes on (see SPEC_FULL.md
// §3), and andybalholm/brotli for `br`, the compressor
// caddyserver-caddy/modules/caddyhttp/encode/brotli wraps.
func compressWhole(enc Encoding, body []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch enc {
	case Gzip:
		w, err := kgzip.NewWriterLevel(&buf, kgzip.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case Deflate:
		w, err := kflate.NewWriter(&buf, kflate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case Brotli:
		w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return body, nil
	}

	return buf.Bytes(), nil
}

// newStreamingCompressor wraps dst with a streaming compressor for the
// range/stream pump (spec.md §4.6): the compressed length is not known
// up front, which is exactly why the pump must switch from tryEnd to
// write/writer-full semantics when one of these is interposed (spec.md
// §9 design note 4).
func newStreamingCompressor(enc Encoding, dst io.Writer) (io.WriteCloser, error) {
	switch enc {
	case Gzip:
		return kgzip.NewWriterLevel(dst, kgzip.DefaultCompression)
	case Deflate:
		return kflate.NewWriter(dst, kflate.DefaultCompression)
	case Brotli:
		return brotli.NewWriterLevel(dst, brotli.DefaultCompression), nil
	default:
		return nopWriteCloser{dst}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
