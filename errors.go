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

import "errors"

// Sentinel errors classify failures into the taxonomy from spec.md §7.
// They are returned by internal helpers and translated to a wire
// response exactly once, at the dispatcher boundary.
var (
	// ErrNotFound covers ENOENT/EISDIR on open, containment failures,
	// and index resolution that yields nothing.
	ErrNotFound = errors.New("staticserve: not found")

	// ErrNotSatisfiable is returned when a Range request's start or end
	// offset is at or beyond the file size, or its start exceeds its end.
	ErrNotSatisfiable = errors.New("staticserve: range not satisfiable")

	// ErrAborted marks a request whose client disconnected; callers
	// must not attempt any further emission once they observe it.
	ErrAborted = errors.New("staticserve: aborted")

	// ErrMethodNotAllowed covers request methods other than GET/HEAD.
	// Not part of spec.md's wire surface, but required of any
	// net/http handler; see SPEC_FULL.md §4.
	ErrMethodNotAllowed = errors.New("staticserve: method not allowed")
)

// internalError wraps an unexpected I/O failure (open/stat/read/
// compress/stream) so the dispatcher can log the cause while still
// emitting the generic 500 body spec.md §7 calls for.
type internalError struct {
	op  string
	err error
}

func (e *internalError) Error() string { return "staticserve: " + e.op + ": " + e.err.Error() }

func (e *internalError) Unwrap() error { return e.err }

func wrapInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &internalError{op: op, err: err}
}
