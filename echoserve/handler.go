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

// Package echoserve adapts a staticserve.Handler to the labstack/echo
// router, mirroring rickb777-servefiles/echo_adapter: the matched
// portion of a catch-all route is trimmed from req.URL.Path before
// delegating to the underlying handler.
package echoserve

import (
	"strings"

	"github.com/go-static-serve/staticserve"
	"github.com/labstack/echo/v4"
)

// HandlerFunc adapts h to echo.HandlerFunc. path must end in "/*",
// echo's catch-all syntax; the matched prefix is trimmed from the
// request path the handler sees.
func HandlerFunc(path string, h *staticserve.Handler) echo.HandlerFunc {
	if !strings.HasSuffix(path, "/*") {
		panic(path + ": path must end /*")
	}
	trim := len(path) - 2 // "/*" is 2 chars; trim is the static prefix length

	return func(c echo.Context) error {
		req := c.Request()
		req.URL.Path = req.URL.Path[trim:]
		h.ServeHTTP(c.Response(), req)
		return nil
	}
}

// Register registers h on e for GET and HEAD requests under path,
// which must end in "/*".
func Register(e *echo.Echo, path string, h *staticserve.Handler) {
	fn := HandlerFunc(path, h)
	e.GET(path, fn)
	e.HEAD(path, fn)
}
