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

// Package ginserve adapts a staticserve.Handler to the gin-gonic/gin
// router, the way rickb777-servefiles/gin_adapter adapted its Assets
// type: a catch-all route parameter is copied onto req.URL.Path before
// delegating to the underlying handler.
package ginserve

import (
	"github.com/gin-gonic/gin"
	"github.com/go-static-serve/staticserve"
)

// Mount registers h on e for every GET and HEAD request under prefix,
// which must end in "/*filepath" (gin's catch-all syntax). The portion
// gin captures in paramName becomes the handler's view of the request
// path.
func Mount(e *gin.Engine, prefix, paramName string, h *staticserve.Handler) {
	fn := HandlerFunc(paramName, h)
	e.GET(prefix, fn)
	e.HEAD(prefix, fn)
}

// HandlerFunc adapts h to gin.HandlerFunc directly, for callers who
// want to register the route themselves (e.g. inside a group with
// middleware).
func HandlerFunc(paramName string, h *staticserve.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		req.URL.Path = c.Param(paramName)
		h.ServeHTTP(c.Writer, req)
	}
}
