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
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-static-serve/staticserve/afero2"
	"github.com/rickb777/path"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Handler is the Dispatcher of spec.md §4.7: the http.Handler that
// wires path resolution, the artifact cache and the file reader
// together for one configured root. Grounded on
// rickb777-servefiles/handler.go's Assets type (one handler instance
// per root, holding its own state instead of reaching for globals),
// generalized from that teacher's single-field struct to the full set
// of collaborators spec.md §3 assigns to a handler instance.
type Handler struct {
	cfg      Configuration
	resolver *pathResolver
	reader   *fileReader
}

// New builds a Handler for the given root directory and Configuration.
// If cfg.FS is nil, the root is served from the OS filesystem via
// afero.NewOsFs, jailed with afero.NewBasePathFs so every path the
// resolver ever sees is relative to root and cannot climb out of it.
// An explicitly supplied cfg.FS (e.g. an afero.MemMapFS in tests) is
// wrapped in afero2.AferoAdapter so it tolerates the leading-slash
// virtual paths the resolver always builds; it is expected to already
// be rooted appropriately (e.g. via afero.NewBasePathFs itself).
func New(root string, cfg Configuration) (*Handler, error) {
	if cfg.FS == nil {
		cfg.FS = afero.NewBasePathFs(afero.NewOsFs(), root)
	} else {
		cfg.FS = afero2.AferoAdapter{Inner: cfg.FS}
	}
	fs := cfg.FS

	mime := newMimeResolver()
	memo := &indexMemo{}

	resolver := &pathResolver{
		fs:    fs,
		mime:  mime,
		index: cfg.Index,
		cache: cfg.Cache,
		memo:  memo,
	}

	reader := &fileReader{
		cfg:   cfg,
		mime:  mime,
		cache: newArtifactCache(cfg.Cache, cfg.MaxCacheSize),
	}

	return &Handler{cfg: cfg, resolver: resolver, reader: reader}, nil
}

// WarmIndex primes IndexMemo for a set of directory URLs before the
// handler takes traffic, so the first request under each of them skips
// the filesystem probing defaultIndex would otherwise do on a cold
// memo. Directories are probed concurrently with errgroup, bounded by
// ctx; a probe failure for one directory does not cancel the others.
func (h *Handler) WarmIndex(ctx context.Context, dirURLs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, dir := range dirURLs {
		dir := dir
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			req := &pathRequest{url: dir, accept: "text/html", memo: h.resolver.memo, cache: true}
			h.resolver.defaultIndex(req, h.resolver.defaultIndex)
			return nil
		})
	}
	return g.Wait()
}

// ServeHTTP implements spec.md §4.7's dispatch sequence: method
// filtering, prefix stripping, path resolution (including the
// redirect/fall-through/rewrite/done outcomes of spec.md §4.1), error
// translation, then delegation to the file reader. Grounded on
// rickb777-servefiles/handler.go's ServeHTTP, replacing its
// wrap-http.FileServer-and-patch-headers approach with direct
// dispatch onto fileReader.serve.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	urlPath := path.Drop(r.URL.Path, h.cfg.StripSegments)
	if h.cfg.Base != "" {
		urlPath = strings.TrimPrefix(urlPath, h.cfg.Base)
	}

	req := &pathRequest{
		url:    urlPath,
		accept: r.Header.Get("Accept"),
		memo:   h.resolver.memo,
		cache:  h.cfg.Cache,
	}

	outcome, err := h.resolver.resolve(req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if outcome.done {
		return
	}
	if outcome.redirect != "" {
		http.Redirect(w, r, outcome.redirect, http.StatusMovedPermanently)
		return
	}

	if err := h.reader.serve(w, r, outcome.abs); err != nil {
		h.handleError(w, r, err)
	}
}

// handleError implements spec.md §7's taxonomy-to-response mapping.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAborted):
		// the client is gone; nothing to write.
		return
	case errors.Is(err, ErrNotFound):
		emitNotFound(w, r, h.cfg)
	case errors.Is(err, ErrMethodNotAllowed):
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		h.cfg.logger().Error("staticserve: internal error", "error", err)
		emitInternalError(w, r, h.cfg)
	}
}
