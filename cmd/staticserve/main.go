// Command staticserve runs a standalone staticserve.Handler behind an
// HTTP listener, with an optional second listener for Prometheus
// metrics. It is a thin composition root: flag/config parsing,
// listener lifecycle, signal handling — none of the serving logic
// itself lives here.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/go-static-serve/staticserve"
	"github.com/go-static-serve/staticserve/internal/metrics"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a TOML configuration file")
		root       = pflag.String("root", "", "directory to serve (overrides config file)")
		addr       = pflag.String("addr", "", "listen address (overrides config file)")
	)
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := loadFileConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	handlerCfg := staticserve.DefaultConfiguration(nil)
	handlerCfg.Logger = logger
	handlerCfg.Metrics = metrics.New()
	handlerCfg.StripSegments = cfg.StripSegments
	handlerCfg.MaxAge = time.Duration(cfg.MaxAgeSeconds) * time.Second
	handlerCfg = handlerCfg.WithSecure(cfg.Secure)
	if cfg.MinStreamBytes > 0 {
		handlerCfg.MinStreamSize = cfg.MinStreamBytes
	}
	if cfg.MaxCacheBytes > 0 {
		handlerCfg.MaxCacheSize = cfg.MaxCacheBytes
	}
	if encs := parseEncodings(cfg.Compressions); len(encs) > 0 {
		handlerCfg.Compressions = encs
	}

	h, err := staticserve.New(cfg.Root, handlerCfg)
	if err != nil {
		logger.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.WarmIndexDirs) > 0 {
		if err := h.WarmIndex(ctx, cfg.WarmIndexDirs); err != nil {
			logger.Warn("index warmup failed", "error", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	mainSrv := &http.Server{Addr: cfg.Addr, Handler: h}
	g.Go(func() error { return runServer(ctx, mainSrv, logger) })

	if cfg.MetricsAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.PromHandler()}
		g.Go(func() error { return runServer(ctx, metricsSrv, logger) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// runServer starts srv and shuts it down gracefully when ctx is
// canceled, the pattern common across this pack's services for
// running a *http.Server under an errgroup-managed cancellation scope.
func runServer(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func parseEncodings(names []string) []staticserve.Encoding {
	var out []staticserve.Encoding
	for _, name := range names {
		switch name {
		case "br":
			out = append(out, staticserve.Brotli)
		case "gzip":
			out = append(out, staticserve.Gzip)
		case "deflate":
			out = append(out, staticserve.Deflate)
		case "identity":
			out = append(out, staticserve.Identity)
		}
	}
	return out
}
