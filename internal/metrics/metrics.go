// Package metrics is a Prometheus-backed staticserve.MetricsRecorder,
// grounded on Radiergummi-tspages/internal/metrics/metrics.go's
// package-level CounterVec/HistogramVec registration style, adapted
// from that package's per-site labels to per-encoding labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-static-serve/staticserve"
)

var (
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staticserve_cache_hits_total",
		Help: "Artifact cache hits by encoding.",
	}, []string{"encoding"})

	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staticserve_cache_misses_total",
		Help: "Artifact cache misses by encoding.",
	}, []string{"encoding"})

	bytesServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staticserve_bytes_served_total",
		Help: "Response bytes served by encoding.",
	}, []string{"encoding"})

	compressionRatio = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "staticserve_compression_ratio",
		Help:    "Compressed-to-original size ratio by encoding.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
	}, []string{"encoding"})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, bytesServed, compressionRatio)
}

// recorder implements staticserve.MetricsRecorder against the package
// counters above.
type recorder struct{}

// New returns the MetricsRecorder wired into a staticserve.Handler via
// Configuration.Metrics.
func New() staticserve.MetricsRecorder {
	return recorder{}
}

func (recorder) CacheHit(enc staticserve.Encoding) {
	cacheHits.WithLabelValues(enc.String()).Inc()
}

func (recorder) CacheMiss(enc staticserve.Encoding) {
	cacheMisses.WithLabelValues(enc.String()).Inc()
}

func (recorder) BytesServed(enc staticserve.Encoding, n int64) {
	bytesServed.WithLabelValues(enc.String()).Add(float64(n))
}

func (recorder) CompressionRatio(enc staticserve.Encoding, ratio float64) {
	compressionRatio.WithLabelValues(enc.String()).Observe(ratio)
}

// PromHandler returns an http.Handler that serves the registered
// metrics in the Prometheus exposition format, for mounting at
// "/metrics" by cmd/staticserve.
var PromHandler = promhttp.Handler
