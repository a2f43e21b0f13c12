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

// MetricsRecorder receives the counters and timings spec.md's core
// does not define (metrics are an external collaborator per spec.md
// §1) but that any production deployment needs. A nil Configuration.Metrics
// makes every call here a no-op; internal/metrics provides a
// Prometheus-backed implementation wired by cmd/staticserve.
type MetricsRecorder interface {
	CacheHit(encoding Encoding)
	CacheMiss(encoding Encoding)
	BytesServed(encoding Encoding, n int64)
	CompressionRatio(encoding Encoding, ratio float64)
}

// noopMetrics is the zero-cost default used whenever Configuration.Metrics is nil.
type noopMetrics struct{}

func (noopMetrics) CacheHit(Encoding)                  {}
func (noopMetrics) CacheMiss(Encoding)                 {}
func (noopMetrics) BytesServed(Encoding, int64)        {}
func (noopMetrics) CompressionRatio(Encoding, float64) {}

func (c Configuration) metrics() MetricsRecorder {
	if c.Metrics != nil {
		return c.Metrics
	}
	return noopMetrics{}
}
