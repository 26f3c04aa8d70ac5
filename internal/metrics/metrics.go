// Package metrics exposes Prometheus instrumentation for the track pipeline
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satloc_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "satloc_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	elementFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "satloc_element_fetch_total",
			Help: "Element set lookups by result (ok, not_found, retrieval_error, error).",
		},
		[]string{"result"},
	)

	trackBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satloc_track_build_seconds",
			Help:    "Time spent sampling one ground track.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	trackSamples = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "satloc_track_samples",
			Help:    "Number of samples per built ground track.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(elementFetchTotal)
	prometheus.MustRegister(trackBuildSeconds)
	prometheus.MustRegister(trackSamples)
}

// RecordElementFetch counts one element set lookup.
func RecordElementFetch(result string) {
	elementFetchTotal.WithLabelValues(result).Inc()
}

// ObserveTrackBuild records the sampling duration and size of a built track.
func ObserveTrackBuild(d time.Duration, samples int) {
	trackBuildSeconds.Observe(d.Seconds())
	trackSamples.Observe(float64(samples))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
	})
}
