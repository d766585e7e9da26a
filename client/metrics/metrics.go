// Package metrics records request execution and content capture
// statistics with Prometheus collectors registered on the default
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RecordRequest.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "rejected"
)

// Storage labels for RecordCapture.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

var (
	requestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocurl_requests_total",
		Help: "Total number of executed requests",
	}, []string{"method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gocurl_request_duration_seconds",
		Help:    "Duration from connect until the response body is captured",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	captureCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocurl_content_captured_total",
		Help: "Total number of captured response bodies",
	}, []string{"storage"}) // storage: memory, file

	captureBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gocurl_content_bytes",
		Help:    "Size of captured response bodies",
		Buckets: prometheus.ExponentialBuckets(256, 4, 10),
	})

	contentErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gocurl_content_errors_total",
		Help: "Total number of response bodies that could not be captured",
	})
)

// RecordRequest records one finished execution.
func RecordRequest(method, outcome string, d time.Duration) {
	requestsCounter.WithLabelValues(method, outcome).Inc()
	if outcome == OutcomeOK {
		requestDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}

// RecordCapture records a captured body and where it ended up.
func RecordCapture(inMemory bool, size int64) {
	storage := StorageFile
	if inMemory {
		storage = StorageMemory
	}
	captureCounter.WithLabelValues(storage).Inc()
	captureBytes.Observe(float64(size))
}

// RecordContentError records a body that failed to materialize.
func RecordContentError() {
	contentErrorsCounter.Inc()
}
