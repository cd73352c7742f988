package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Photo-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Ingestion outcomes per intake strategy
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "uploads_total",
			Help:      "Total photo ingestions",
		},
		[]string{"intake", "status"},
	)

	// Canonical bytes written
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "upload_bytes_total",
			Help:      "Total canonical bytes stored",
		},
		[]string{"intake"},
	)

	// Normalization duration
	NormalizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "normalize_duration_seconds",
			Help:      "Image decode/resize/encode duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"status"},
	)

	// Blob store operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "storage_operations_total",
			Help:      "Total blob store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Blob store operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "photo_api",
			Name:      "storage_duration_seconds",
			Help:      "Blob store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records one ingestion attempt
func RecordUpload(intake, status string, bytes int64) {
	UploadsTotal.WithLabelValues(intake, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(intake).Add(float64(bytes))
	}
}

// RecordNormalize records one normalization run
func RecordNormalize(status string, durationSec float64) {
	NormalizeDuration.WithLabelValues(status).Observe(durationSec)
}

// RecordStorageOperation records a blob store operation
func RecordStorageOperation(backend, operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// StatusLabel maps an error to the "success"/"error" label pair.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
