package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// UploadsTotal counts image uploads by outcome (stored, rejected).
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_image_uploads_total",
			Help: "Total number of task image uploads by outcome",
		},
		[]string{"outcome"},
	)

	// UploadsCleaned counts orphaned upload files removed by the cleanup job.
	UploadsCleaned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_image_uploads_cleaned_total",
			Help: "Total number of orphaned upload files removed",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, UploadsTotal, UploadsCleaned)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /tasks/123 -> /tasks/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncUpload increments the upload counter for the given outcome (stored, rejected).
func IncUpload(outcome string) {
	UploadsTotal.WithLabelValues(outcome).Inc()
}

// IncUploadsCleaned adds n removed files to the cleanup counter.
func IncUploadsCleaned(n int) {
	UploadsCleaned.Add(float64(n))
}
