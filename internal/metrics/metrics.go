// Package metrics provides Prometheus metrics for the API server and worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_manager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "files_manager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Node metrics
	nodesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_manager_nodes_created_total",
			Help: "Total nodes created by type",
		},
		[]string{"type"},
	)

	contentBytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "files_manager_content_bytes_uploaded_total",
			Help: "Total decoded bytes written to the content store",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_manager_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "files_manager_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)

	// Queue metrics
	jobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_manager_jobs_enqueued_total",
			Help: "Total jobs enqueued",
		},
		[]string{"queue", "status"},
	)

	jobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "files_manager_jobs_processed_total",
			Help: "Total jobs processed by the worker",
		},
		[]string{"queue", "status"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "files_manager_job_duration_seconds",
			Help:    "Job handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric. route is the matched
// mux pattern, never the raw path.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordNodeCreated(nodeType string, contentBytes int) {
	nodesCreatedTotal.WithLabelValues(nodeType).Inc()
	if contentBytes > 0 {
		contentBytesUploaded.Add(float64(contentBytes))
	}
}

func RecordAuthAttempt(success bool) {
	authAttemptsTotal.WithLabelValues(result(success)).Inc()
}

func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

func RecordJobEnqueued(queue string, success bool) {
	jobsEnqueuedTotal.WithLabelValues(queue, result(success)).Inc()
}

func RecordJobProcessed(queue string, success bool, duration time.Duration) {
	jobsProcessedTotal.WithLabelValues(queue, result(success)).Inc()
	jobDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
