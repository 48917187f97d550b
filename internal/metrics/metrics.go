package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Planwise
type Metrics struct {
	// Generation pipeline metrics
	GenerationRequests *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	CandidateAttempts  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec

	// Board metrics
	PlansApplied  *prometheus.CounterVec
	TasksCreated  *prometheus.CounterVec
	TaskStatus    *prometheus.GaugeVec
	ProjectsTotal prometheus.Gauge

	// System metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	UploadsTotal        *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			GenerationRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_generation_requests_total",
					Help: "Total number of plan generation requests",
				},
				[]string{"mode", "outcome"},
			),
			GenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "planwise_generation_duration_seconds",
					Help:    "Plan generation duration in seconds, including fallback attempts",
					Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 500ms to 128s
				},
				[]string{"mode"},
			),
			CandidateAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_candidate_attempts_total",
					Help: "Total generateContent attempts by API version, model and HTTP status",
				},
				[]string{"version", "model", "status"},
			),
			ValidationFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_validation_failures_total",
					Help: "Total plan replies rejected by the validator",
				},
				[]string{"kind"}, // parse, shape
			),

			PlansApplied: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_plans_applied_total",
					Help: "Total plans applied to a project board",
				},
				[]string{"result"},
			),
			TasksCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_tasks_created_total",
					Help: "Total tasks created",
				},
				[]string{"source"}, // plan, manual
			),
			TaskStatus: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "planwise_task_status",
					Help: "Number of tasks by status",
				},
				[]string{"status"},
			),
			ProjectsTotal: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "planwise_projects_total",
					Help: "Total number of projects",
				},
			),

			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "planwise_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
			UploadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "planwise_uploads_total",
					Help: "Total file uploads by result",
				},
				[]string{"result"}, // stored, fallback
			),
		}
	})

	return sharedMetrics
}

// RecordCandidateAttempt records one generateContent attempt. A zero status
// means no HTTP response was received.
func (m *Metrics) RecordCandidateAttempt(version, model string, status int) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.CandidateAttempts.WithLabelValues(version, model, label).Inc()
}

// RecordGeneration records the outcome of a whole generation call.
func (m *Metrics) RecordGeneration(mode string, success bool, seconds float64) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	m.GenerationRequests.WithLabelValues(mode, outcome).Inc()
	m.GenerationDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
