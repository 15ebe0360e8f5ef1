package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picture"

var (
	registry = prometheus.NewRegistry()

	tasksStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Total tasks started",
		},
		[]string{"task"},
	)
	tasksFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total task failures caught at the task boundary",
		},
		[]string{"task", "kind"},
	)
	tasksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_skipped_total",
			Help:      "Total chained tasks suppressed by flag",
		},
		[]string{"task"},
	)
	documentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_created_total",
			Help:      "Total derived picture documents persisted",
		},
		[]string{"analysis_type"},
	)
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"task"},
	)
	queueMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Queue messages by outcome",
		},
		[]string{"outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)
	httpThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_throttled_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"group"},
	)
	httpPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Handler panics recovered by the router",
		},
		[]string{"route"},
	)
)

func init() {
	registry.MustRegister(
		tasksStarted, tasksFailed, tasksSkipped, documentsCreated, taskDuration,
		queueMessages, httpRequests, httpThrottled, httpPanics,
	)
}

// IncTaskStarted increments the started counter for a task.
func IncTaskStarted(task string) {
	tasksStarted.WithLabelValues(task).Inc()
}

// IncTaskFailed increments the failure counter for a task and error kind.
func IncTaskFailed(task, kind string) {
	tasksFailed.WithLabelValues(task, kind).Inc()
}

// IncTaskSkipped increments the skipped counter for a task.
func IncTaskSkipped(task string) {
	tasksSkipped.WithLabelValues(task).Inc()
}

// IncDocumentCreated increments the document counter for an analysis type.
func IncDocumentCreated(analysisType string) {
	documentsCreated.WithLabelValues(analysisType).Inc()
}

// ObserveTaskDuration records how long a task ran.
func ObserveTaskDuration(task string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// IncQueueMessage counts a queue message outcome (received, completed, failed, unrecoverable).
func IncQueueMessage(outcome string) {
	queueMessages.WithLabelValues(outcome).Inc()
}

// IncHTTPRequest counts a served request. Unmatched routes share one label.
func IncHTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
}

// IncThrottled counts a request rejected by the rate limiter.
func IncThrottled(group string) {
	httpThrottled.WithLabelValues(group).Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	httpPanics.WithLabelValues(route).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Registry exposes the collector registry, for tests and custom exporters.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
