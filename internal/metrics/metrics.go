package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projectflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	ProgressRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectflow_progress_recalculations_total",
			Help: "Progress recalculations by outcome",
		},
		[]string{"outcome"}, // changed, unchanged
	)

	ProjectMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectflow_project_mutations_total",
			Help: "Project mutations by action",
		},
		[]string{"action"},
	)

	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectflow_event_publish_failures_total",
			Help: "Events that could not be handed to the broker",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordRecalculation(changed bool) {
	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	ProgressRecalculations.WithLabelValues(outcome).Inc()
}

func IncrementMutation(action string) {
	ProjectMutations.WithLabelValues(action).Inc()
}

// Middleware times every request. The route template is used as the path
// label so ids do not explode the label space.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
