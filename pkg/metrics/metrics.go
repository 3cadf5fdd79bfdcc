package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcribe_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcribe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcribe_upstream_requests_total",
			Help: "Calls to the Azure OpenAI deployments by stage and status.",
		},
		[]string{"stage", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transcribe_upstream_request_duration_seconds",
			Help:    "Latency of Azure OpenAI calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"stage"},
	)
)

// Middleware records request counts and latency. Routes are labelled by their
// pattern (/transcriptions/:id) so ids never reach label values.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func ObserveUpstream(stage, status string, elapsed time.Duration) {
	upstreamRequestsTotal.WithLabelValues(stage, status).Inc()
	upstreamRequestDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
