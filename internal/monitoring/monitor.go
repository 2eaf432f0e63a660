package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	LLMAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_attempts_total",
			Help: "LLM provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_attempt_duration_seconds",
			Help:    "Duration of LLM provider attempts",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
		},
		[]string{"provider"},
	)

	HistoryPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_persist_failures_total",
			Help: "Symptom checks whose history record could not be written",
		},
	)
)

// LLM attempt outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeTimeout     = "timeout"
	OutcomeParseFailed = "parse_error"
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(LLMAttempts)
		prometheus.MustRegister(LLMAttemptDuration)
		prometheus.MustRegister(HistoryPersistFailures)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
