package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	PendingOperations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_pending_operations",
			Help: "Number of queued operations awaiting remote acknowledgment",
		},
	)

	FlushResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_flush_operations_total",
			Help: "Delivery outcomes of queued operations during flush passes",
		},
		[]string{"kind", "outcome"},
	)

	AssetCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_cache_lookups_total",
			Help: "Asset cache lookups by result",
		},
		[]string{"result"}, // hit, miss, bypass, fallback
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PendingOperations)
	prometheus.MustRegister(FlushResults)
	prometheus.MustRegister(AssetCacheLookups)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
