package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated           = "created"
	OutcomeValidationFailed  = "validation_failed"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflictExhausted = "conflict_exhausted"
	OutcomeInternalError     = "internal_error"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// OrdersTotal counts order placements by outcome
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_orders_total",
			Help: "Order placement results by outcome",
		},
		[]string{"outcome"},
	)

	// OrderAttempts counts transaction attempts, including retries
	OrderAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_order_attempts_total",
			Help: "Order placement transaction attempts, including retries after conflicts",
		},
	)

	// StockDecrements counts units removed from stock by committed orders
	StockDecrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_stock_decrements_total",
			Help: "Units of stock removed by committed orders",
		},
	)

	// CartCheckouts counts cart checkouts by outcome
	CartCheckouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_cart_checkouts_total",
			Help: "Server-side cart checkouts by outcome",
		},
		[]string{"outcome"},
	)

	// CacheLookups counts catalog cache reads by result (hit, miss, error)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)
)

// PrometheusMiddleware records request count and latency per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
