package prometheus

import (
	"time"

	"furniture-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Stock metrics
	StockMovementsCounter prometheus.CounterVec
	LowStockGauge         prometheus.GaugeVec

	// Order metrics
	OrderTransitionsCounter prometheus.CounterVec
	OrdersCreatedCounter    prometheus.Counter

	// Purchase order metrics
	PurchaseReceivesCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Stock movement metrics
	StockMovementsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_movements_total",
			Help: "Total number of recorded stock movements",
		},
		[]string{"movement_type"},
	)

	// Low stock gauge per branch
	LowStockGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_low_stock_items",
			Help: "Number of stock records at or below their reorder level",
		},
		[]string{"branch_id"},
	)

	// Order metrics
	OrderTransitionsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	OrdersCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	// Purchase order metrics
	PurchaseReceivesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_purchase_receives_total",
			Help: "Total number of purchase order receipts",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordStockMovement increments the counter for a movement type
func RecordStockMovement(movementType string) {
	StockMovementsCounter.WithLabelValues(movementType).Inc()
}

// UpdateLowStock sets the low stock gauge for a branch
func UpdateLowStock(branchID string, count float64) {
	LowStockGauge.WithLabelValues(branchID).Set(count)
}

// RecordOrderTransition increments the counter for the status an order entered
func RecordOrderTransition(status string) {
	OrderTransitionsCounter.WithLabelValues(status).Inc()
}
