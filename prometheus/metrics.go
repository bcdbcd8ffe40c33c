package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// InvoicesGeneratedCounter tracks bulk generation outcomes
	InvoicesGeneratedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_invoices_generated_total",
			Help: "Total number of bulk invoice generation outcomes",
		},
		[]string{"result"}, // result is "created", "skipped" or "failed"
	)

	// PaymentsAppliedCounter tracks applied payments by method
	PaymentsAppliedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_payments_applied_total",
			Help: "Total number of payments applied to invoices",
		},
		[]string{"method"},
	)

	// OverdueTransitionsCounter tracks invoices flipped to overdue
	OverdueTransitionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_overdue_transitions_total",
			Help: "Total number of invoices transitioned to overdue",
		},
	)

	// OccupancyOperationCounter tracks lease lifecycle operations
	OccupancyOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_occupancy_operations_total",
			Help: "Total number of occupancy lifecycle operations",
		},
		[]string{"operation"}, // "create", "activate", "end", "cancel"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(InvoicesGeneratedCounter)
	prometheus.MustRegister(PaymentsAppliedCounter)
	prometheus.MustRegister(OverdueTransitionsCounter)
	prometheus.MustRegister(OccupancyOperationCounter)
	prometheus.MustRegister(RequestDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
