package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics shared by all routes.
type Metrics struct {
	RequestDurationMs *prometheus.HistogramVec
	RequestsTotal     *prometheus.CounterVec
}

// New creates and registers the transport metrics.
func New() *Metrics {
	return &Metrics{
		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lifelink_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route", "method"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_http_requests_total",
			Help: "Total HTTP requests by route, method, and status class",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	m.RequestDurationMs.WithLabelValues(route, method).Observe(float64(d.Microseconds()) / 1000.0)
	m.RequestsTotal.WithLabelValues(route, method, status).Inc()
}
