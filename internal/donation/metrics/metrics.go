package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DonationsRecorded prometheus.Counter
	DonationFailures  prometheus.Counter
	UnitsDonated      prometheus.Counter
	RecordDurationMs  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		DonationsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_donations_recorded_total",
			Help: "Total number of donations durably recorded",
		}),
		DonationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_donation_failures_total",
			Help: "Total number of donation recording attempts that rolled back",
		}),
		UnitsDonated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_units_donated_total",
			Help: "Total blood units added to inventory by recorded donations",
		}),
		RecordDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelink_donation_record_duration_ms",
			Help:    "Latency of the donation recording transaction in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
}

func (m *Metrics) IncrementDonationsRecorded() {
	m.DonationsRecorded.Inc()
}

func (m *Metrics) IncrementDonationFailures() {
	m.DonationFailures.Inc()
}

func (m *Metrics) AddUnitsDonated(units int) {
	m.UnitsDonated.Add(float64(units))
}

func (m *Metrics) ObserveRecordDuration(d time.Duration) {
	m.RecordDurationMs.Observe(float64(d.Microseconds()) / 1000.0)
}
