package telemetry

import (
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the per-sale admission counters and step-latency
// histogram, distinct from the HTTP-layer metrics in
// internal/middleware.
type Metrics struct {
	outcomes prometheus.CounterVec
	steps    prometheus.HistogramVec
}

// NewMetrics registers the admission metrics via promauto against the
// default Prometheus registry.
func NewMetrics() *Metrics {
	return &Metrics{
		outcomes: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_outcomes_total",
				Help: "Total admission pipeline outcomes by sale and result",
			},
			[]string{"sale_id", "result"},
		),
		steps: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admission_step_duration_seconds",
				Help:    "Admission pipeline step duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
	}
}

// RecordOutcome implements admission.OutcomeRecorder.
func (m *Metrics) RecordOutcome(saleID string, result domain.Result) {
	m.outcomes.WithLabelValues(saleID, string(result)).Inc()
}

// ObserveStep implements admission.OutcomeRecorder.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	m.steps.WithLabelValues(step).Observe(d.Seconds())
}
