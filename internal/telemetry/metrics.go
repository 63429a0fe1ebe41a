package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	QuotesGenerated *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec
}

// NewMetrics creates metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderquote_outcomes_total",
				Help: "Total order operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		QuotesGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderquote_quotes_generated_total",
				Help: "Total shipping quotes persisted by carrier",
			},
			[]string{"carrier"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderquote_operation_duration_seconds",
				Help:    "Operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderquote_store_errors_total",
				Help: "Total order store failures by operation",
			},
			[]string{"operation"},
		),
	}
}

// RecordOutcome records the outcome and duration of an operation.
func (m *Metrics) RecordOutcome(operation, outcome string, duration float64) {
	m.Outcomes.WithLabelValues(operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordQuote counts a persisted quote.
func (m *Metrics) RecordQuote(carrier string) {
	m.QuotesGenerated.WithLabelValues(carrier).Inc()
}

// RecordStoreError counts a store failure.
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}
