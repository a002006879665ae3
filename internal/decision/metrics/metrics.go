package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	// Decision outcomes by outcome and reason
	DecisionOutcome *prometheus.CounterVec

	// Engine evaluation latency
	EvaluateLatency prometheus.Histogram

	// Configuration lookups by result: "hit", "disabled", "not_found", "error"
	ConfigLookups *prometheus.CounterVec

	// Audit events that could not be emitted
	AuditFailures prometheus.Counter
}

// New creates a new Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycustom_decision_outcomes_total",
			Help: "Total decision outcomes by outcome and reason",
		}, []string{"outcome", "reason"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "paycustom_decision_evaluate_duration_seconds",
			Help:    "Duration of a single decision evaluation",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}),

		ConfigLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycustom_decision_config_lookups_total",
			Help: "Stored configuration lookups by result",
		}, []string{"result"}),

		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "paycustom_decision_audit_failures_total",
			Help: "Audit events that failed to emit",
		}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome, reason string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome, reason).Inc()
	}
}

// ObserveEvaluateLatency records the evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementConfigLookup records a stored configuration lookup.
func (m *Metrics) IncrementConfigLookup(result string) {
	if m != nil {
		m.ConfigLookups.WithLabelValues(result).Inc()
	}
}

// IncrementAuditFailure records an audit emission failure.
func (m *Metrics) IncrementAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}
