package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the customization module.
// Tracks merchant mutations, cache effectiveness and store latency.
type Metrics struct {
	Mutations     *prometheus.CounterVec
	CacheResults  *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycustom_customization_mutations_total",
			Help: "Payment customization changes by action",
		}, []string{"action"}),
		CacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paycustom_customization_cache_results_total",
			Help: "Configuration cache lookups by result (hit, miss, error, bypass)",
		}, []string{"result"}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paycustom_customization_store_duration_seconds",
			Help:    "Duration of customization store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementMutation records a successful create, update, enable, disable or delete.
func (m *Metrics) IncrementMutation(action string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(action).Inc()
}

// IncrementCacheResult records a cache lookup result.
func (m *Metrics) IncrementCacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheResults.WithLabelValues(result).Inc()
}

// ObserveStore records the duration of a store operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
