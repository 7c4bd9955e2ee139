package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record lifecycle and the lookup engine.
// All methods are safe on a nil receiver.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	RiskUpgrades    prometheus.Counter
	Transitions     *prometheus.CounterVec
	WriteConflicts  prometheus.Counter
	Lookups         *prometheus.CounterVec
	LookupCacheHits prometheus.Counter
	StoreDuration   *prometheus.HistogramVec
}

// New creates the metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blacklisthub_submissions_total",
			Help: "Submissions by outcome (created or merged)",
		}, []string{"outcome"}),
		RiskUpgrades: factory.NewCounter(prometheus.CounterOpts{
			Name: "blacklisthub_risk_upgrades_total",
			Help: "Merges that escalated a record's risk level",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blacklisthub_status_transitions_total",
			Help: "Applied status transitions",
		}, []string{"from", "to"}),
		WriteConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "blacklisthub_write_conflicts_total",
			Help: "Optimistic concurrency conflicts that forced a retry",
		}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blacklisthub_lookups_total",
			Help: "Lookups by variant and result",
		}, []string{"variant", "hit"}),
		LookupCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "blacklisthub_lookup_cache_hits_total",
			Help: "Lookups answered from the cache",
		}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blacklisthub_store_operation_duration_seconds",
			Help:    "Duration of service operations that hit the entity store",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncrementSubmission records a created or merged submission
func (m *Metrics) IncrementSubmission(merged, escalated bool) {
	if m == nil {
		return
	}
	outcome := "created"
	if merged {
		outcome = "merged"
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	if escalated {
		m.RiskUpgrades.Inc()
	}
}

// IncrementTransition records an applied status change
func (m *Metrics) IncrementTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

// IncrementConflict records a version conflict
func (m *Metrics) IncrementConflict() {
	if m == nil {
		return
	}
	m.WriteConflicts.Inc()
}

// IncrementLookup records a lookup answer
func (m *Metrics) IncrementLookup(variant string, hit, cached bool) {
	if m == nil {
		return
	}
	label := "false"
	if hit {
		label = "true"
	}
	m.Lookups.WithLabelValues(variant, label).Inc()
	if cached {
		m.LookupCacheHits.Inc()
	}
}

// ObserveStore records the duration of operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStore(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
