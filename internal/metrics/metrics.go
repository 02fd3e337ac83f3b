// Package metrics holds the Prometheus collectors for the resolver, writer and
// cache maintenance paths. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors
type Metrics struct {
	// ResolveTotal counts resolves by the tier that answered ("local", "distributed", "store", "miss")
	ResolveTotal *prometheus.CounterVec

	// WriteTotal counts write items by outcome
	WriteTotal *prometheus.CounterVec

	// CacheErrorsTotal counts swallowed cache-tier failures
	CacheErrorsTotal *prometheus.CounterVec

	// MaintenanceTasksTotal counts populate/invalidate tasks by kind and result
	MaintenanceTasksTotal *prometheus.CounterVec

	// ResolveDuration tracks resolve latency
	ResolveDuration prometheus.Histogram
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ResolveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_resolve_total",
			Help: "Total number of resolves by answering tier",
		}, []string{"tier"}),
		WriteTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_write_items_total",
			Help: "Total number of write items by outcome",
		}, []string{"outcome"}),
		CacheErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_cache_errors_total",
			Help: "Total number of swallowed cache tier errors",
		}, []string{"tier", "op"}),
		MaintenanceTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_cache_maintenance_tasks_total",
			Help: "Total number of cache maintenance tasks by kind and result",
		}, []string{"kind", "result"}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shortlink_resolve_duration_seconds",
			Help:    "Resolve duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordResolve records which tier answered a resolve
func (m *Metrics) RecordResolve(tier string, seconds float64) {
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(tier).Inc()
	m.ResolveDuration.Observe(seconds)
}

// RecordWrite records a write item outcome
func (m *Metrics) RecordWrite(outcome string) {
	if m == nil {
		return
	}
	m.WriteTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheError records a swallowed cache failure
func (m *Metrics) RecordCacheError(tier, op string) {
	if m == nil {
		return
	}
	m.CacheErrorsTotal.WithLabelValues(tier, op).Inc()
}

// RecordTask records a maintenance task result ("ok", "error", "dropped", "overflow", "stale")
func (m *Metrics) RecordTask(kind, result string) {
	if m == nil {
		return
	}
	m.MaintenanceTasksTotal.WithLabelValues(kind, result).Inc()
}
