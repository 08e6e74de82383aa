// Package metrics provides Prometheus metrics for registry lookups and the
// lookup cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all registry lookup metrics. A nil *Metrics disables
// collection.
type Metrics struct {
	CacheHitsTotal   *prometheus.CounterVec // Cache hits by lookup kind
	CacheMissesTotal *prometheus.CounterVec // Cache misses by lookup kind

	LiveLookupsTotal        *prometheus.CounterVec // Live registry calls by kind and result
	LookupDurationSeconds   *prometheus.HistogramVec
	CacheInvalidationsTotal prometheus.Counter
}

// New registers the registry collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_registry_cache_hits_total",
			Help: "Total number of registry cache hits by lookup kind",
		}, []string{"kind"}),

		CacheMissesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_registry_cache_misses_total",
			Help: "Total number of registry cache misses by lookup kind",
		}, []string{"kind"}),

		LiveLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_registry_live_lookups_total",
			Help: "Total number of live registry calls by lookup kind and result",
		}, []string{"kind", "result"}),

		LookupDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cartaporte_registry_lookup_duration_seconds",
			Help:    "Duration of registry lookups (cache and live) by kind",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),

		CacheInvalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cartaporte_registry_cache_invalidations_total",
			Help: "Total number of cache invalidation operations",
		}),
	}
}

// RecordCacheHit records a cache hit for the given lookup kind.
func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for the given lookup kind.
func (m *Metrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(kind).Inc()
}

// RecordLiveLookup records the result of a live registry call.
func (m *Metrics) RecordLiveLookup(kind, result string) {
	if m == nil {
		return
	}
	m.LiveLookupsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveLookupDuration records how long a lookup took end to end.
func (m *Metrics) ObserveLookupDuration(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.LookupDurationSeconds.WithLabelValues(kind).Observe(seconds)
}

// IncrementInvalidations records a cache invalidation event.
func (m *Metrics) IncrementInvalidations() {
	if m == nil {
		return
	}
	m.CacheInvalidationsTotal.Inc()
}
