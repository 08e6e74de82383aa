// Package metrics exposes Prometheus collectors for the validation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the validation collectors. A nil *Metrics disables
// collection.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	FindingsTotal    *prometheus.CounterVec
	ScoreHistogram   prometheus.Histogram
	DurationSeconds  prometheus.Histogram
	InternalFailures prometheus.Counter
}

// New registers the validation collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_validation_runs_total",
			Help: "Validation runs by outcome (valid, invalid).",
		}, []string{"outcome"}),
		FindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_validation_findings_total",
			Help: "Findings emitted by code and severity.",
		}, []string{"code", "severity"}),
		ScoreHistogram: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartaporte_validation_score",
			Help:    "Compliance score distribution.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		DurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartaporte_validation_duration_seconds",
			Help:    "End-to-end duration of one validation run.",
			Buckets: prometheus.DefBuckets,
		}),
		InternalFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cartaporte_validation_internal_failures_total",
			Help: "Validation runs aborted by infrastructure failures.",
		}),
	}
}

// RecordRun records one completed validation run.
func (m *Metrics) RecordRun(valid bool, score int, seconds float64) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.ScoreHistogram.Observe(float64(score))
	m.DurationSeconds.Observe(seconds)
}

// RecordFinding counts one emitted finding.
func (m *Metrics) RecordFinding(code, severity string) {
	if m == nil {
		return
	}
	m.FindingsTotal.WithLabelValues(code, severity).Inc()
}

// RecordInternalFailure counts a run aborted by an infrastructure failure.
func (m *Metrics) RecordInternalFailure() {
	if m == nil {
		return
	}
	m.InternalFailures.Inc()
}
