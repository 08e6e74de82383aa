// Package metrics exposes Prometheus collectors for the version manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the artifact collectors. A nil *Metrics disables collection.
type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	ArchivesTotal      *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
}

// New registers the artifact collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_artifact_registrations_total",
			Help: "Artifact registrations by type.",
		}, []string{"type"}),
		ArchivesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cartaporte_artifact_archives_total",
			Help: "Artifact archive operations by type.",
		}, []string{"type"}),
		VersionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "cartaporte_artifact_version_conflicts_total",
			Help: "Version collisions resolved by recompute-and-retry.",
		}),
	}
}

// RecordRegistration counts one persisted artifact.
func (m *Metrics) RecordRegistration(artifactType string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(artifactType).Inc()
}

// RecordArchive counts one archived artifact.
func (m *Metrics) RecordArchive(artifactType string) {
	if m == nil {
		return
	}
	m.ArchivesTotal.WithLabelValues(artifactType).Inc()
}

// RecordVersionConflict counts one retried registration.
func (m *Metrics) RecordVersionConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}
