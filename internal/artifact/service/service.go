// Package service implements the document version manager. It assigns
// vMAJOR.MINOR versions to generated artifacts and preserves the full
// lineage of a logical document: regeneration never overwrites prior
// legally-relevant state.
package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"cartaporte/internal/artifact/metrics"
	"cartaporte/internal/artifact/models"
	"cartaporte/internal/artifact/store"
	dErrors "cartaporte/pkg/domain-errors"
	psync "cartaporte/pkg/platform/sync"
)

// registerAttempts bounds recompute-and-retry when another writer takes the
// computed version first.
const registerAttempts = 3

// Manager owns versioned artifacts. All version assignment goes through it;
// no other component writes artifact records.
type Manager struct {
	store   store.Store
	locks   *psync.ShardedMutex
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics sets the metrics collector for the manager.
func WithMetrics(mx *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mx }
}

// WithClock overrides the manager's clock. Used by tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a version manager over the given store.
func NewManager(s store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  s,
		locks:  psync.NewShardedMutex(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register persists a new artifact, computing the next version when explicit
// is nil. The per-document lock serializes local writers; the store's unique
// constraint catches writers on other instances, in which case the version
// is recomputed and the insert retried.
func (m *Manager) Register(ctx context.Context, documentID string, t models.Type, content []byte, metadata map[string]string, explicit *models.Version) (*models.Artifact, error) {
	if documentID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "documentID is required")
	}
	if !t.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown artifact type")
	}

	m.locks.Lock(documentID)
	defer m.locks.Unlock(documentID)

	var lastErr error
	for attempt := 0; attempt < registerAttempts; attempt++ {
		version, err := m.resolveVersion(ctx, documentID, t, explicit)
		if err != nil {
			return nil, err
		}

		artifact := &models.Artifact{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			Type:        t,
			Version:     version,
			Content:     content,
			Metadata:    metadata,
			GeneratedAt: m.now(),
			Active:      true,
		}
		err = m.store.Insert(ctx, artifact)
		if err == nil {
			m.metrics.RecordRegistration(string(t))
			m.logger.InfoContext(ctx, "artifact registered",
				"document_id", documentID,
				"type", string(t),
				"version", version.String(),
			)
			return artifact, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		// An explicit version that collides is the caller's error, not a
		// race to resolve.
		if explicit != nil {
			return nil, err
		}
		m.metrics.RecordVersionConflict()
		lastErr = err
	}
	return nil, lastErr
}

// resolveVersion validates an explicit version or computes the next one.
func (m *Manager) resolveVersion(ctx context.Context, documentID string, t models.Type, explicit *models.Version) (models.Version, error) {
	if explicit != nil {
		if explicit.Major < 1 || explicit.Minor < 0 {
			return models.Version{}, dErrors.New(dErrors.CodeInvalidInput, "explicit version out of range")
		}
		return *explicit, nil
	}
	existing, err := m.store.ListByDocument(ctx, documentID)
	if err != nil {
		return models.Version{}, err
	}
	return nextVersion(existing, t), nil
}

// nextVersion implements the version assignment asymmetry. Base types
// (regenerated from scratch) bump MAJOR and reset MINOR; derived types
// (transformations of a prior artifact) pin MAJOR to the document's latest
// and bump MINOR past every artifact already at that MAJOR. Archived records
// still count: a version number is never reissued.
func nextVersion(existing []*models.Artifact, t models.Type) models.Version {
	if len(existing) == 0 {
		return models.Version{Major: 1, Minor: 0}
	}

	if !t.Derived() {
		major := 0
		for _, a := range existing {
			if a.Type == t && a.Version.Major > major {
				major = a.Version.Major
			}
		}
		return models.Version{Major: major + 1, Minor: 0}
	}

	major := 0
	for _, a := range existing {
		if a.Version.Major > major {
			major = a.Version.Major
		}
	}
	minor := -1
	for _, a := range existing {
		if a.Version.Major == major && a.Version.Minor > minor {
			minor = a.Version.Minor
		}
	}
	return models.Version{Major: major, Minor: minor + 1}
}

// ListVersions returns the active artifacts of one type, newest first.
func (m *Manager) ListVersions(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error) {
	return m.list(ctx, documentID, t, false)
}

// ListHistory returns every artifact of one type, archived included, newest
// first.
func (m *Manager) ListHistory(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error) {
	return m.list(ctx, documentID, t, true)
}

func (m *Manager) list(ctx context.Context, documentID string, t models.Type, includeArchived bool) ([]*models.Artifact, error) {
	all, err := m.store.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	var matched []*models.Artifact
	for _, a := range all {
		if a.Type != t {
			continue
		}
		if !includeArchived && !a.Active {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].GeneratedAt.Equal(matched[j].GeneratedAt) {
			return matched[i].GeneratedAt.After(matched[j].GeneratedAt)
		}
		return matched[i].Version.Compare(matched[j].Version) > 0
	})
	return matched, nil
}

// GetLatest returns the newest active artifact of one type, or ErrNotFound.
func (m *Manager) GetLatest(ctx context.Context, documentID string, t models.Type) (*models.Artifact, error) {
	active, err := m.ListVersions(ctx, documentID, t)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, store.ErrNotFound
	}
	return active[0], nil
}

// Find returns the latest active artifact when version is nil. With an
// explicit version it returns that exact record whether archived or not;
// asking for a version by name is a history query.
func (m *Manager) Find(ctx context.Context, documentID string, t models.Type, version *models.Version) (*models.Artifact, error) {
	if version == nil {
		return m.GetLatest(ctx, documentID, t)
	}
	return m.store.FindVersion(ctx, documentID, t, *version)
}

// Archive flips an artifact inactive. The record remains queryable through
// Find and ListHistory.
func (m *Manager) Archive(ctx context.Context, documentID string, t models.Type, version models.Version) error {
	if err := m.store.Archive(ctx, documentID, t, version); err != nil {
		return err
	}
	m.metrics.RecordArchive(string(t))
	m.logger.InfoContext(ctx, "artifact archived",
		"document_id", documentID,
		"type", string(t),
		"version", version.String(),
	)
	return nil
}
