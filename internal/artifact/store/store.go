// Package store persists versioned artifacts.
package store

import (
	"context"

	"cartaporte/internal/artifact/models"
	pkgerrors "cartaporte/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "artifact not found")

	// ErrVersionExists reports a (document, type, version) collision. The
	// version manager recomputes and retries on this.
	ErrVersionExists = pkgerrors.New(pkgerrors.CodeConflict, "artifact version already exists")
)

// Store is the persistence contract for versioned artifacts. Records are
// append-plus-archive: Insert never overwrites, Archive flips the active
// flag, nothing is ever deleted.
type Store interface {
	// Insert persists a new artifact. Returns ErrVersionExists when the
	// (document, type, version) key is already taken.
	Insert(ctx context.Context, artifact *models.Artifact) error

	// ListByDocument returns every artifact of a logical document, archived
	// included, in no particular order.
	ListByDocument(ctx context.Context, documentID string) ([]*models.Artifact, error)

	// FindVersion returns the exact version, archived or not.
	FindVersion(ctx context.Context, documentID string, t models.Type, v models.Version) (*models.Artifact, error)

	// Archive flips the artifact inactive. Returns ErrNotFound when the
	// version does not exist.
	Archive(ctx context.Context, documentID string, t models.Type, v models.Version) error
}
