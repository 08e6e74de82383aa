// Package store provides the TTL-keyed cache behind registry lookups.
// Entries are replace-only: a write always installs a whole new entry, and a
// read past the TTL behaves exactly like a miss so validation never runs
// against outdated government data.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key is absent from the cache or its entry
// has expired past the TTL.
var ErrNotFound = errors.New("not found")

// LookupKind namespaces cache keys per registry.
type LookupKind string

const (
	KindGeography   LookupKind = "geo"
	KindTaxpayer    LookupKind = "taxpayer"
	KindCertificate LookupKind = "certificate"
)

// Key addresses one cached lookup result. Environment keeps sandbox and
// production identity spaces from ever colliding; kinds without an
// environment dimension leave it empty.
type Key struct {
	Kind        LookupKind
	Environment string
	NaturalKey  string
}

// String renders the canonical cache key.
func (k Key) String() string {
	return fmt.Sprintf("registry:%s:%s:%s", k.Kind, k.Environment, k.NaturalKey)
}

// Store is the pluggable cache backend. Implementations must be safe for
// concurrent use and must never tear entries (replace, not mutate).
type Store interface {
	// Get returns the cached payload, or ErrNotFound on miss or TTL expiry.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set installs a new entry, replacing any previous one.
	Set(ctx context.Context, key Key, payload []byte) error

	// Invalidate removes an entry. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key Key) error
}
