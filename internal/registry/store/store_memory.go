package store

import (
	"context"
	"sync"
	"time"
)

type cachedEntry struct {
	payload   []byte
	fetchedAt time.Time
}

// InMemoryStore is a mutex-guarded map cache with TTL expiration. It favors
// clarity over performance and is the default backend when Redis is not
// configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]cachedEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryStore creates an in-memory cache with the specified TTL.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]cachedEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached payload, or ErrNotFound on miss or TTL expiry.
// Expired entries are left for Set to overwrite; reads never mutate state.
func (s *InMemoryStore) Get(_ context.Context, key Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[key.String()]; ok {
		if s.now().Sub(entry.fetchedAt) < s.ttl {
			return entry.payload, nil
		}
	}
	return nil, ErrNotFound
}

// Set installs a fresh entry, replacing any previous one.
func (s *InMemoryStore) Set(_ context.Context, key Key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = cachedEntry{payload: payload, fetchedAt: s.now()}
	return nil
}

// Invalidate removes an entry if present.
func (s *InMemoryStore) Invalidate(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
