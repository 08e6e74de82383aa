package store

import (
	"context"
	"sync"

	"cartaporte/internal/artifact/models"
)

// InMemoryStore keeps artifacts in a per-document slice. Used by tests and
// single-process deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]*models.Artifact
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string][]*models.Artifact)}
}

func (s *InMemoryStore) Insert(_ context.Context, artifact *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.artifacts[artifact.DocumentID] {
		if existing.Type == artifact.Type && existing.Version == artifact.Version {
			return ErrVersionExists
		}
	}
	stored := *artifact
	s.artifacts[artifact.DocumentID] = append(s.artifacts[artifact.DocumentID], &stored)
	return nil
}

func (s *InMemoryStore) ListByDocument(_ context.Context, documentID string) ([]*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Artifact, 0, len(s.artifacts[documentID]))
	for _, a := range s.artifacts[documentID] {
		copied := *a
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) FindVersion(_ context.Context, documentID string, t models.Type, v models.Version) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artifacts[documentID] {
		if a.Type == t && a.Version == v {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Archive(_ context.Context, documentID string, t models.Type, v models.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.artifacts[documentID] {
		if a.Type == t && a.Version == v {
			a.Active = false
			return nil
		}
	}
	return ErrNotFound
}
