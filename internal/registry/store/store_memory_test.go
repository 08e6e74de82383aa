package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewInMemoryStore(5 * time.Minute)
	s.now = func() time.Time { return now }

	key := Key{Kind: KindTaxpayer, Environment: "sandbox", NaturalKey: "TLO010203AB9"}
	require.NoError(t, s.Set(context.Background(), key, []byte(`{"rfc":"TLO010203AB9"}`)))

	payload, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"rfc":"TLO010203AB9"}`), payload)

	// Just inside the TTL the entry still serves.
	now = now.Add(5*time.Minute - time.Second)
	_, err = s.Get(context.Background(), key)
	assert.NoError(t, err)

	// At the TTL boundary the entry behaves as a miss.
	now = now.Add(time.Second)
	_, err = s.Get(context.Background(), key)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInMemoryStoreReplaceOnly(t *testing.T) {
	s := NewInMemoryStore(time.Minute)
	key := Key{Kind: KindGeography, NaturalKey: "44100"}

	require.NoError(t, s.Set(context.Background(), key, []byte("first")))
	require.NoError(t, s.Set(context.Background(), key, []byte("second")))

	payload, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStoreInvalidate(t *testing.T) {
	s := NewInMemoryStore(time.Minute)
	key := Key{Kind: KindGeography, NaturalKey: "44100"}

	require.NoError(t, s.Set(context.Background(), key, []byte("x")))
	require.NoError(t, s.Invalidate(context.Background(), key))

	_, err := s.Get(context.Background(), key)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Invalidating an absent key is not an error.
	assert.NoError(t, s.Invalidate(context.Background(), key))
}

func TestKeySeparatesEnvironments(t *testing.T) {
	sandbox := Key{Kind: KindTaxpayer, Environment: "sandbox", NaturalKey: "TLO010203AB9"}
	production := Key{Kind: KindTaxpayer, Environment: "production", NaturalKey: "TLO010203AB9"}

	assert.NotEqual(t, sandbox.String(), production.String())

	s := NewInMemoryStore(time.Minute)
	require.NoError(t, s.Set(context.Background(), sandbox, []byte("sandbox-record")))

	_, err := s.Get(context.Background(), production)
	assert.True(t, errors.Is(err, ErrNotFound))
}
