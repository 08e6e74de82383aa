//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cartaporte/internal/registry/store"
	"cartaporte/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedisStore(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSetGetRoundtrip() {
	ctx := context.Background()
	key := store.Key{Kind: store.KindTaxpayer, Environment: "sandbox", NaturalKey: "TLO010203AB9"}

	s.Require().NoError(s.store.Set(ctx, key, []byte(`{"rfc":"TLO010203AB9"}`)))

	payload, err := s.store.Get(ctx, key)
	s.Require().NoError(err)
	s.Equal([]byte(`{"rfc":"TLO010203AB9"}`), payload)
}

func (s *RedisStoreSuite) TestMissIsNotFound() {
	key := store.Key{Kind: store.KindGeography, NaturalKey: "99999"}
	_, err := s.store.Get(context.Background(), key)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	short := store.NewRedisStore(s.redis.Client, time.Second)
	key := store.Key{Kind: store.KindGeography, NaturalKey: "44100"}

	s.Require().NoError(short.Set(ctx, key, []byte("cached")))

	_, err := short.Get(ctx, key)
	s.Require().NoError(err)

	// Redis rounds TTLs up, so wait comfortably past expiry.
	time.Sleep(1500 * time.Millisecond)

	_, err = short.Get(ctx, key)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *RedisStoreSuite) TestSetReplacesExistingEntry() {
	ctx := context.Background()
	key := store.Key{Kind: store.KindTaxpayer, Environment: "production", NaturalKey: "TLO010203AB9"}

	s.Require().NoError(s.store.Set(ctx, key, []byte("first")))
	s.Require().NoError(s.store.Set(ctx, key, []byte("second")))

	payload, err := s.store.Get(ctx, key)
	s.Require().NoError(err)
	s.Equal([]byte("second"), payload)
}

func (s *RedisStoreSuite) TestInvalidate() {
	ctx := context.Background()
	key := store.Key{Kind: store.KindTaxpayer, Environment: "sandbox", NaturalKey: "LOGI840315QX2"}

	s.Require().NoError(s.store.Set(ctx, key, []byte("cached")))
	s.Require().NoError(s.store.Invalidate(ctx, key))

	_, err := s.store.Get(ctx, key)
	s.ErrorIs(err, store.ErrNotFound)

	// Invalidating an absent key is not an error.
	s.NoError(s.store.Invalidate(ctx, key))
}

func (s *RedisStoreSuite) TestEnvironmentsShareNoKeys() {
	ctx := context.Background()
	sandbox := store.Key{Kind: store.KindTaxpayer, Environment: "sandbox", NaturalKey: "TLO010203AB9"}
	production := store.Key{Kind: store.KindTaxpayer, Environment: "production", NaturalKey: "TLO010203AB9"}

	s.Require().NoError(s.store.Set(ctx, sandbox, []byte("sandbox-record")))

	_, err := s.store.Get(ctx, production)
	s.ErrorIs(err, store.ErrNotFound)
}
