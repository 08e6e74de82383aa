package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists registry cache entries in Redis with TTL-based
// eviction, so multiple instances share one lookup cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed registry cache.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Get loads a cached payload. Redis handles expiry, so a hit is always fresh.
func (s *RedisStore) Get(ctx context.Context, key Key) ([]byte, error) {
	data, err := s.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registry cache: %w", err)
	}
	return data, nil
}

// Set writes a payload with TTL eviction, replacing any existing entry.
func (s *RedisStore) Set(ctx context.Context, key Key, payload []byte) error {
	if err := s.client.Set(ctx, key.String(), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set registry cache: %w", err)
	}
	return nil
}

// Invalidate removes an entry.
func (s *RedisStore) Invalidate(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("invalidate registry cache: %w", err)
	}
	return nil
}
