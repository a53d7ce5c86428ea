// Package cache provides the key-value collaborator the pipeline hands
// completed results to. The pipeline never reads its own state back; cache
// invalidation policy beyond the TTL belongs to the cache owner.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the external key-value collaborator.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore wraps a Redis client as a Store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the cached bytes, or nil without error on a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

// Set writes the value with a TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// ResultKey is where the latest completed discovery result lands.
const ResultKey = "equityrun:discovery:latest"

// WriteResult marshals a completed result set and hands it to the store.
// Callers only invoke this after a cycle completes in full, so a cancelled
// cycle never leaves a partial write behind.
func WriteResult(ctx context.Context, store Store, result any, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return store.Set(ctx, ResultKey, payload, ttl)
}
