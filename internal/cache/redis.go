package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface check.
var _ Cache[struct{}] = (*RedisCache[struct{}])(nil)

// RedisCache implements Cache on a shared Redis client. Values are JSON
// encoded so struct types (user and team records) round-trip cleanly.
// Suitable for multi-instance deployments where cached session state must
// be invalidated across pods.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis cache instance on an existing client.
// The prefix namespaces keys so multiple caches can share one client.
func NewRedisCache[T any](client *redis.Client, prefix string) *RedisCache[T] {
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisCache[T]) key(key string) string {
	return r.prefix + ":" + key
}

// Get retrieves a value from cache.
func (r *RedisCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return value, nil
}

// Set stores a value in cache with TTL.
func (r *RedisCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a key from cache.
func (r *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Close is a no-op: the underlying client is shared and closed by the owner.
func (r *RedisCache[T]) Close() error {
	return nil
}

// Health checks if the cache backend is reachable.
func (r *RedisCache[T]) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
