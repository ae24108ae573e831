// Package cache provides a Redis-backed key-value cache with per-entry TTL.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache wraps a Redis client for TTL-bounded caching. Entries are never
// evicted explicitly; expiry is delegated to Redis key TTLs.
type Cache struct {
	client *redis.Client
}

// New creates a cache from a Redis URL (redis://[:password@]host:port/db).
func New(redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Cache{client: redis.NewClient(opt)}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests (miniredis).
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the value stored under key, or ErrMiss when absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Noop is a cache that stores nothing and always misses. Used when Redis
// is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Ping checks connectivity to the Redis server.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
