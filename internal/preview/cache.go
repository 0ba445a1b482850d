package preview

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered cards so repeated shares of the same snap app skip
// re-rendering. A nil *Cache is valid and caches nothing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// CacheConfig holds preview cache configuration.
type CacheConfig struct {
	Enabled bool
	Addr    string
	TTL     time.Duration
}

// NewCache creates a Redis-backed card cache. Returns nil (cache disabled)
// when the config is disabled.
func NewCache(cfg CacheConfig) *Cache {
	if !cfg.Enabled {
		return nil
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		ttl:    ttl,
	}
}

func cacheKey(slug string) string {
	return "preview:card:" + slug
}

// Get returns the cached card for a slug, or (nil, false) on miss.
func (c *Cache) Get(ctx context.Context, slug string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKey(slug)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a rendered card. Failures are swallowed; the cache is an
// optimization, not a dependency.
func (c *Cache) Set(ctx context.Context, slug string, card []byte) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(slug), card, c.ttl).Err()
}

// Invalidate drops the cached card for a slug.
func (c *Cache) Invalidate(ctx context.Context, slug string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(slug)).Err()
}

// Ping checks the Redis connection. Nil caches always report healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.Join(errors.New("preview cache unreachable"), err)
	}
	return nil
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
