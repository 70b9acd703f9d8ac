// Package cache provides pluggable byte caches for slow lookups.
//
// The CLI caches PyPI responses in a file cache under the user config
// directory; the HTTP server can point the same code at Redis so
// multiple instances share one cache. NullCache disables caching
// without changing call sites.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ScopedCache prefixes every key, giving callers an isolated namespace
// within a shared backend.
type ScopedCache struct {
	inner  Cache
	prefix string
}

// NewScopedCache wraps a cache so all keys carry the given prefix.
func NewScopedCache(inner Cache, prefix string) Cache {
	return &ScopedCache{inner: inner, prefix: prefix}
}

func (c *ScopedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

func (c *ScopedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, c.prefix+key, data, ttl)
}

func (c *ScopedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Close closes the underlying cache.
func (c *ScopedCache) Close() error { return c.inner.Close() }

// Ensure ScopedCache implements Cache.
var _ Cache = (*ScopedCache)(nil)
