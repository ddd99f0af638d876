// Package cache provides the response cache backed by an external key/value store.
package cache

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound indicates that the key is not present in the store.
var ErrNotFound = errors.New("cache: key not found")

// Store is the external key/value store the cache reads and writes.
// Keys are literal request paths; values are raw response bodies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ResponseCache is a best-effort facade over a Store. A store failure on read
// is treated as a miss and a store failure on write is logged and swallowed:
// caching is an optimization, never a correctness requirement.
type ResponseCache struct {
	store  Store
	logger *slog.Logger
}

// New creates a ResponseCache over the given store. A nil store yields a
// disabled cache that always misses and drops writes.
func New(store Store, logger *slog.Logger) *ResponseCache {
	return &ResponseCache{
		store:  store,
		logger: logger.With("component", "response_cache"),
	}
}

// TryGet returns the cached bytes for key, or false when the key is absent or
// the store is unavailable (fail open).
func (c *ResponseCache) TryGet(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}

	value, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cache read failed, treating as miss", "key", key, "err", err)
		}
		return nil, false
	}
	return value, true
}

// Put stores value under key. Write failures are logged and swallowed.
func (c *ResponseCache) Put(ctx context.Context, key string, value []byte) {
	if c.store == nil {
		return
	}

	if err := c.store.Set(ctx, key, value); err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
	}
}
