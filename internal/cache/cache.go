// Package cache holds fetched series for a fixed TTL, keyed by request
// parameters. It is an optimization only: concurrent misses on one key may
// both reach the provider.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrMiss = errors.New("cache miss")

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get decodes the value under key into dst, or returns ErrMiss.
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
	Close() error
}

// Key joins request parameters into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Fetch returns the cached value for key, or calls load, stores its result,
// and returns it. Store failures do not fail the call.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var v T
	if c == nil {
		return load(ctx)
	}
	if err := c.Get(ctx, key, &v); err == nil {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v)
	return v, nil
}

type entry struct {
	data    []byte
	expires time.Time
}
