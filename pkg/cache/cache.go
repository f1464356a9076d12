// Package cache is a pluggable string key-value cache. The interesting
// part is Fallback: a wrapper that keeps serving from an in-process
// secondary when the shared backend is down, trading staleness for
// availability. Values here are always reconstructible, so that trade is
// safe.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the key is not present. Callers treat a miss
	// as "recompute", never as a failure.
	ErrCacheMiss = errors.New("cache.miss")

	// ErrCacheUnavailable indicates the backend could not be reached.
	ErrCacheUnavailable = errors.New("cache.unavailable")
)

// Cache is the key-value contract shared by all backends.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
