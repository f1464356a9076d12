package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/inkfill/inkfill/pkg/logger"
)

// Fallback pairs a primary cache with a secondary one. Reads try the
// primary first and fall back to the secondary when the primary is
// unavailable; a miss on the primary is a miss, not a failure. Writes
// go to both so the secondary stays warm enough to serve during a
// primary outage.
type Fallback struct {
	primary   Cache
	secondary Cache
	log       *slog.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithFallbackLogger sets the logger used to report degraded reads.
func WithFallbackLogger(log *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.log = log
	}
}

// NewFallback wraps primary with secondary as a degraded-mode backstop.
func NewFallback(primary, secondary Cache, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get reads from the primary, falling back to the secondary only when
// the primary is unavailable.
func (f *Fallback) Get(ctx context.Context, key string) (string, error) {
	val, err := f.primary.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if errors.Is(err, ErrCacheMiss) {
		return "", ErrCacheMiss
	}
	f.log.WarnContext(ctx, "primary cache unavailable, serving from fallback",
		slog.String("key", key),
		logger.Error(err))
	return f.secondary.Get(ctx, key)
}

// Set writes to both caches. The write succeeds if either cache
// accepts it; a dual failure returns the joined errors.
func (f *Fallback) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	primaryErr := f.primary.Set(ctx, key, value, ttl)
	secondaryErr := f.secondary.Set(ctx, key, value, ttl)
	if primaryErr != nil && secondaryErr != nil {
		return errors.Join(primaryErr, secondaryErr)
	}
	if primaryErr != nil {
		f.log.WarnContext(ctx, "primary cache write failed, fallback holds the value",
			slog.String("key", key),
			logger.Error(primaryErr))
	}
	return nil
}

// Delete removes the key from both caches.
func (f *Fallback) Delete(ctx context.Context, key string) error {
	primaryErr := f.primary.Delete(ctx, key)
	secondaryErr := f.secondary.Delete(ctx, key)
	if primaryErr != nil && secondaryErr != nil {
		return errors.Join(primaryErr, secondaryErr)
	}
	return nil
}

var _ Cache = (*Fallback)(nil)
