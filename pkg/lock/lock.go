// Package lock provides a named advisory flag with auto-expiry, used to
// keep periodic jobs from overlapping. It is deliberately not a real
// mutual-exclusion primitive: a get-then-set gap exists between Has and
// Set. That is acceptable only because the guarded jobs are idempotent and
// low-frequency; do not reach for this package to serialize anything that
// actually races.
package lock

import (
	"context"
	"errors"
	"time"
)

const keyPrefix = "lock:"

var ErrLockUnavailable = errors.New("lock.unavailable")

// Locker is the contract exposed to scheduled-job runners.
type Locker interface {
	// Has reports whether the named lock is currently held.
	Has(ctx context.Context, name string) (bool, error)

	// Set acquires the named lock for at most ttl.
	Set(ctx context.Context, name string, ttl time.Duration) error

	// Clear releases the named lock immediately.
	Clear(ctx context.Context, name string) error
}

func key(name string) string {
	return keyPrefix + name
}
