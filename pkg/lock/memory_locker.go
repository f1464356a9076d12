package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker in-process. It only guards jobs within a
// single instance, which is enough for development and tests; deployments
// with more than one process use RedisLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// MemoryOption configures a MemoryLocker.
type MemoryOption func(*MemoryLocker)

// WithClock overrides the time source. Used in tests to simulate TTL
// expiry without sleeping.
func WithClock(clock func() time.Time) MemoryOption {
	return func(l *MemoryLocker) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker(opts ...MemoryOption) *MemoryLocker {
	l := &MemoryLocker{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Has reports whether the named lock is held and not yet expired. Expired
// entries are removed lazily here rather than by a background sweep.
func (l *MemoryLocker) Has(ctx context.Context, name string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, ok := l.held[key(name)]
	if !ok {
		return false, nil
	}
	if !l.clock().Before(expiry) {
		delete(l.held, key(name))
		return false, nil
	}
	return true, nil
}

// Set acquires the named lock until now+ttl.
func (l *MemoryLocker) Set(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held[key(name)] = l.clock().Add(ttl)
	return nil
}

// Clear releases the named lock.
func (l *MemoryLocker) Clear(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key(name))
	return nil
}

var _ Locker = (*MemoryLocker)(nil)
