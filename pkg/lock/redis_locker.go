package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of the go-redis API the locker needs. Narrow
// on purpose so tests can fake it with redis.NewIntResult and friends.
type redisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLocker implements Locker on a shared Redis instance, which makes
// the lock visible across processes. Keys carry a "lock:" prefix and expire
// via Redis TTL, so a crashed holder releases its lock automatically.
type RedisLocker struct {
	client redisClient
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Has reports whether the named lock key exists.
func (l *RedisLocker) Has(ctx context.Context, name string) (bool, error) {
	n, err := l.client.Exists(ctx, key(name)).Result()
	if err != nil {
		return false, errors.Join(ErrLockUnavailable, err)
	}
	return n > 0, nil
}

// Set writes the lock key with the given TTL.
func (l *RedisLocker) Set(ctx context.Context, name string, ttl time.Duration) error {
	if err := l.client.Set(ctx, key(name), "true", ttl).Err(); err != nil {
		return errors.Join(ErrLockUnavailable, err)
	}
	return nil
}

// Clear deletes the lock key.
func (l *RedisLocker) Clear(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, key(name)).Err(); err != nil {
		return errors.Join(ErrLockUnavailable, err)
	}
	return nil
}

var _ Locker = (*RedisLocker)(nil)
