// Package lock implements core/lock.Locker on Redis and in process.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"ledger/internal/core/apperror"
	corelock "ledger/internal/core/lock"
)

// DefaultWait is how long Obtain keeps retrying a held key.
const DefaultWait = 5 * time.Second

const retryBackoff = 50 * time.Millisecond

// RedisLocker obtains locks through bsm/redislock.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	wait   time.Duration
}

// NewRedisLocker creates a locker on rdb. Keys are namespaced by prefix.
func NewRedisLocker(rdb redis.UniversalClient, prefix string, wait time.Duration) *RedisLocker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix, wait: wait}
}

// Obtain implements lock.Locker.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (corelock.Lock, error) {
	retries := int(l.wait / retryBackoff)
	held, err := l.client.Obtain(ctx, l.prefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewLockNotObtained(key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return redisLock{held: held}, nil
}

type redisLock struct {
	held *redislock.Lock
}

func (r redisLock) Release(ctx context.Context) error {
	err := r.held.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

var _ corelock.Locker = (*RedisLocker)(nil)
