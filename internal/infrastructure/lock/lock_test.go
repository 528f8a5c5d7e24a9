package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	corelock "ledger/internal/core/lock"
)

func setupRedisLocker(t *testing.T, wait time.Duration) *RedisLocker {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "ledger:", wait)
}

func lockers(t *testing.T, wait time.Duration) map[string]corelock.Locker {
	return map[string]corelock.Locker{
		"redis": setupRedisLocker(t, wait),
		"local": NewLocalLocker(wait),
	}
}

func TestLocker_ObtainRelease(t *testing.T) {
	for name, l := range lockers(t, 200*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			held, err := l.Obtain(ctx, "reconciliation:11110", time.Second)
			require.NoError(t, err)
			require.NoError(t, held.Release(ctx))

			again, err := l.Obtain(ctx, "reconciliation:11110", time.Second)
			require.NoError(t, err)
			assert.NoError(t, again.Release(ctx))
		})
	}
}

func TestLocker_HeldKeyTimesOut(t *testing.T) {
	for name, l := range lockers(t, 150*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			held, err := l.Obtain(ctx, "reconciliation:11110", 5*time.Second)
			require.NoError(t, err)
			defer func() { _ = held.Release(ctx) }()

			_, err = l.Obtain(ctx, "reconciliation:11110", 5*time.Second)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeLockNotObtained))

			other, err := l.Obtain(ctx, "reconciliation:11120", 5*time.Second)
			require.NoError(t, err)
			assert.NoError(t, other.Release(ctx))
		})
	}
}

func TestWithLock_SerializesCriticalSection(t *testing.T) {
	for name, l := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			var (
				active  int32
				maxSeen int32
				wg      sync.WaitGroup
			)
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := corelock.WithLock(context.Background(), l, "reconciliation:11110", 5*time.Second, func(ctx context.Context) error {
						n := atomic.AddInt32(&active, 1)
						for {
							m := atomic.LoadInt32(&maxSeen)
							if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
								break
							}
						}
						time.Sleep(10 * time.Millisecond)
						atomic.AddInt32(&active, -1)
						return nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
		})
	}
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	l := NewLocalLocker(100 * time.Millisecond)
	ctx := context.Background()

	err := corelock.WithLock(ctx, l, "k", time.Second, func(ctx context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	held, err := l.Obtain(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.NoError(t, held.Release(ctx))
}
