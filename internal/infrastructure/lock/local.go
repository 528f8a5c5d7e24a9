package lock

import (
	"context"
	"sync"
	"time"

	"ledger/internal/core/apperror"
	corelock "ledger/internal/core/lock"
)

// LocalLocker serializes keys within one process. TTLs are not enforced;
// a lock is held until released.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
	wait time.Duration
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &LocalLocker{keys: make(map[string]chan struct{}), wait: wait}
}

// Obtain implements lock.Locker.
func (l *LocalLocker) Obtain(ctx context.Context, key string, _ time.Duration) (corelock.Lock, error) {
	l.mu.Lock()
	sem, ok := l.keys[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.keys[key] = sem
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		return &localLock{sem: sem}, nil
	case <-timer.C:
		return nil, apperror.NewLockNotObtained(key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type localLock struct {
	once sync.Once
	sem  chan struct{}
}

func (l *localLock) Release(context.Context) error {
	l.once.Do(func() { <-l.sem })
	return nil
}

var _ corelock.Locker = (*LocalLocker)(nil)
