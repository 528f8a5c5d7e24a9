// Package lock defines short-lived mutual exclusion across service instances.
package lock

import (
	"context"
	"time"
)

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains named locks. Obtain fails with an apperror carrying
// CodeLockNotObtained when the key is held elsewhere past the wait budget.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// WithLock runs fn while holding key. A failed release is left to expire after ttl.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	held, err := l.Obtain(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		_ = held.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}

// ReconciliationKey is the per-account key serializing reconciliation work.
func ReconciliationKey(accountCode string) string {
	return "reconciliation:" + accountCode
}
