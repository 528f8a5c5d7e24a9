// Package tx defines the transaction boundary used by every ledger mutation.
// Services depend on these interfaces; storage packages implement them.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// fn receives a context carrying the transaction; repositories pick it up from
// there. An error from fn (or a cancelled context) rolls everything back.
// Nested calls join the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for reports that need a
// consistent snapshot across several queries.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
