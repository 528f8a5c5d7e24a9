package cash_count

import (
	"context"

	"ledger/internal/core/id"
)

// Repository persists cash counts.
type Repository interface {
	Create(ctx context.Context, c *CashCount) error
	Get(ctx context.Context, countID id.ID) (*CashCount, error)

	// GetBySession finds the count owning a reconciliation session.
	GetBySession(ctx context.Context, sessionID id.ID) (*CashCount, error)

	List(ctx context.Context, filter Filter) ([]CashCount, int64, error)

	// History reads cash_count_history, newest first.
	History(ctx context.Context, filter Filter) ([]HistoryEntry, int64, error)
}
