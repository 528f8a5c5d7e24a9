package stock_taking

import (
	"context"

	"ledger/internal/core/id"
)

// Repository persists stock takings.
type Repository interface {
	Create(ctx context.Context, st *StockTaking) error
	Get(ctx context.Context, stID id.ID) (*StockTaking, error)
	List(ctx context.Context, filter Filter) ([]StockTaking, int64, error)
}
