package inventory_item

import (
	"context"
	"time"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
)

// Repository persists inventory items.
type Repository interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, itemID id.ID) (*Item, error)
	GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error)
	List(ctx context.Context, filter domain.ListFilter) ([]Item, int64, error)
	UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity, averageCost types.MinorUnits, at time.Time) error
}
