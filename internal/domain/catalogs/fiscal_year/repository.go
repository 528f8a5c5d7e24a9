package fiscal_year

import (
	"context"
	"time"

	"ledger/internal/core/id"
)

// Repository persists fiscal years.
type Repository interface {
	// LockTable serializes fiscal year inserts for the rest of the transaction.
	LockTable(ctx context.Context) error

	// FindOverlapping returns years intersecting [begin, end).
	FindOverlapping(ctx context.Context, begin, end time.Time) ([]FiscalYear, error)

	Create(ctx context.Context, fy *FiscalYear) error
	Get(ctx context.Context, fyID id.ID) (*FiscalYear, error)

	// Containing returns the year covering t, or NotFound.
	Containing(ctx context.Context, t time.Time) (*FiscalYear, error)

	// List returns all years ordered by begin time.
	List(ctx context.Context) ([]FiscalYear, error)
	Delete(ctx context.Context, fyID id.ID) error
}
