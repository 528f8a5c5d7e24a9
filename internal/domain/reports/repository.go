package reports

import (
	"context"
	"time"

	"ledger/internal/domain/registers/balance"
)

// Repository defines report data access.
type Repository interface {
	// PostedTotalsAsOf sums posted lines per account with entry_time <= asOf.
	PostedTotalsAsOf(ctx context.Context, asOf time.Time) (map[string]balance.Totals, error)
}
