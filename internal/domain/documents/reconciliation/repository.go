package reconciliation

import (
	"context"
	"time"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
)

// Repository persists sessions, statement items and discrepancies.
type Repository interface {
	// Create inserts a draft. A second draft for the same account fails
	// with apperror CodeDraftSessionExists.
	Create(ctx context.Context, s *Session) error

	Get(ctx context.Context, sessionID id.ID) (*Session, error)
	GetForUpdate(ctx context.Context, sessionID id.ID) (*Session, error)

	// FindDraft returns the account's draft session or NotFound.
	FindDraft(ctx context.Context, accountCode string) (*Session, error)

	List(ctx context.Context, filter Filter) ([]Session, int64, error)

	UpdateInternal(ctx context.Context, sessionID id.ID, opening, closing types.MinorUnits) error
	MarkCompleted(ctx context.Context, sessionID id.ID, at time.Time, adjustmentRef *int64) error

	// Delete removes a draft with its statement items.
	Delete(ctx context.Context, sessionID id.ID) error

	AddStatementItems(ctx context.Context, items []StatementItem) error
	StatementItems(ctx context.Context, sessionID id.ID) ([]StatementItem, error)

	AddDiscrepancy(ctx context.Context, d *Discrepancy) error
	Discrepancies(ctx context.Context, sessionID id.ID) ([]Discrepancy, error)
}
