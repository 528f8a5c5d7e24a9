package journal

import (
	"context"
	"time"
)

// Repository persists journal entries and their lines.
type Repository interface {
	// Create inserts the header and assigns e.Ref.
	Create(ctx context.Context, e *JournalEntry) error

	// Get returns the entry with its lines ordered by line number.
	Get(ctx context.Context, ref int64) (*JournalEntry, error)

	// GetForUpdate is Get holding a row lock on the header.
	GetForUpdate(ctx context.Context, ref int64) (*JournalEntry, error)

	// List returns headers without lines, newest first, and the total count.
	List(ctx context.Context, filter Filter) ([]JournalEntry, int64, error)

	AddLine(ctx context.Context, line *Line) error

	// InsertLines bulk-inserts lines of one draft.
	InsertLines(ctx context.Context, lines []Line) error

	// DeleteLine returns false when the line does not exist.
	DeleteLine(ctx context.Context, ref int64, lineNumber int) (bool, error)

	MarkPosted(ctx context.Context, ref int64, at time.Time) error

	// Delete removes a draft and its lines.
	Delete(ctx context.Context, ref int64) error
}
