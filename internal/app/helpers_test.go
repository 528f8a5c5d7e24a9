package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/internal/core/types"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/infrastructure/storage/memory"
)

// testClock is a settable clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type ledger struct {
	*Container
	store *memory.Store
	clock *testClock
}

func newLedger(t *testing.T) (*ledger, context.Context) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := &testClock{now: t0}

	c, err := InMemory(store, clock.Now)
	require.NoError(t, err)

	_, err = Seed(ctx, c.Accounts, DefaultChart, DefaultTags)
	require.NoError(t, err)

	return &ledger{Container: c, store: store, clock: clock}, ctx
}

func (l *ledger) post(t *testing.T, ctx context.Context, at time.Time, lines ...journal.LineInput) *journal.JournalEntry {
	t.Helper()
	e, err := l.Journal.PostEntry(ctx, journal.DraftInput{EntryTime: at, Note: "test"}, lines)
	require.NoError(t, err)
	return e
}

// fund moves amount from owner's capital into account.
func (l *ledger) fund(t *testing.T, ctx context.Context, account string, amount types.MinorUnits, at time.Time) *journal.JournalEntry {
	t.Helper()
	return l.post(t, ctx, at,
		journal.LineInput{AccountCode: account, Debit: amount},
		journal.LineInput{AccountCode: "31000", Credit: amount},
	)
}

func (l *ledger) balance(t *testing.T, ctx context.Context, code string) types.MinorUnits {
	t.Helper()
	acc, err := l.Accounts.Get(ctx, code)
	require.NoError(t, err)
	return acc.Balance
}

func debit(code string, amount types.MinorUnits) journal.LineInput {
	return journal.LineInput{AccountCode: code, Debit: amount}
}

func credit(code string, amount types.MinorUnits) journal.LineInput {
	return journal.LineInput{AccountCode: code, Credit: amount}
}

func ptr[T any](v T) *T { return &v }

