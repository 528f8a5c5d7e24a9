package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/documents/reconciliation"
)

func bankStatement(open, close types.MinorUnits) reconciliation.BeginInput {
	return reconciliation.BeginInput{
		AccountCode:             "11120",
		StatementBeginTime:      t0.Add(-24 * time.Hour),
		StatementEndTime:        t0.Add(time.Hour),
		StatementOpeningBalance: open,
		StatementClosingBalance: close,
		StatementReference:      "March statement",
	}
}

func TestReconciliation_InternalFiguresFollowStatementPeriod(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11120", 50000, t0.Add(-48*time.Hour))
	l.fund(t, ctx, "11120", 100000, t0)
	l.fund(t, ctx, "11120", 7000, t0.Add(2*time.Hour))

	s, err := l.Reconciliation.Begin(ctx, bankStatement(50000, 150000))
	require.NoError(t, err)

	assert.Equal(t, reconciliation.StatusDraft, s.Status())
	assert.EqualValues(t, 50000, s.InternalOpeningBalance)
	assert.EqualValues(t, 150000, s.InternalClosingBalance)
	assert.Zero(t, s.Discrepancy())

	done, err := l.Reconciliation.Complete(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted())
	assert.Nil(t, done.AdjustmentJournalEntryRef)
	assert.EqualValues(t, 157000, l.balance(t, ctx, "11120"))

	ds, err := l.Reconciliation.Discrepancies(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestReconciliation_CompletePostsAdjustment(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11120", 100000, t0)

	s, err := l.Reconciliation.Begin(ctx, bankStatement(0, 120000))
	require.NoError(t, err)
	assert.EqualValues(t, 20000, s.Discrepancy())

	done, err := l.Reconciliation.Complete(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, done.AdjustmentJournalEntryRef)

	adj, err := l.Journal.Get(ctx, *done.AdjustmentJournalEntryRef)
	require.NoError(t, err)
	assert.Equal(t, journal.SourceReconciliation, adj.SourceType)
	assert.Equal(t, s.ID.String(), adj.SourceReference)
	assert.Contains(t, adj.Lines, journal.Line{
		JournalEntryRef: adj.Ref, LineNumber: 1, AccountCode: "11120", Debit: 20000, Description: "Reconciliation adjustment",
	})
	assert.Contains(t, adj.Lines, journal.Line{
		JournalEntryRef: adj.Ref, LineNumber: 2, AccountCode: "82400", Credit: 20000, Description: "Reconciliation adjustment",
	})

	assert.EqualValues(t, 120000, l.balance(t, ctx, "11120"))
	assert.EqualValues(t, -20000, l.balance(t, ctx, "82400"))

	ds, err := l.Reconciliation.Discrepancies(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, reconciliation.UnrecordedDebit, ds[0].DiscrepancyType)
	assert.EqualValues(t, 20000, ds[0].DifferenceAmount)

	_, err = l.Reconciliation.Complete(ctx, s.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeSessionCompleted))
	assert.True(t, apperror.HasCode(l.Reconciliation.Cancel(ctx, s.ID), apperror.CodeSessionCompleted))
}

func TestReconciliation_CompleteRefreshesInternalFigures(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11120", 100000, t0)

	s, err := l.Reconciliation.Begin(ctx, bankStatement(0, 100000))
	require.NoError(t, err)
	assert.Zero(t, s.Discrepancy())

	// A payment inside the statement period booked after the session opened.
	l.post(t, ctx, t0.Add(30*time.Minute), debit("81000", 5000), credit("11120", 5000))

	done, err := l.Reconciliation.Complete(ctx, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 95000, done.InternalClosingBalance)
	assert.EqualValues(t, 5000, done.Discrepancy())
	require.NotNil(t, done.AdjustmentJournalEntryRef)
	assert.EqualValues(t, 100000, l.balance(t, ctx, "11120"))

	stored, err := l.Reconciliation.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 95000, stored.InternalClosingBalance)
	assert.True(t, stored.IsCompleted())
}

func TestReconciliation_OneDraftPerAccount(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11120", 100000, t0)

	first, err := l.Reconciliation.Begin(ctx, bankStatement(0, 100000))
	require.NoError(t, err)

	_, err = l.Reconciliation.Begin(ctx, bankStatement(0, 100000))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDraftSessionExists))

	// Other accounts are unaffected.
	other := bankStatement(0, 0)
	other.AccountCode = "11110"
	_, err = l.Reconciliation.Begin(ctx, other)
	require.NoError(t, err)

	require.NoError(t, l.Reconciliation.Cancel(ctx, first.ID))
	_, err = l.Reconciliation.Get(ctx, first.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = l.Reconciliation.Begin(ctx, bankStatement(0, 100000))
	assert.NoError(t, err)

	status := reconciliation.StatusDraft
	drafts, err := l.Reconciliation.List(ctx, reconciliation.Filter{Status: &status})
	require.NoError(t, err)
	assert.EqualValues(t, 2, drafts.TotalCount)
}

func TestReconciliation_StatementItems(t *testing.T) {
	l, ctx := newLedger(t)

	in := bankStatement(0, 0)
	in.Items = []reconciliation.StatementItem{{Description: "opening deposit", Debit: 100}}
	s, err := l.Reconciliation.Begin(ctx, in)
	require.NoError(t, err)

	require.NoError(t, l.Reconciliation.AddStatementItem(ctx, s.ID, reconciliation.StatementItem{Description: "bank fee", Credit: 100}))
	err = l.Reconciliation.AddStatementItem(ctx, s.ID, reconciliation.StatementItem{Debit: 1, Credit: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	items, err := l.Reconciliation.StatementItems(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, s.ID, it.SessionID)
	}

	_, err = l.Reconciliation.Complete(ctx, s.ID)
	require.NoError(t, err)
	err = l.Reconciliation.AddStatementItem(ctx, s.ID, reconciliation.StatementItem{Description: "late", Debit: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeSessionCompleted))
}

func TestReconciliation_RejectsControlAccount(t *testing.T) {
	l, ctx := newLedger(t)

	in := bankStatement(0, 0)
	in.AccountCode = "11100"
	_, err := l.Reconciliation.Begin(ctx, in)
	assert.True(t, apperror.HasCode(err, apperror.CodeConstraintViolation))
}

// callLog records the order of account locks and movement reads.
type callLog struct{ calls []string }

type loggingAccounts struct {
	*accounts.Service
	log *callLog
}

func (a loggingAccounts) GetForUpdate(ctx context.Context, code string) (*accounts.Account, error) {
	a.log.calls = append(a.log.calls, "lock "+code)
	return a.Service.GetForUpdate(ctx, code)
}

type loggingMovements struct {
	*balance.Accumulator
	log *callLog
}

func (m loggingMovements) NetMovement(ctx context.Context, acc *accounts.Account, w balance.Window) (types.MinorUnits, error) {
	m.log.calls = append(m.log.calls, "movement "+acc.Code)
	return m.Accumulator.NetMovement(ctx, acc, w)
}

func TestReconciliation_CompleteLocksAccountBeforeReadingMovement(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11120", 100000, t0)

	s, err := l.Reconciliation.Begin(ctx, bankStatement(0, 100000))
	require.NoError(t, err)

	log := &callLog{}
	engine := reconciliation.NewEngine(reconciliation.Config{
		Repo:      l.store.Reconciliations(),
		Accounts:  loggingAccounts{Service: l.Accounts, log: log},
		Movements: loggingMovements{Accumulator: l.Balances, log: log},
		Journal:   l.Journal,
		Deps:      l.Deps,
	})

	done, err := engine.Complete(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, done.AdjustmentJournalEntryRef)

	require.NotEmpty(t, log.calls)
	assert.Equal(t, "lock 11120", log.calls[0])
	assert.Contains(t, log.calls, "movement 11120")
}
