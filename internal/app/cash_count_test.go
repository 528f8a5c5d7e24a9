package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/documents/reconciliation"
)

func TestCashCount_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		counted       types.MinorUnits
		wantType      cash_count.DiscrepancyType
		wantDiff      types.MinorUnits
		wantCash      types.MinorUnits
		wantOverShort types.MinorUnits
		wantDebit     string
		wantCredit    string
	}{
		{name: "A balanced", counted: 500000, wantType: cash_count.Balanced, wantCash: 500000},
		{
			name: "B shortage", counted: 450000, wantType: cash_count.Shortage,
			wantDiff: -50000, wantCash: 450000, wantOverShort: 50000,
			wantDebit: "82300", wantCredit: "11110",
		},
		{
			name: "C overage", counted: 550000, wantType: cash_count.Overage,
			wantDiff: 50000, wantCash: 550000, wantOverShort: -50000,
			wantDebit: "11110", wantCredit: "82300",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ctx := newLedger(t)
			l.fund(t, ctx, "11110", 500000, t0)
			countTime := t0.Add(8 * time.Hour)

			count, session, err := l.CashCounts.Record(ctx, cash_count.RecordInput{
				AccountCode:   "11110",
				CountTime:     countTime,
				CountedAmount: tt.counted,
				Note:          "end of day",
			})
			require.NoError(t, err)

			assert.Equal(t, session.ID, count.ReconciliationSessionID)
			assert.True(t, session.IsCompleted())
			assert.Equal(t, "Cash Count @2025-03-01T17:00:00.000Z", session.StatementReference)
			assert.Equal(t, tt.wantDiff, session.Discrepancy())
			assert.Equal(t, tt.wantCash, l.balance(t, ctx, "11110"))
			assert.Equal(t, tt.wantOverShort, l.balance(t, ctx, "82300"))

			history, err := l.CashCounts.History(ctx, cash_count.Filter{AccountCode: "11110"})
			require.NoError(t, err)
			require.Len(t, history.Items, 1)
			h := history.Items[0]
			assert.Equal(t, tt.wantType, h.DiscrepancyType)
			assert.Equal(t, tt.wantDiff, h.Discrepancy)
			assert.EqualValues(t, 500000, h.InternalBalance)

			if tt.wantDiff == 0 {
				assert.Nil(t, session.AdjustmentJournalEntryRef)
				assert.Nil(t, h.AdjustmentJournalEntryRef)
				ds, err := l.Reconciliation.Discrepancies(ctx, session.ID)
				require.NoError(t, err)
				assert.Empty(t, ds)
				return
			}

			require.NotNil(t, session.AdjustmentJournalEntryRef)
			assert.Equal(t, session.AdjustmentJournalEntryRef, h.AdjustmentJournalEntryRef)

			adj, err := l.Journal.Get(ctx, *session.AdjustmentJournalEntryRef)
			require.NoError(t, err)
			assert.True(t, adj.IsPosted())
			assert.Equal(t, journal.SourceCashCount, adj.SourceType)
			assert.Equal(t, session.ID.String(), adj.SourceReference)
			assert.True(t, adj.EntryTime.Equal(countTime))
			require.Len(t, adj.Lines, 2)
			for _, line := range adj.Lines {
				if line.Debit > 0 {
					assert.Equal(t, tt.wantDebit, line.AccountCode)
					assert.Equal(t, tt.wantDiff.Abs(), line.Debit)
				} else {
					assert.Equal(t, tt.wantCredit, line.AccountCode)
					assert.Equal(t, tt.wantDiff.Abs(), line.Credit)
				}
			}

			ds, err := l.Reconciliation.Discrepancies(ctx, session.ID)
			require.NoError(t, err)
			require.Len(t, ds, 1)
			assert.Equal(t, tt.wantDiff, ds[0].DifferenceAmount)
			assert.Equal(t, reconciliation.ResolutionAdjusted, ds[0].Resolution)
		})
	}
}

func TestCashCount_RejectsDraftSession(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11110", 500000, t0)

	draft, err := l.Reconciliation.Begin(ctx, reconciliation.BeginInput{
		AccountCode:             "11110",
		StatementBeginTime:      t0.Add(-24 * time.Hour),
		StatementEndTime:        t0.Add(time.Hour),
		StatementClosingBalance: 500000,
	})
	require.NoError(t, err)

	_, _, err = l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "11110", CountTime: t0.Add(2 * time.Hour), CountedAmount: 450000})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDraftSessionExists))

	assert.EqualValues(t, 500000, l.balance(t, ctx, "11110"))
	list, err := l.CashCounts.List(ctx, cash_count.Filter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)

	require.NoError(t, l.Reconciliation.Cancel(ctx, draft.ID))
	_, _, err = l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "11110", CountTime: t0.Add(2 * time.Hour), CountedAmount: 450000})
	assert.NoError(t, err)
}

func TestCashCount_RejectsControlAndNonCashAccounts(t *testing.T) {
	l, ctx := newLedger(t)

	_, _, err := l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "11100", CountedAmount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeConstraintViolation), "control account")

	_, _, err = l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "11200", CountedAmount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotACashAccount), "untagged account")

	_, _, err = l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "99999", CountedAmount: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeConstraintViolation), "unknown account")
}

func TestCashCount_MissingOffsetAccountRollsBack(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11110", 500000, t0)
	require.NoError(t, l.Accounts.RemoveTag(ctx, "82300", accounts.TagCashOverShort))

	_, _, err := l.CashCounts.Record(ctx, cash_count.RecordInput{AccountCode: "11110", CountTime: t0.Add(time.Hour), CountedAmount: 450000})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConstraintViolation))

	sessions, err := l.Reconciliation.List(ctx, reconciliation.Filter{AccountCode: "11110"})
	require.NoError(t, err)
	assert.Zero(t, sessions.TotalCount)
	assert.EqualValues(t, 500000, l.balance(t, ctx, "11110"))
}

func TestCashCount_HistoryFilterByType(t *testing.T) {
	l, ctx := newLedger(t)
	l.fund(t, ctx, "11110", 500000, t0)

	for i, counted := range []types.MinorUnits{500000, 490000, 495000} {
		_, _, err := l.CashCounts.Record(ctx, cash_count.RecordInput{
			AccountCode:   "11110",
			CountTime:     t0.Add(time.Duration(i+1) * time.Hour),
			CountedAmount: counted,
		})
		require.NoError(t, err)
	}

	all, err := l.Reports.CashCountHistory(ctx, cash_count.Filter{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, cash_count.Overage, all.Items[0].DiscrepancyType)
	assert.Equal(t, cash_count.Shortage, all.Items[1].DiscrepancyType)
	assert.Equal(t, cash_count.Balanced, all.Items[2].DiscrepancyType)

	shortages, err := l.CashCounts.History(ctx, cash_count.Filter{DiscrepancyType: cash_count.Shortage})
	require.NoError(t, err)
	require.Len(t, shortages.Items, 1)
	assert.EqualValues(t, -10000, shortages.Items[0].Discrepancy)
	assert.EqualValues(t, 495000, l.balance(t, ctx, "11110"))
}
