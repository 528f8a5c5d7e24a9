package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
	"ledger/internal/domain/reports"
	"ledger/internal/infrastructure/storage/memory"
)

func rowOf(t *testing.T, tb *reports.TrialBalance, code string) reports.TrialBalanceRow {
	t.Helper()
	for _, r := range tb.Rows {
		if r.AccountCode == code {
			return r
		}
	}
	t.Fatalf("no trial balance row for %s", code)
	return reports.TrialBalanceRow{}
}

// bookDay funds cash, pays an expense and books a sale.
func (l *ledger) bookDay(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	l.fund(t, ctx, "11110", 500000, t0)
	l.post(t, ctx, t0, debit("81000", 20000), credit("11110", 20000))
	l.post(t, ctx, t0.Add(2*time.Hour), debit("11120", 30000), credit("41000", 30000))
}

func TestReports_TrialBalance(t *testing.T) {
	l, ctx := newLedger(t)
	l.bookDay(t)

	tb, err := l.Reports.TrialBalance(ctx, nil)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced())
	assert.EqualValues(t, 530000, tb.TotalDebit)
	assert.Len(t, tb.Rows, len(DefaultChart))

	assets := rowOf(t, tb, "10000")
	assert.EqualValues(t, 510000, assets.Balance)
	assert.EqualValues(t, 510000, assets.Debit)
	assert.False(t, assets.IsPostingAccount)
	assert.Zero(t, assets.Depth)

	cash := rowOf(t, tb, "11110")
	assert.Equal(t, 3, cash.Depth)
	assert.EqualValues(t, 480000, cash.Debit)

	sales := rowOf(t, tb, "41000")
	assert.EqualValues(t, 30000, sales.Credit)
	assert.Zero(t, sales.Debit)

	asOf := t0.Add(time.Hour)
	past, err := l.Reports.TrialBalance(ctx, &asOf)
	require.NoError(t, err)
	assert.True(t, past.IsBalanced())
	assert.EqualValues(t, 500000, past.TotalDebit)
	assert.Zero(t, rowOf(t, past, "11120").Balance)
	assert.EqualValues(t, 480000, rowOf(t, past, "10000").Balance)
}

func TestReports_NegativeBalanceFlipsSide(t *testing.T) {
	l, ctx := newLedger(t)
	l.post(t, ctx, t0, debit("81000", 700), credit("11110", 700))

	tb, err := l.Reports.TrialBalance(ctx, nil)
	require.NoError(t, err)
	overdrawn := rowOf(t, tb, "11110")
	assert.EqualValues(t, -700, overdrawn.Balance)
	assert.EqualValues(t, 700, overdrawn.Credit)
	assert.Zero(t, overdrawn.Debit)
	assert.True(t, tb.IsBalanced())
}

func TestBalances_VerifyAndRecompute(t *testing.T) {
	l, ctx := newLedger(t)
	l.bookDay(t)

	report, err := l.Reports.BalanceVerification(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, len(DefaultChart), report.Accounts)

	require.NoError(t, l.store.Balances().SetBalance(ctx, "11110", 999, t0))

	report, err = l.Balances.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, []balance.Mismatch{{AccountCode: "11110", Cached: 999, Expected: 480000}}, report.Mismatches)
	assert.False(t, report.Repaired)

	report, err = l.Balances.Recompute(ctx)
	require.NoError(t, err)
	assert.True(t, report.Repaired)
	assert.EqualValues(t, 480000, l.balance(t, ctx, "11110"))

	report, err = l.Balances.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
}

func TestBalances_RollupRewritesSubtree(t *testing.T) {
	l, ctx := newLedger(t)
	l.bookDay(t)
	require.NoError(t, l.store.Balances().SetBalance(ctx, "11100", 1, t0))

	got, err := l.Balances.Rollup(ctx, "11000")
	require.NoError(t, err)
	assert.EqualValues(t, 510000, got)
	assert.EqualValues(t, 510000, l.balance(t, ctx, "11100"))
}

func TestBalances_ApplyEntryIsIdempotent(t *testing.T) {
	l, ctx := newLedger(t)
	e := l.fund(t, ctx, "11110", 500000, t0)

	stored, err := l.Journal.Get(ctx, e.Ref)
	require.NoError(t, err)
	require.NoError(t, l.Balances.ApplyEntry(ctx, e.Ref, stored.NetByAccount()))
	require.NoError(t, l.Balances.ApplyPostedLines(ctx, e.Ref, "11110", 500000, 0))

	assert.EqualValues(t, 500000, l.balance(t, ctx, "11110"))
	assert.EqualValues(t, 500000, l.balance(t, ctx, "10000"))
	assert.EqualValues(t, 500000, l.balance(t, ctx, "31000"))
}

func TestBalances_MovementWindows(t *testing.T) {
	l, ctx := newLedger(t)
	l.bookDay(t)
	cash, err := l.Accounts.Get(ctx, "11110")
	require.NoError(t, err)

	to := t0
	before, err := l.Balances.NetMovement(ctx, cash, balance.Window{To: &to})
	require.NoError(t, err)
	assert.Zero(t, before)

	through, err := l.Balances.NetMovement(ctx, cash, balance.Window{To: &to, ToInclusive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 480000, through)
}

// snapshotScope tracks whether reads happen inside a ReadOnly call.
type snapshotScope struct {
	*memory.Store
	open  bool
	reads []bool
}

func (s *snapshotScope) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Store.ReadOnly(ctx, func(ctx context.Context) error {
		s.open = true
		defer func() { s.open = false }()
		return fn(ctx)
	})
}

type scopedChart struct {
	*accounts.Service
	scope *snapshotScope
}

func (c scopedChart) Chart(ctx context.Context) (*accounts.Chart, error) {
	c.scope.reads = append(c.scope.reads, c.scope.open)
	return c.Service.Chart(ctx)
}

type scopedTotals struct {
	*memory.BalanceRepo
	scope *snapshotScope
}

func (r scopedTotals) PostedTotals(ctx context.Context) (map[string]balance.Totals, error) {
	r.scope.reads = append(r.scope.reads, r.scope.open)
	return r.BalanceRepo.PostedTotals(ctx)
}

func TestBalances_VerifyReadsOneSnapshot(t *testing.T) {
	l, ctx := newLedger(t)
	l.bookDay(t)

	scope := &snapshotScope{Store: l.store}
	deps := l.Deps
	deps.TxManager = scope
	acc := balance.NewAccumulator(
		scopedTotals{BalanceRepo: l.store.Balances(), scope: scope},
		scopedChart{Service: l.Accounts, scope: scope},
		deps,
	)

	report, err := acc.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, []bool{true, true}, scope.reads)
}
