//go:build integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/internal/domain/documents/stock_taking"
	"ledger/internal/infrastructure/cache"
	infralock "ledger/internal/infrastructure/lock"
	"ledger/internal/infrastructure/storage/postgres"
	"ledger/internal/infrastructure/storage/postgres/catalog_repo"
)

// newPostgresLedger starts a disposable PostgreSQL, migrates it and seeds
// the default chart.
func newPostgresLedger(t *testing.T) (*ledger, *postgres.TxManager, context.Context) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn, "ledger-test"))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, postgres.Migrate(ctx, pool))

	txm := postgres.NewTxManager(pool, 0)
	clock := &testClock{now: t0}

	registry := cache.NewTagRegistryCache(pool.Unwrap(), catalog_repo.NewAccountRepo(txm))
	c, err := Postgres(txm, PostgresOptions{
		Clock:    clock.Now,
		Locker:   infralock.NewLocalLocker(5 * time.Second),
		Registry: registry,
	})
	require.NoError(t, err)

	_, err = Seed(ctx, c.Accounts, DefaultChart, DefaultTags)
	require.NoError(t, err)
	require.NoError(t, registry.Start(ctx))
	t.Cleanup(registry.Stop)

	return &ledger{Container: c, clock: clock}, txm, ctx
}

func TestIntegration_Postgres_Ledger(t *testing.T) {
	l, txm, ctx := newPostgresLedger(t)

	t.Run("posting rolls up", func(t *testing.T) {
		l.fund(t, ctx, "11110", 500000, t0)
		assert.EqualValues(t, 500000, l.balance(t, ctx, "11110"))

		rollup, err := l.Balances.Rollup(ctx, "11000")
		require.NoError(t, err)
		assert.EqualValues(t, 500000, rollup)
	})

	t.Run("cash count shortage", func(t *testing.T) {
		_, session, err := l.CashCounts.Record(ctx, cash_count.RecordInput{
			AccountCode:   "11110",
			CountTime:     t0.Add(8 * time.Hour),
			CountedAmount: 450000,
		})
		require.NoError(t, err)
		assert.True(t, session.IsCompleted())
		require.NotNil(t, session.AdjustmentJournalEntryRef)
		assert.EqualValues(t, 450000, l.balance(t, ctx, "11110"))
		assert.EqualValues(t, 50000, l.balance(t, ctx, "82300"))

		history, err := l.CashCounts.History(ctx, cash_count.Filter{AccountCode: "11110"})
		require.NoError(t, err)
		require.Len(t, history.Items, 1)
		assert.Equal(t, cash_count.Shortage, history.Items[0].DiscrepancyType)
		assert.EqualValues(t, -50000, history.Items[0].Discrepancy)
	})

	t.Run("one draft per account", func(t *testing.T) {
		in := reconciliation.BeginInput{
			AccountCode:             "11120",
			StatementBeginTime:      t0.Add(-24 * time.Hour),
			StatementEndTime:        t0,
			StatementClosingBalance: 0,
		}
		draft, err := l.Reconciliation.Begin(ctx, in)
		require.NoError(t, err)

		_, err = l.Reconciliation.Begin(ctx, in)
		assert.True(t, apperror.HasCode(err, apperror.CodeDraftSessionExists))

		require.NoError(t, l.Reconciliation.Cancel(ctx, draft.ID))
	})

	t.Run("stock taking", func(t *testing.T) {
		it := &inventory_item.Item{Name: "Widget", AssetAccountCode: "11300"}
		require.NoError(t, l.Inventory.Create(ctx, it))
		_, _, err := l.Inventory.Receive(ctx, it.ID, inventory_item.ReceiveInput{
			Quantity:          types.NewQuantity(10),
			UnitCost:          1500,
			OffsetAccountCode: "21000",
			ReceiveTime:       t0,
		})
		require.NoError(t, err)

		st, _, err := l.StockTakings.Record(ctx, stock_taking.RecordInput{
			InventoryID: it.ID,
			AuditTime:   t0.Add(time.Hour),
			ActualStock: types.NewQuantity(8),
		})
		require.NoError(t, err)
		assert.Equal(t, types.NewQuantity(-2), st.StockVariance())
		assert.EqualValues(t, 12000, l.balance(t, ctx, "11300"))
	})

	t.Run("books stay consistent", func(t *testing.T) {
		tb, err := l.Reports.TrialBalance(ctx, nil)
		require.NoError(t, err)
		assert.True(t, tb.IsBalanced())

		report, err := l.Balances.Verify(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Mismatches)

		var pending int
		require.NoError(t, txm.GetQuerier(ctx).
			QueryRow(ctx, "SELECT COUNT(*) FROM sys_outbox WHERE status = 'pending'").Scan(&pending))
		assert.Positive(t, pending)
	})
}
