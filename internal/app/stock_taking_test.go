package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/documents/stock_taking"
)

// stockedWidget creates an item on 11300 holding 10 units at 15.00.
func (l *ledger) stockedWidget(t *testing.T, ctx context.Context) *inventory_item.Item {
	t.Helper()
	it := &inventory_item.Item{Name: "Widget", AssetAccountCode: "11300"}
	require.NoError(t, l.Inventory.Create(ctx, it))
	_, entry, err := l.Inventory.Receive(ctx, it.ID, inventory_item.ReceiveInput{
		Quantity:          types.NewQuantity(10),
		UnitCost:          1500,
		OffsetAccountCode: "21000",
		ReceiveTime:       t0,
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, journal.SourceInventoryReceipt, entry.SourceType)
	return it
}

func TestInventory_ReceiveAveragesCost(t *testing.T) {
	l, ctx := newLedger(t)
	it := l.stockedWidget(t, ctx)

	item, _, err := l.Inventory.Receive(ctx, it.ID, inventory_item.ReceiveInput{
		Quantity:          types.NewQuantity(10),
		UnitCost:          2500,
		OffsetAccountCode: "21000",
		ReceiveTime:       t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(20), item.Stock)
	assert.EqualValues(t, 2000, item.AverageCost)
	assert.EqualValues(t, 40000, item.BookValue())
	assert.EqualValues(t, 40000, l.balance(t, ctx, "11300"))
	assert.EqualValues(t, 40000, l.balance(t, ctx, "21000"))
}

func TestInventory_CreateRejectsControlAccount(t *testing.T) {
	l, ctx := newLedger(t)
	err := l.Inventory.Create(ctx, &inventory_item.Item{Name: "Widget", AssetAccountCode: "11000"})
	assert.True(t, apperror.HasCode(err, apperror.CodeConstraintViolation))
}

func TestStockTaking_Record(t *testing.T) {
	tests := []struct {
		name         string
		actual       types.Quantity
		wantVariance types.MinorUnits
		wantAsset    types.MinorUnits
		wantGainLoss types.MinorUnits
		wantAdjusted bool
	}{
		{name: "matches book stock", actual: types.NewQuantity(10), wantAsset: 15000},
		{name: "shrinkage", actual: types.NewQuantity(8), wantVariance: -3000, wantAsset: 12000, wantGainLoss: 3000, wantAdjusted: true},
		{name: "gain", actual: types.NewQuantity(12), wantVariance: 3000, wantAsset: 18000, wantGainLoss: -3000, wantAdjusted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ctx := newLedger(t)
			it := l.stockedWidget(t, ctx)
			auditTime := t0.Add(2 * time.Hour)

			st, session, err := l.StockTakings.Record(ctx, stock_taking.RecordInput{
				InventoryID: it.ID,
				AuditTime:   auditTime,
				ActualStock: tt.actual,
				Note:        "quarterly count",
			})
			require.NoError(t, err)

			assert.Equal(t, types.NewQuantity(10), st.ExpectedStock)
			assert.EqualValues(t, 15000, st.ExpectedCost)
			assert.Equal(t, tt.wantVariance, st.CostVariance())
			assert.Equal(t, tt.actual-types.NewQuantity(10), st.StockVariance())
			assert.Equal(t, session.ID, st.ReconciliationSessionID)
			assert.Equal(t, stock_taking.StatementReference(it.ID, auditTime), session.StatementReference)
			assert.Equal(t, "11300", session.AccountCode)
			assert.Equal(t, tt.wantVariance, session.Discrepancy())
			assert.Equal(t, tt.wantAdjusted, session.AdjustmentJournalEntryRef != nil)

			assert.Equal(t, tt.wantAsset, l.balance(t, ctx, "11300"))
			assert.Equal(t, tt.wantGainLoss, l.balance(t, ctx, "82500"))

			item, err := l.Inventory.Get(ctx, it.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.actual, item.Stock)
			assert.EqualValues(t, 1500, item.AverageCost)
			assert.Equal(t, tt.wantAsset, item.BookValue())

			if tt.wantAdjusted {
				adj, err := l.Journal.Get(ctx, *session.AdjustmentJournalEntryRef)
				require.NoError(t, err)
				assert.Equal(t, journal.SourceStockTaking, adj.SourceType)
				assert.True(t, adj.EntryTime.Equal(auditTime))
			}
		})
	}
}

func TestStockTaking_ListAndGet(t *testing.T) {
	l, ctx := newLedger(t)
	it := l.stockedWidget(t, ctx)

	first, _, err := l.StockTakings.Record(ctx, stock_taking.RecordInput{InventoryID: it.ID, AuditTime: t0.Add(time.Hour), ActualStock: types.NewQuantity(9)})
	require.NoError(t, err)
	second, _, err := l.StockTakings.Record(ctx, stock_taking.RecordInput{InventoryID: it.ID, AuditTime: t0.Add(2 * time.Hour), ActualStock: types.NewQuantity(9)})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(9), second.ExpectedStock)
	assert.Zero(t, second.CostVariance())

	got, err := l.StockTakings.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	list, err := l.StockTakings.List(ctx, stock_taking.Filter{InventoryID: &it.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, second.ID, list.Items[0].ID)
	assert.EqualValues(t, 13500, l.balance(t, ctx, "11300"))
}

func TestStockTaking_RejectsNegativeCount(t *testing.T) {
	l, ctx := newLedger(t)
	it := l.stockedWidget(t, ctx)

	_, _, err := l.StockTakings.Record(ctx, stock_taking.RecordInput{InventoryID: it.ID, ActualStock: types.NewQuantity(-1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.EqualValues(t, 15000, l.balance(t, ctx, "11300"))
}
