package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/stock_taking"
	"ledger/internal/infrastructure/storage/postgres"
)

const stockTakingsTable = "stock_takings"

type stockTakingRow struct {
	ID                      id.ID  `db:"id"`
	InventoryID             id.ID  `db:"inventory_id"`
	AuditTime               int64  `db:"audit_time"`
	ExpectedStock           int64  `db:"expected_stock"`
	ActualStock             int64  `db:"actual_stock"`
	ExpectedCost            int64  `db:"expected_cost"`
	ActualCost              int64  `db:"actual_cost"`
	Note                    string `db:"note"`
	ReconciliationSessionID id.ID  `db:"reconciliation_session_id"`
	CreateTime              int64  `db:"create_time"`
}

func (r *stockTakingRow) toDomain() stock_taking.StockTaking {
	return stock_taking.StockTaking{
		ID:                      r.ID,
		InventoryID:             r.InventoryID,
		AuditTime:               types.FromMillis(r.AuditTime),
		ExpectedStock:           types.NewQuantityFromInt64Scaled(r.ExpectedStock),
		ActualStock:             types.NewQuantityFromInt64Scaled(r.ActualStock),
		ExpectedCost:            types.MinorUnits(r.ExpectedCost),
		ActualCost:              types.MinorUnits(r.ActualCost),
		Note:                    r.Note,
		ReconciliationSessionID: r.ReconciliationSessionID,
		CreateTime:              types.FromMillis(r.CreateTime),
	}
}

var stockTakingColumns = postgres.ExtractDBColumns[stockTakingRow]()

// StockTakingRepo implements stock_taking.Repository.
type StockTakingRepo struct {
	baseRepo
}

var _ stock_taking.Repository = (*StockTakingRepo)(nil)

// NewStockTakingRepo creates a new stock taking repository.
func NewStockTakingRepo(txm *postgres.TxManager) *StockTakingRepo {
	return &StockTakingRepo{baseRepo: newBaseRepo(txm, stockTakingsTable, stockTakingColumns)}
}

func (r *StockTakingRepo) Create(ctx context.Context, st *stock_taking.StockTaking) error {
	err := r.insertRow(ctx, stockTakingRow{
		ID:                      st.ID,
		InventoryID:             st.InventoryID,
		AuditTime:               types.ToMillis(st.AuditTime),
		ExpectedStock:           st.ExpectedStock.Int64Scaled(),
		ActualStock:             st.ActualStock.Int64Scaled(),
		ExpectedCost:            int64(st.ExpectedCost),
		ActualCost:              int64(st.ActualCost),
		Note:                    st.Note,
		ReconciliationSessionID: st.ReconciliationSessionID,
		CreateTime:              types.ToMillis(st.CreateTime),
	}, "stock taking")
	if pgErr, ok := postgres.PgError(err); ok && pgErr.ConstraintName == "stock_takings_inventory_id_fkey" {
		return apperror.NewNotFound("inventory item", st.InventoryID.String()).WithCause(err)
	}
	return err
}

func (r *StockTakingRepo) Get(ctx context.Context, stID id.ID) (*stock_taking.StockTaking, error) {
	var row stockTakingRow
	q := r.baseSelect().Where(squirrel.Eq{"id": stID})
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "stock taking", stID.String()); err != nil {
		return nil, err
	}
	st := row.toDomain()
	return &st, nil
}

func (r *StockTakingRepo) List(ctx context.Context, filter stock_taking.Filter) ([]stock_taking.StockTaking, int64, error) {
	q := r.baseSelect()
	if filter.InventoryID != nil {
		q = q.Where(squirrel.Eq{"inventory_id": *filter.InventoryID})
	}

	var rows []stockTakingRow
	total, err := r.listPage(ctx, &rows, q, "stock taking", filter.Limit, filter.Offset, "audit_time DESC", "id DESC")
	if err != nil {
		return nil, 0, err
	}
	out := make([]stock_taking.StockTaking, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, total, nil
}
