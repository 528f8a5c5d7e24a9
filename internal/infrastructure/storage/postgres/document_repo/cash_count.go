package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/infrastructure/storage/postgres"
)

const (
	cashCountsTable      = "cash_counts"
	cashCountHistoryView = "cash_count_history"
)

type cashCountRow struct {
	ID                      id.ID  `db:"id"`
	AccountCode             string `db:"account_code"`
	CountTime               int64  `db:"count_time"`
	CountedAmount           int64  `db:"counted_amount"`
	Note                    string `db:"note"`
	CreateTime              int64  `db:"create_time"`
	ReconciliationSessionID id.ID  `db:"reconciliation_session_id"`
}

func (r *cashCountRow) toDomain() cash_count.CashCount {
	return cash_count.CashCount{
		ID:                      r.ID,
		AccountCode:             r.AccountCode,
		CountTime:               types.FromMillis(r.CountTime),
		CountedAmount:           types.MinorUnits(r.CountedAmount),
		Note:                    r.Note,
		CreateTime:              types.FromMillis(r.CreateTime),
		ReconciliationSessionID: r.ReconciliationSessionID,
	}
}

type cashCountHistoryRow struct {
	ID                        id.ID  `db:"id"`
	AccountCode               string `db:"account_code"`
	CountTime                 int64  `db:"count_time"`
	CountedAmount             int64  `db:"counted_amount"`
	Note                      string `db:"note"`
	CreateTime                int64  `db:"create_time"`
	ReconciliationSessionID   id.ID  `db:"reconciliation_session_id"`
	InternalBalance           int64  `db:"internal_balance"`
	Discrepancy               int64  `db:"discrepancy"`
	DiscrepancyType           string `db:"discrepancy_type"`
	AdjustmentJournalEntryRef *int64 `db:"adjustment_journal_entry_ref"`
}

var (
	cashCountColumns        = postgres.ExtractDBColumns[cashCountRow]()
	cashCountHistoryColumns = postgres.ExtractDBColumns[cashCountHistoryRow]()
)

// CashCountRepo implements cash_count.Repository.
type CashCountRepo struct {
	baseRepo
}

var _ cash_count.Repository = (*CashCountRepo)(nil)

// NewCashCountRepo creates a new cash count repository.
func NewCashCountRepo(txm *postgres.TxManager) *CashCountRepo {
	return &CashCountRepo{baseRepo: newBaseRepo(txm, cashCountsTable, cashCountColumns)}
}

func (r *CashCountRepo) Create(ctx context.Context, c *cash_count.CashCount) error {
	return r.insertRow(ctx, cashCountRow{
		ID:                      c.ID,
		AccountCode:             c.AccountCode,
		CountTime:               types.ToMillis(c.CountTime),
		CountedAmount:           int64(c.CountedAmount),
		Note:                    c.Note,
		CreateTime:              types.ToMillis(c.CreateTime),
		ReconciliationSessionID: c.ReconciliationSessionID,
	}, "cash count")
}

func (r *CashCountRepo) Get(ctx context.Context, countID id.ID) (*cash_count.CashCount, error) {
	return r.getBy(ctx, squirrel.Eq{"id": countID}, countID.String())
}

func (r *CashCountRepo) GetBySession(ctx context.Context, sessionID id.ID) (*cash_count.CashCount, error) {
	return r.getBy(ctx, squirrel.Eq{"reconciliation_session_id": sessionID}, sessionID.String())
}

func (r *CashCountRepo) getBy(ctx context.Context, where squirrel.Eq, key string) (*cash_count.CashCount, error) {
	var row cashCountRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, r.baseSelect().Where(where), "cash count", key); err != nil {
		return nil, err
	}
	c := row.toDomain()
	return &c, nil
}

// applyCashCountFilter narrows q by the fields both lists and history support.
func applyCashCountFilter(q squirrel.SelectBuilder, filter cash_count.Filter) squirrel.SelectBuilder {
	if filter.AccountCode != "" {
		q = q.Where(squirrel.Eq{"account_code": filter.AccountCode})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"count_time": types.ToMillis(*filter.From)})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"count_time": types.ToMillis(*filter.To)})
	}
	return q
}

func (r *CashCountRepo) List(ctx context.Context, filter cash_count.Filter) ([]cash_count.CashCount, int64, error) {
	var rows []cashCountRow
	total, err := r.listPage(ctx, &rows, applyCashCountFilter(r.baseSelect(), filter), "cash count",
		filter.Limit, filter.Offset, "count_time DESC", "id DESC")
	if err != nil {
		return nil, 0, err
	}
	out := make([]cash_count.CashCount, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, total, nil
}

// historyQuery builds the filtered cash_count_history query without ordering or paging.
func historyQuery(filter cash_count.Filter) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(cashCountHistoryColumns...).
		From(cashCountHistoryView)
	q = applyCashCountFilter(q, filter)
	if filter.DiscrepancyType != "" {
		q = q.Where(squirrel.Eq{"discrepancy_type": string(filter.DiscrepancyType)})
	}
	return q
}

func (r *CashCountRepo) History(ctx context.Context, filter cash_count.Filter) ([]cash_count.HistoryEntry, int64, error) {
	var rows []cashCountHistoryRow
	total, err := r.listPage(ctx, &rows, historyQuery(filter), "cash count history",
		filter.Limit, filter.Offset, "count_time DESC", "id DESC")
	if err != nil {
		return nil, 0, err
	}
	out := make([]cash_count.HistoryEntry, len(rows))
	for i := range rows {
		row := &rows[i]
		base := cashCountRow{
			ID:                      row.ID,
			AccountCode:             row.AccountCode,
			CountTime:               row.CountTime,
			CountedAmount:           row.CountedAmount,
			Note:                    row.Note,
			CreateTime:              row.CreateTime,
			ReconciliationSessionID: row.ReconciliationSessionID,
		}
		out[i] = cash_count.HistoryEntry{
			CashCount:                 base.toDomain(),
			InternalBalance:           types.MinorUnits(row.InternalBalance),
			Discrepancy:               types.MinorUnits(row.Discrepancy),
			DiscrepancyType:           cash_count.DiscrepancyType(row.DiscrepancyType),
			AdjustmentJournalEntryRef: row.AdjustmentJournalEntryRef,
		}
	}
	return out, total, nil
}
