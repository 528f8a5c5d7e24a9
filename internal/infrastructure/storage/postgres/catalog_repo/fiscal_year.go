package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/infrastructure/storage/postgres"
)

const fiscalYearsTable = "fiscal_years"

type fiscalYearRow struct {
	ID        id.ID   `db:"id"`
	BeginTime int64   `db:"begin_time"`
	EndTime   int64   `db:"end_time"`
	Name      *string `db:"name"`
}

func (r *fiscalYearRow) toDomain() fiscal_year.FiscalYear {
	return fiscal_year.FiscalYear{
		ID:        r.ID,
		BeginTime: types.FromMillis(r.BeginTime),
		EndTime:   types.FromMillis(r.EndTime),
		Name:      r.Name,
	}
}

var fiscalYearColumns = postgres.ExtractDBColumns[fiscalYearRow]()

// FiscalYearRepo implements fiscal_year.Repository.
type FiscalYearRepo struct {
	baseRepo
}

var _ fiscal_year.Repository = (*FiscalYearRepo)(nil)

// NewFiscalYearRepo creates a new fiscal year repository.
func NewFiscalYearRepo(txm *postgres.TxManager) *FiscalYearRepo {
	return &FiscalYearRepo{baseRepo: newBaseRepo(txm, fiscalYearsTable, fiscalYearColumns)}
}

// LockTable takes a transaction-scoped advisory lock, so the overlap check
// and the insert of concurrent creators run one after another.
func (r *FiscalYearRepo) LockTable(ctx context.Context) error {
	tx, err := r.txm.MustGetTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", fiscalYearsTable); err != nil {
		return fmt.Errorf("lock fiscal years: %w", err)
	}
	return nil
}

func (r *FiscalYearRepo) FindOverlapping(ctx context.Context, begin, end time.Time) ([]fiscal_year.FiscalYear, error) {
	q := r.baseSelect().
		Where(squirrel.Lt{"begin_time": types.ToMillis(end)}).
		Where(squirrel.Gt{"end_time": types.ToMillis(begin)}).
		OrderBy("begin_time")
	return r.selectYears(ctx, q)
}

func (r *FiscalYearRepo) Create(ctx context.Context, fy *fiscal_year.FiscalYear) error {
	return r.insertRow(ctx, fiscalYearRow{
		ID:        fy.ID,
		BeginTime: types.ToMillis(fy.BeginTime),
		EndTime:   types.ToMillis(fy.EndTime),
		Name:      fy.Name,
	}, "fiscal year")
}

func (r *FiscalYearRepo) Get(ctx context.Context, fyID id.ID) (*fiscal_year.FiscalYear, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": fyID})
	var row fiscalYearRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "fiscal year", fyID.String()); err != nil {
		return nil, err
	}
	fy := row.toDomain()
	return &fy, nil
}

func (r *FiscalYearRepo) Containing(ctx context.Context, t time.Time) (*fiscal_year.FiscalYear, error) {
	ms := types.ToMillis(t)
	q := r.baseSelect().
		Where(squirrel.LtOrEq{"begin_time": ms}).
		Where(squirrel.Gt{"end_time": ms}).
		Limit(1)
	var row fiscalYearRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "fiscal year", t.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	fy := row.toDomain()
	return &fy, nil
}

func (r *FiscalYearRepo) List(ctx context.Context) ([]fiscal_year.FiscalYear, error) {
	return r.selectYears(ctx, r.baseSelect().OrderBy("begin_time"))
}

func (r *FiscalYearRepo) Delete(ctx context.Context, fyID id.ID) error {
	q := postgres.Builder().
		Delete(fiscalYearsTable).
		Where(squirrel.Eq{"id": fyID})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "fiscal year")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("fiscal year", fyID.String())
	}
	return nil
}

func (r *FiscalYearRepo) selectYears(ctx context.Context, q squirrel.SelectBuilder) ([]fiscal_year.FiscalYear, error) {
	var rows []fiscalYearRow
	if err := postgres.Select(ctx, r.querier(ctx), &rows, q, "fiscal year"); err != nil {
		return nil, err
	}
	out := make([]fiscal_year.FiscalYear, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
