package document_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/internal/infrastructure/storage/postgres"
)

const (
	sessionsTable       = "reconciliation_sessions"
	statementItemsTable = "reconciliation_statement_items"
	discrepanciesTable  = "reconciliation_discrepancies"
)

type sessionRow struct {
	ID                        id.ID  `db:"id"`
	AccountCode               string `db:"account_code"`
	ReconciliationTime        int64  `db:"reconciliation_time"`
	StatementBeginTime        int64  `db:"statement_begin_time"`
	StatementEndTime          int64  `db:"statement_end_time"`
	StatementOpeningBalance   int64  `db:"statement_opening_balance"`
	StatementClosingBalance   int64  `db:"statement_closing_balance"`
	InternalOpeningBalance    int64  `db:"internal_opening_balance"`
	InternalClosingBalance    int64  `db:"internal_closing_balance"`
	StatementReference        string `db:"statement_reference"`
	CompleteTime              *int64 `db:"complete_time"`
	AdjustmentJournalEntryRef *int64 `db:"adjustment_journal_entry_ref"`
	CreateTime                int64  `db:"create_time"`
}

func toSessionRow(s *reconciliation.Session) sessionRow {
	return sessionRow{
		ID:                        s.ID,
		AccountCode:               s.AccountCode,
		ReconciliationTime:        types.ToMillis(s.ReconciliationTime),
		StatementBeginTime:        types.ToMillis(s.StatementBeginTime),
		StatementEndTime:          types.ToMillis(s.StatementEndTime),
		StatementOpeningBalance:   int64(s.StatementOpeningBalance),
		StatementClosingBalance:   int64(s.StatementClosingBalance),
		InternalOpeningBalance:    int64(s.InternalOpeningBalance),
		InternalClosingBalance:    int64(s.InternalClosingBalance),
		StatementReference:        s.StatementReference,
		CompleteTime:              types.ToMillisPtr(s.CompleteTime),
		AdjustmentJournalEntryRef: s.AdjustmentJournalEntryRef,
		CreateTime:                types.ToMillis(s.CreateTime),
	}
}

func (r *sessionRow) toDomain() reconciliation.Session {
	return reconciliation.Session{
		ID:                        r.ID,
		AccountCode:               r.AccountCode,
		ReconciliationTime:        types.FromMillis(r.ReconciliationTime),
		StatementBeginTime:        types.FromMillis(r.StatementBeginTime),
		StatementEndTime:          types.FromMillis(r.StatementEndTime),
		StatementOpeningBalance:   types.MinorUnits(r.StatementOpeningBalance),
		StatementClosingBalance:   types.MinorUnits(r.StatementClosingBalance),
		InternalOpeningBalance:    types.MinorUnits(r.InternalOpeningBalance),
		InternalClosingBalance:    types.MinorUnits(r.InternalClosingBalance),
		StatementReference:        r.StatementReference,
		CompleteTime:              types.FromMillisPtr(r.CompleteTime),
		AdjustmentJournalEntryRef: r.AdjustmentJournalEntryRef,
		CreateTime:                types.FromMillis(r.CreateTime),
	}
}

type statementItemRow struct {
	SessionID   id.ID  `db:"reconciliation_session_id"`
	Description string `db:"description"`
	Debit       int64  `db:"debit"`
	Credit      int64  `db:"credit"`
}

type discrepancyRow struct {
	SessionID        id.ID   `db:"reconciliation_session_id"`
	DiscrepancyType  string  `db:"discrepancy_type"`
	DifferenceAmount int64   `db:"difference_amount"`
	Resolution       *string `db:"resolution"`
}

var (
	sessionColumns       = postgres.ExtractDBColumns[sessionRow]()
	statementItemColumns = postgres.ExtractDBColumns[statementItemRow]()
	discrepancyColumns   = postgres.ExtractDBColumns[discrepancyRow]()
)

// ReconciliationRepo implements reconciliation.Repository.
type ReconciliationRepo struct {
	baseRepo
}

var _ reconciliation.Repository = (*ReconciliationRepo)(nil)

// NewReconciliationRepo creates a new reconciliation session repository.
func NewReconciliationRepo(txm *postgres.TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{baseRepo: newBaseRepo(txm, sessionsTable, sessionColumns)}
}

// Create relies on the reconciliation_sessions_one_draft index: a second
// draft for the account fails in the database, whichever writer got there first.
func (r *ReconciliationRepo) Create(ctx context.Context, s *reconciliation.Session) error {
	err := r.insertRow(ctx, toSessionRow(s), "reconciliation session")
	if err == nil {
		return nil
	}
	if postgres.IsOneDraftViolation(err) {
		// The failed insert aborted the transaction, so the holder's id
		// cannot be looked up here.
		return apperror.NewDraftSessionExists(s.AccountCode, nil).WithCause(err)
	}
	if postgres.IsUniqueViolation(err, "reconciliation_sessions_pkey") {
		return apperror.NewDuplicate("reconciliation session", "id", s.ID.String()).WithCause(err)
	}
	if apperror.HasCode(err, apperror.CodeConstraintViolation) {
		return apperror.NewNotFound("account", s.AccountCode).WithCause(err)
	}
	return err
}

func (r *ReconciliationRepo) Get(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	return r.get(ctx, sessionID, false)
}

func (r *ReconciliationRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	return r.get(ctx, sessionID, true)
}

func (r *ReconciliationRepo) get(ctx context.Context, sessionID id.ID, lock bool) (*reconciliation.Session, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": sessionID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	var row sessionRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "reconciliation session", sessionID.String()); err != nil {
		return nil, err
	}
	s := row.toDomain()
	return &s, nil
}

func (r *ReconciliationRepo) FindDraft(ctx context.Context, accountCode string) (*reconciliation.Session, error) {
	return r.findDraft(ctx, accountCode)
}

func (r *ReconciliationRepo) findDraft(ctx context.Context, accountCode string) (*reconciliation.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"account_code": accountCode, "complete_time": nil}).
		Limit(1)
	var row sessionRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "draft reconciliation session", accountCode); err != nil {
		return nil, err
	}
	s := row.toDomain()
	return &s, nil
}

// listQuery builds the filtered session query without ordering or paging.
func (r *ReconciliationRepo) listQuery(filter reconciliation.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.AccountCode != "" {
		q = q.Where(squirrel.Eq{"account_code": filter.AccountCode})
	}
	if filter.Status != nil {
		if *filter.Status == reconciliation.StatusCompleted {
			q = q.Where(squirrel.NotEq{"complete_time": nil})
		} else {
			q = q.Where(squirrel.Eq{"complete_time": nil})
		}
	}
	return q
}

func (r *ReconciliationRepo) List(ctx context.Context, filter reconciliation.Filter) ([]reconciliation.Session, int64, error) {
	var rows []sessionRow
	total, err := r.listPage(ctx, &rows, r.listQuery(filter), "reconciliation session",
		filter.Limit, filter.Offset, "reconciliation_time DESC", "id DESC")
	if err != nil {
		return nil, 0, err
	}
	out := make([]reconciliation.Session, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, total, nil
}

func (r *ReconciliationRepo) UpdateInternal(ctx context.Context, sessionID id.ID, opening, closing types.MinorUnits) error {
	q := postgres.Builder().
		Update(sessionsTable).
		Set("internal_opening_balance", int64(opening)).
		Set("internal_closing_balance", int64(closing)).
		Where(squirrel.Eq{"id": sessionID, "complete_time": nil})

	return r.updateDraft(ctx, sessionID, q)
}

func (r *ReconciliationRepo) MarkCompleted(ctx context.Context, sessionID id.ID, at time.Time, adjustmentRef *int64) error {
	q := postgres.Builder().
		Update(sessionsTable).
		Set("complete_time", types.ToMillis(at)).
		Set("adjustment_journal_entry_ref", adjustmentRef).
		Where(squirrel.Eq{"id": sessionID, "complete_time": nil})

	return r.updateDraft(ctx, sessionID, q)
}

// updateDraft runs a write that only matches drafts and explains a miss.
func (r *ReconciliationRepo) updateDraft(ctx context.Context, sessionID id.ID, q squirrel.Sqlizer) error {
	n, err := postgres.Exec(ctx, r.querier(ctx), q, "reconciliation session")
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, sessionID); err != nil {
		return err
	}
	return apperror.NewBusinessRule(apperror.CodeSessionCompleted, "reconciliation session is already completed").
		WithDetail("session_id", sessionID.String())
}

func (r *ReconciliationRepo) Delete(ctx context.Context, sessionID id.ID) error {
	q := postgres.Builder().
		Delete(sessionsTable).
		Where(squirrel.Eq{"id": sessionID})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "reconciliation session")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("reconciliation session", sessionID.String())
	}
	return nil
}

func (r *ReconciliationRepo) AddStatementItems(ctx context.Context, items []reconciliation.StatementItem) error {
	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{it.SessionID, it.Description, int64(it.Debit), int64(it.Credit)}
	}
	if _, err := r.batch.CopyFromSlice(ctx, statementItemsTable, statementItemColumns, rows); err != nil {
		return postgres.MapError(err, "statement item")
	}
	return nil
}

func (r *ReconciliationRepo) StatementItems(ctx context.Context, sessionID id.ID) ([]reconciliation.StatementItem, error) {
	q := postgres.Builder().
		Select(statementItemColumns...).
		From(statementItemsTable).
		Where(squirrel.Eq{"reconciliation_session_id": sessionID}).
		OrderBy("item_no")

	var rows []statementItemRow
	if err := postgres.Select(ctx, r.querier(ctx), &rows, q, "statement item"); err != nil {
		return nil, err
	}
	out := make([]reconciliation.StatementItem, len(rows))
	for i, row := range rows {
		out[i] = reconciliation.StatementItem{
			SessionID:   row.SessionID,
			Description: row.Description,
			Debit:       types.MinorUnits(row.Debit),
			Credit:      types.MinorUnits(row.Credit),
		}
	}
	return out, nil
}

func (r *ReconciliationRepo) AddDiscrepancy(ctx context.Context, d *reconciliation.Discrepancy) error {
	var resolution *string
	if d.Resolution != "" {
		resolution = &d.Resolution
	}
	q := postgres.Builder().
		Insert(discrepanciesTable).
		SetMap(postgres.StructToMap(discrepancyRow{
			SessionID:        d.SessionID,
			DiscrepancyType:  string(d.DiscrepancyType),
			DifferenceAmount: int64(d.DifferenceAmount),
			Resolution:       resolution,
		}))

	_, err := postgres.Exec(ctx, r.querier(ctx), q, "reconciliation discrepancy")
	return err
}

func (r *ReconciliationRepo) Discrepancies(ctx context.Context, sessionID id.ID) ([]reconciliation.Discrepancy, error) {
	q := postgres.Builder().
		Select(discrepancyColumns...).
		From(discrepanciesTable).
		Where(squirrel.Eq{"reconciliation_session_id": sessionID}).
		OrderBy("discrepancy_no")

	var rows []discrepancyRow
	if err := postgres.Select(ctx, r.querier(ctx), &rows, q, "reconciliation discrepancy"); err != nil {
		return nil, err
	}
	out := make([]reconciliation.Discrepancy, len(rows))
	for i, row := range rows {
		out[i] = reconciliation.Discrepancy{
			SessionID:        row.SessionID,
			DiscrepancyType:  reconciliation.DiscrepancyType(row.DiscrepancyType),
			DifferenceAmount: types.MinorUnits(row.DifferenceAmount),
		}
		if row.Resolution != nil {
			out[i].Resolution = *row.Resolution
		}
	}
	return out, nil
}
