package document_repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/infrastructure/storage/postgres"
)

const (
	journalEntriesTable = "journal_entries"
	journalLinesTable   = "journal_entry_lines"
)

type journalEntryRow struct {
	Ref             int64  `db:"ref"`
	EntryTime       int64  `db:"entry_time"`
	Note            string `db:"note"`
	SourceType      string `db:"source_type"`
	SourceReference string `db:"source_reference"`
	CreatedBy       string `db:"created_by"`
	PostTime        *int64 `db:"post_time"`
}

func (r *journalEntryRow) toDomain() journal.JournalEntry {
	return journal.JournalEntry{
		Ref:             r.Ref,
		EntryTime:       types.FromMillis(r.EntryTime),
		Note:            r.Note,
		SourceType:      r.SourceType,
		SourceReference: r.SourceReference,
		CreatedBy:       r.CreatedBy,
		PostTime:        types.FromMillisPtr(r.PostTime),
	}
}

type journalLineRow struct {
	JournalEntryRef int64  `db:"journal_entry_ref"`
	LineNumber      int    `db:"line_number"`
	AccountCode     string `db:"account_code"`
	Debit           int64  `db:"debit"`
	Credit          int64  `db:"credit"`
	Description     string `db:"description"`
}

func (r *journalLineRow) toDomain() journal.Line {
	return journal.Line{
		JournalEntryRef: r.JournalEntryRef,
		LineNumber:      r.LineNumber,
		AccountCode:     r.AccountCode,
		Debit:           types.MinorUnits(r.Debit),
		Credit:          types.MinorUnits(r.Credit),
		Description:     r.Description,
	}
}

var (
	journalEntryColumns = postgres.ExtractDBColumns[journalEntryRow]()
	journalLineColumns  = postgres.ExtractDBColumns[journalLineRow]()
)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	baseRepo
}

var _ journal.Repository = (*JournalRepo)(nil)

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{baseRepo: newBaseRepo(txm, journalEntriesTable, journalEntryColumns)}
}

func (r *JournalRepo) Create(ctx context.Context, e *journal.JournalEntry) error {
	q := postgres.Builder().
		Insert(journalEntriesTable).
		Columns("entry_time", "note", "source_type", "source_reference", "created_by", "post_time").
		Values(types.ToMillis(e.EntryTime), e.Note, e.SourceType, e.SourceReference, e.CreatedBy, types.ToMillisPtr(e.PostTime)).
		Suffix("RETURNING ref")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build journal entry insert: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&e.Ref); err != nil {
		return postgres.MapError(fmt.Errorf("insert journal entry: %w", err), "journal entry")
	}
	return nil
}

func (r *JournalRepo) Get(ctx context.Context, ref int64) (*journal.JournalEntry, error) {
	return r.get(ctx, ref, false)
}

func (r *JournalRepo) GetForUpdate(ctx context.Context, ref int64) (*journal.JournalEntry, error) {
	return r.get(ctx, ref, true)
}

func (r *JournalRepo) get(ctx context.Context, ref int64, lock bool) (*journal.JournalEntry, error) {
	q := r.baseSelect().Where(squirrel.Eq{"ref": ref})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	querier := r.querier(ctx)
	var row journalEntryRow
	if err := postgres.Get(ctx, querier, &row, q, "journal entry", ref); err != nil {
		return nil, err
	}
	e := row.toDomain()

	linesQ := postgres.Builder().
		Select(journalLineColumns...).
		From(journalLinesTable).
		Where(squirrel.Eq{"journal_entry_ref": ref}).
		OrderBy("line_number")

	var lines []journalLineRow
	if err := postgres.Select(ctx, querier, &lines, linesQ, "journal line"); err != nil {
		return nil, err
	}
	e.Lines = make([]journal.Line, len(lines))
	for i := range lines {
		e.Lines[i] = lines[i].toDomain()
	}
	return &e, nil
}

// listQuery builds the filtered header query without ordering or paging.
func (r *JournalRepo) listQuery(filter journal.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.Status != nil {
		if *filter.Status == journal.StatusPosted {
			q = q.Where(squirrel.NotEq{"post_time": nil})
		} else {
			q = q.Where(squirrel.Eq{"post_time": nil})
		}
	}
	if filter.SourceType != "" {
		q = q.Where(squirrel.Eq{"source_type": filter.SourceType})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"entry_time": types.ToMillis(*filter.From)})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"entry_time": types.ToMillis(*filter.To)})
	}
	if filter.AccountCode != "" {
		q = q.Where(squirrel.Expr(
			"ref IN (SELECT journal_entry_ref FROM "+journalLinesTable+" WHERE account_code = ?)", filter.AccountCode))
	}
	return q
}

func (r *JournalRepo) List(ctx context.Context, filter journal.Filter) ([]journal.JournalEntry, int64, error) {
	var rows []journalEntryRow
	total, err := r.listPage(ctx, &rows, r.listQuery(filter), "journal entry",
		filter.Limit, filter.Offset, "entry_time DESC", "ref DESC")
	if err != nil {
		return nil, 0, err
	}
	out := make([]journal.JournalEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, total, nil
}

func (r *JournalRepo) AddLine(ctx context.Context, line *journal.Line) error {
	q := postgres.Builder().
		Insert(journalLinesTable).
		SetMap(postgres.StructToMap(lineRow(line)))

	if _, err := postgres.Exec(ctx, r.querier(ctx), q, "journal line"); err != nil {
		return lineError(err, line)
	}
	return nil
}

// InsertLines copies the lines of one draft in a single COPY.
func (r *JournalRepo) InsertLines(ctx context.Context, lines []journal.Line) error {
	rows := make([][]any, len(lines))
	for i := range lines {
		l := lineRow(&lines[i])
		rows[i] = []any{l.JournalEntryRef, l.LineNumber, l.AccountCode, l.Debit, l.Credit, l.Description}
	}
	if _, err := r.batch.CopyFromSlice(ctx, journalLinesTable, journalLineColumns, rows); err != nil {
		if len(lines) > 0 {
			return lineError(postgres.MapError(err, "journal line"), &lines[0])
		}
		return err
	}
	return nil
}

func lineRow(l *journal.Line) journalLineRow {
	return journalLineRow{
		JournalEntryRef: l.JournalEntryRef,
		LineNumber:      l.LineNumber,
		AccountCode:     l.AccountCode,
		Debit:           int64(l.Debit),
		Credit:          int64(l.Credit),
		Description:     l.Description,
	}
}

// lineError maps constraint failures of journal_entry_lines to the errors the
// journal service expects.
func lineError(err error, l *journal.Line) error {
	pgErr, ok := postgres.PgError(err)
	if !ok {
		return err
	}
	switch pgErr.ConstraintName {
	case "journal_entry_lines_pkey":
		return apperror.NewDuplicate("journal line", "line_number", strconv.Itoa(l.LineNumber)).WithCause(err)
	case "journal_entry_lines_account_code_fkey":
		return apperror.NewNotFound("account", l.AccountCode).WithCause(err)
	case "journal_entry_lines_journal_entry_ref_fkey":
		return apperror.NewNotFound("journal entry", l.JournalEntryRef).WithCause(err)
	}
	return err
}

func (r *JournalRepo) DeleteLine(ctx context.Context, ref int64, lineNumber int) (bool, error) {
	q := postgres.Builder().
		Delete(journalLinesTable).
		Where(squirrel.Eq{"journal_entry_ref": ref, "line_number": lineNumber})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "journal line")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *JournalRepo) MarkPosted(ctx context.Context, ref int64, at time.Time) error {
	q := postgres.Builder().
		Update(journalEntriesTable).
		Set("post_time", types.ToMillis(at)).
		Where(squirrel.Eq{"ref": ref, "post_time": nil})

	querier := r.querier(ctx)
	n, err := postgres.Exec(ctx, querier, q, "journal entry")
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Either missing or already posted.
	var row journalEntryRow
	if err := postgres.Get(ctx, querier, &row, r.baseSelect().Where(squirrel.Eq{"ref": ref}), "journal entry", ref); err != nil {
		return err
	}
	return apperror.NewBusinessRule(apperror.CodeDocumentPosted, "journal entry is already posted").WithDetail("ref", ref)
}

func (r *JournalRepo) Delete(ctx context.Context, ref int64) error {
	q := postgres.Builder().
		Delete(journalEntriesTable).
		Where(squirrel.Eq{"ref": ref})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "journal entry")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("journal entry", ref)
	}
	return nil
}
