// Package register_repo provides the PostgreSQL balance register: running
// balances on accounts, the application log and posted-line aggregates.
package register_repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
	"ledger/internal/infrastructure/storage/postgres"
)

const (
	accountsTable     = "accounts"
	applicationsTable = "balance_applications"
	entriesTable      = "journal_entries"
	linesTable        = "journal_entry_lines"

	// maxDepth bounds the ancestor walk.
	maxDepth = 64
)

const ancestorsSQL = `
WITH RECURSIVE chain AS (
    SELECT account_code, control_account_code, 0 AS depth
    FROM accounts
    WHERE account_code = $1
  UNION ALL
    SELECT a.account_code, a.control_account_code, c.depth + 1
    FROM accounts a
    JOIN chain c ON a.account_code = c.control_account_code
    WHERE c.depth < $2
)
SELECT account_code FROM chain ORDER BY depth`

type lockedAccountRow struct {
	Code               string  `db:"account_code"`
	Name               string  `db:"name"`
	NormalBalance      int16   `db:"normal_balance"`
	ControlAccountCode *string `db:"control_account_code"`
	IsActive           bool    `db:"is_active"`
	IsPostingAccount   bool    `db:"is_posting_account"`
	Balance            int64   `db:"balance"`
	CreateTime         int64   `db:"create_time"`
	UpdateTime         int64   `db:"update_time"`
}

type totalsRow struct {
	AccountCode string `db:"account_code"`
	Debit       int64  `db:"debit"`
	Credit      int64  `db:"credit"`
}

var lockedAccountColumns = postgres.ExtractDBColumns[lockedAccountRow]()

// BalanceRepo implements balance.Repository and reports.Repository.
type BalanceRepo struct {
	txm *postgres.TxManager
}

var _ balance.Repository = (*BalanceRepo)(nil)

// NewBalanceRepo creates a new balance register repository.
func NewBalanceRepo(txm *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{txm: txm}
}

func (r *BalanceRepo) Ancestors(ctx context.Context, code string) ([]string, error) {
	var chain []string
	if err := postgres.Select(ctx, r.txm.GetQuerier(ctx), &chain, squirrel.Expr(ancestorsSQL, code, maxDepth), "account"); err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, apperror.NewNotFound("account", code)
	}
	return chain[1:], nil
}

func (r *BalanceRepo) LockAccounts(ctx context.Context, codes []string) (map[string]*accounts.Account, error) {
	out := make(map[string]*accounts.Account, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)

	q := postgres.Builder().
		Select(lockedAccountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"account_code": sorted}).
		OrderBy("account_code").
		Suffix("FOR UPDATE")

	var rows []lockedAccountRow
	if err := postgres.Select(ctx, r.txm.GetQuerier(ctx), &rows, q, "account"); err != nil {
		return nil, err
	}
	for i := range rows {
		row := &rows[i]
		out[row.Code] = &accounts.Account{
			Code:               row.Code,
			Name:               row.Name,
			NormalBalance:      accounts.NormalBalance(row.NormalBalance),
			ControlAccountCode: row.ControlAccountCode,
			IsActive:           row.IsActive,
			IsPostingAccount:   row.IsPostingAccount,
			Balance:            types.MinorUnits(row.Balance),
			CreateTime:         types.FromMillis(row.CreateTime),
			UpdateTime:         types.FromMillis(row.UpdateTime),
		}
	}
	return out, nil
}

func (r *BalanceRepo) MarkApplied(ctx context.Context, ref int64, code string) (bool, error) {
	q := postgres.Builder().
		Insert(applicationsTable).
		Columns("journal_entry_ref", "account_code").
		Values(ref, code).
		Suffix("ON CONFLICT (journal_entry_ref, account_code) DO NOTHING")

	n, err := postgres.Exec(ctx, r.txm.GetQuerier(ctx), q, "balance application")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *BalanceRepo) AddToBalance(ctx context.Context, code string, delta types.MinorUnits, at time.Time) error {
	return r.updateBalance(ctx, code, squirrel.Expr("balance + ?", int64(delta)), at)
}

func (r *BalanceRepo) SetBalance(ctx context.Context, code string, bal types.MinorUnits, at time.Time) error {
	return r.updateBalance(ctx, code, int64(bal), at)
}

func (r *BalanceRepo) updateBalance(ctx context.Context, code string, value any, at time.Time) error {
	q := postgres.Builder().
		Update(accountsTable).
		Set("balance", value).
		Set("update_time", types.ToMillis(at)).
		Where(squirrel.Eq{"account_code": code})

	n, err := postgres.Exec(ctx, r.txm.GetQuerier(ctx), q, "account")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("account", code)
	}
	return nil
}

func (r *BalanceRepo) PostedTotals(ctx context.Context) (map[string]balance.Totals, error) {
	return r.totals(ctx, postedTotalsQuery(nil, balance.Window{}))
}

func (r *BalanceRepo) PostedMovement(ctx context.Context, codes []string, w balance.Window) (map[string]balance.Totals, error) {
	if len(codes) == 0 {
		return map[string]balance.Totals{}, nil
	}
	return r.totals(ctx, postedTotalsQuery(codes, w))
}

// PostedTotalsAsOf implements reports.Repository.
func (r *BalanceRepo) PostedTotalsAsOf(ctx context.Context, asOf time.Time) (map[string]balance.Totals, error) {
	return r.totals(ctx, postedTotalsQuery(nil, balance.Window{To: &asOf, ToInclusive: true}))
}

func (r *BalanceRepo) totals(ctx context.Context, q squirrel.SelectBuilder) (map[string]balance.Totals, error) {
	var rows []totalsRow
	if err := postgres.Select(ctx, r.txm.GetQuerier(ctx), &rows, q, "posted totals"); err != nil {
		return nil, fmt.Errorf("sum posted lines: %w", err)
	}
	out := make(map[string]balance.Totals, len(rows))
	for _, row := range rows {
		out[row.AccountCode] = balance.Totals{
			Debit:  types.MinorUnits(row.Debit),
			Credit: types.MinorUnits(row.Credit),
		}
	}
	return out, nil
}

// postedTotalsQuery sums posted lines per account. A nil codes slice means
// every account.
func postedTotalsQuery(codes []string, w balance.Window) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select("l.account_code", "COALESCE(SUM(l.debit), 0) AS debit", "COALESCE(SUM(l.credit), 0) AS credit").
		From(linesTable + " l").
		Join(entriesTable + " e ON e.ref = l.journal_entry_ref").
		Where(squirrel.NotEq{"e.post_time": nil})

	if codes != nil {
		q = q.Where(squirrel.Eq{"l.account_code": codes})
	}
	if w.From != nil {
		q = q.Where(squirrel.GtOrEq{"e.entry_time": types.ToMillis(*w.From)})
	}
	if w.To != nil {
		if w.ToInclusive {
			q = q.Where(squirrel.LtOrEq{"e.entry_time": types.ToMillis(*w.To)})
		} else {
			q = q.Where(squirrel.Lt{"e.entry_time": types.ToMillis(*w.To)})
		}
	}
	return q.GroupBy("l.account_code")
}
