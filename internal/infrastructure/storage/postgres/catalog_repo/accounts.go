package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/infrastructure/storage/postgres"
)

const (
	accountsTable       = "accounts"
	accountTagsTable    = "account_tags"
	tagDefinitionsTable = "account_tag_definitions"
	journalLinesTable   = "journal_entry_lines"
)

type accountRow struct {
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

func toAccountRow(a *accounts.Account) accountRow {
	return accountRow{
		Code:               a.Code,
		Name:               a.Name,
		NormalBalance:      int16(a.NormalBalance),
		ControlAccountCode: a.ControlAccountCode,
		IsActive:           a.IsActive,
		IsPostingAccount:   a.IsPostingAccount,
		Balance:            int64(a.Balance),
		CreateTime:         types.ToMillis(a.CreateTime),
		UpdateTime:         types.ToMillis(a.UpdateTime),
	}
}

func (r *accountRow) toDomain() accounts.Account {
	return accounts.Account{
		Code:               r.Code,
		Name:               r.Name,
		NormalBalance:      accounts.NormalBalance(r.NormalBalance),
		ControlAccountCode: r.ControlAccountCode,
		IsActive:           r.IsActive,
		IsPostingAccount:   r.IsPostingAccount,
		Balance:            types.MinorUnits(r.Balance),
		CreateTime:         types.FromMillis(r.CreateTime),
		UpdateTime:         types.FromMillis(r.UpdateTime),
	}
}

type tagDefinitionRow struct {
	Tag             string `db:"tag"`
	IsUnique        bool   `db:"is_unique"`
	EligibilityRule string `db:"eligibility_rule"`
	Description     string `db:"description"`
}

var (
	accountColumns       = postgres.ExtractDBColumns[accountRow]()
	tagDefinitionColumns = postgres.ExtractDBColumns[tagDefinitionRow]()
)

// AccountRepo implements accounts.Repository and accounts.TagRepository.
type AccountRepo struct {
	baseRepo
}

var (
	_ accounts.Repository    = (*AccountRepo)(nil)
	_ accounts.TagRepository = (*AccountRepo)(nil)
	_ accounts.TagRegistry   = (*AccountRepo)(nil)
)

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{baseRepo: newBaseRepo(txm, accountsTable, accountColumns)}
}

func (r *AccountRepo) Create(ctx context.Context, acc *accounts.Account) error {
	row := toAccountRow(acc)
	if err := r.insertRow(ctx, row, "account"); err != nil {
		if postgres.IsUniqueViolation(err, "accounts_pkey") {
			return apperror.NewDuplicate("account", "code", acc.Code).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *AccountRepo) Update(ctx context.Context, acc *accounts.Account) error {
	q := postgres.Builder().
		Update(accountsTable).
		Set("name", acc.Name).
		Set("is_active", acc.IsActive).
		Set("is_posting_account", acc.IsPostingAccount).
		Set("update_time", types.ToMillis(acc.UpdateTime)).
		Where(squirrel.Eq{"account_code": acc.Code})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "account")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("account", acc.Code)
	}
	return nil
}

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*accounts.Account, error) {
	return r.get(ctx, code, false)
}

func (r *AccountRepo) GetForUpdate(ctx context.Context, code string) (*accounts.Account, error) {
	return r.get(ctx, code, true)
}

func (r *AccountRepo) get(ctx context.Context, code string, lock bool) (*accounts.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"account_code": code}).
		Limit(1)
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	var row accountRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "account", code); err != nil {
		return nil, err
	}
	acc := row.toDomain()
	return &acc, nil
}

// listQuery builds the filtered, ordered account query.
func (r *AccountRepo) listQuery(filter accounts.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.ControlAccountCode != nil {
		q = q.Where(squirrel.Eq{"control_account_code": *filter.ControlAccountCode})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.PostingOnly {
		q = q.Where(squirrel.Eq{"is_posting_account": true})
	}
	if filter.Tag != "" {
		q = q.Where(squirrel.Expr(
			"account_code IN (SELECT account_code FROM "+accountTagsTable+" WHERE tag = ?)", filter.Tag))
	}
	q = q.OrderBy("account_code")
	return postgres.Page(q, filter.Limit, filter.Offset)
}

func (r *AccountRepo) List(ctx context.Context, filter accounts.Filter) ([]accounts.Account, error) {
	var rows []accountRow
	if err := postgres.Select(ctx, r.querier(ctx), &rows, r.listQuery(filter), "account"); err != nil {
		return nil, err
	}
	out := make([]accounts.Account, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (r *AccountRepo) All(ctx context.Context) ([]accounts.Account, error) {
	return r.List(ctx, accounts.Filter{})
}

func (r *AccountRepo) HasChildren(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, postgres.Builder().
		Select("1").
		From(accountsTable).
		Where(squirrel.Eq{"control_account_code": code}))
}

func (r *AccountRepo) HasLines(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, postgres.Builder().
		Select("1").
		From(journalLinesTable).
		Where(squirrel.Eq{"account_code": code}))
}

func (r *AccountRepo) exists(ctx context.Context, sub squirrel.SelectBuilder) (bool, error) {
	sql, args, err := sub.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var found bool
	if err := r.querier(ctx).QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return found, nil
}

// --- Tag registry ---

func (r *AccountRepo) SaveDefinition(ctx context.Context, def *accounts.TagDefinition) error {
	q := postgres.Builder().
		Insert(tagDefinitionsTable).
		SetMap(postgres.StructToMap(tagDefinitionRow(*def))).
		Suffix(`ON CONFLICT (tag) DO UPDATE SET
			is_unique = EXCLUDED.is_unique,
			eligibility_rule = EXCLUDED.eligibility_rule,
			description = EXCLUDED.description`)

	_, err := postgres.Exec(ctx, r.querier(ctx), q, "tag definition")
	return err
}

func (r *AccountRepo) GetDefinition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	return r.definition(ctx, tag, false)
}

func (r *AccountRepo) LockDefinition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	return r.definition(ctx, tag, true)
}

// Definition implements accounts.TagRegistry without a cache.
func (r *AccountRepo) Definition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	return r.GetDefinition(ctx, tag)
}

func (r *AccountRepo) definition(ctx context.Context, tag string, lock bool) (*accounts.TagDefinition, error) {
	q := postgres.Builder().
		Select(tagDefinitionColumns...).
		From(tagDefinitionsTable).
		Where(squirrel.Eq{"tag": tag})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	var row tagDefinitionRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "tag", tag); err != nil {
		return nil, err
	}
	def := accounts.TagDefinition(row)
	return &def, nil
}

func (r *AccountRepo) ListDefinitions(ctx context.Context) ([]accounts.TagDefinition, error) {
	q := postgres.Builder().
		Select(tagDefinitionColumns...).
		From(tagDefinitionsTable).
		OrderBy("tag")

	var rows []tagDefinitionRow
	if err := postgres.Select(ctx, r.querier(ctx), &rows, q, "tag definition"); err != nil {
		return nil, err
	}
	out := make([]accounts.TagDefinition, len(rows))
	for i, row := range rows {
		out[i] = accounts.TagDefinition(row)
	}
	return out, nil
}

func (r *AccountRepo) AddTag(ctx context.Context, accountCode, tag string) error {
	q := postgres.Builder().
		Insert(accountTagsTable).
		Columns("account_code", "tag").
		Values(accountCode, tag).
		Suffix("ON CONFLICT (account_code, tag) DO NOTHING")

	if _, err := postgres.Exec(ctx, r.querier(ctx), q, "account tag"); err != nil {
		if apperror.HasCode(err, apperror.CodeConstraintViolation) {
			return apperror.NewNotFound("account", accountCode).WithCause(err)
		}
		return err
	}
	return nil
}

func (r *AccountRepo) RemoveTag(ctx context.Context, accountCode, tag string) error {
	q := postgres.Builder().
		Delete(accountTagsTable).
		Where(squirrel.Eq{"account_code": accountCode, "tag": tag})

	_, err := postgres.Exec(ctx, r.querier(ctx), q, "account tag")
	return err
}

func (r *AccountRepo) RemoveTagExcept(ctx context.Context, tag, keep string) (int64, error) {
	q := postgres.Builder().
		Delete(accountTagsTable).
		Where(squirrel.Eq{"tag": tag}).
		Where(squirrel.NotEq{"account_code": keep})

	return postgres.Exec(ctx, r.querier(ctx), q, "account tag")
}

func (r *AccountRepo) TagsOf(ctx context.Context, accountCode string) ([]string, error) {
	q := postgres.Builder().
		Select("tag").
		From(accountTagsTable).
		Where(squirrel.Eq{"account_code": accountCode}).
		OrderBy("tag")

	out := make([]string, 0)
	if err := postgres.Select(ctx, r.querier(ctx), &out, q, "account tag"); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccountRepo) HoldersOf(ctx context.Context, tag string) ([]string, error) {
	q := postgres.Builder().
		Select("account_code").
		From(accountTagsTable).
		Where(squirrel.Eq{"tag": tag}).
		OrderBy("account_code")

	out := make([]string, 0)
	if err := postgres.Select(ctx, r.querier(ctx), &out, q, "account tag"); err != nil {
		return nil, err
	}
	return out, nil
}
