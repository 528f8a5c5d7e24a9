package memory

import (
	"context"
	"slices"
	"sort"

	"ledger/internal/core/apperror"
	"ledger/internal/domain/catalogs/accounts"
)

// AccountRepo implements accounts.Repository and accounts.TagRepository.
type AccountRepo struct {
	s *Store
}

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepo {
	return &AccountRepo{s: s}
}

func (r *AccountRepo) Create(ctx context.Context, acc *accounts.Account) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.accounts[acc.Code]; ok {
		return apperror.NewDuplicate("account", "code", acc.Code)
	}
	r.s.st.accounts[acc.Code] = *acc
	return nil
}

func (r *AccountRepo) Update(ctx context.Context, acc *accounts.Account) error {
	defer r.s.write(ctx)()
	cur, ok := r.s.st.accounts[acc.Code]
	if !ok {
		return apperror.NewNotFound("account", acc.Code)
	}
	cur.Name = acc.Name
	cur.IsActive = acc.IsActive
	cur.IsPostingAccount = acc.IsPostingAccount
	cur.UpdateTime = acc.UpdateTime
	r.s.st.accounts[acc.Code] = cur
	return nil
}

func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*accounts.Account, error) {
	defer r.s.read(ctx)()
	acc, ok := r.s.st.accounts[code]
	if !ok {
		return nil, apperror.NewNotFound("account", code)
	}
	return &acc, nil
}

func (r *AccountRepo) GetForUpdate(ctx context.Context, code string) (*accounts.Account, error) {
	return r.GetByCode(ctx, code)
}

func (r *AccountRepo) List(ctx context.Context, filter accounts.Filter) ([]accounts.Account, error) {
	defer r.s.read(ctx)()
	var holders map[string]struct{}
	if filter.Tag != "" {
		holders = r.s.st.tags[filter.Tag]
	}
	out := make([]accounts.Account, 0)
	for _, acc := range r.s.st.accounts {
		if filter.ControlAccountCode != nil && acc.Parent() != *filter.ControlAccountCode {
			continue
		}
		if filter.ActiveOnly && !acc.IsActive {
			continue
		}
		if filter.PostingOnly && !acc.IsPostingAccount {
			continue
		}
		if filter.Tag != "" {
			if _, ok := holders[acc.Code]; !ok {
				continue
			}
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *AccountRepo) All(ctx context.Context) ([]accounts.Account, error) {
	return r.List(ctx, accounts.Filter{})
}

func (r *AccountRepo) HasChildren(ctx context.Context, code string) (bool, error) {
	defer r.s.read(ctx)()
	for _, acc := range r.s.st.accounts {
		if acc.Parent() == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountRepo) HasLines(ctx context.Context, code string) (bool, error) {
	defer r.s.read(ctx)()
	for _, e := range r.s.st.entries {
		for _, l := range e.Lines {
			if l.AccountCode == code {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Tag registry ---

func (r *AccountRepo) SaveDefinition(ctx context.Context, def *accounts.TagDefinition) error {
	defer r.s.write(ctx)()
	r.s.st.tagDefs[def.Tag] = *def
	return nil
}

func (r *AccountRepo) GetDefinition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	defer r.s.read(ctx)()
	def, ok := r.s.st.tagDefs[tag]
	if !ok {
		return nil, apperror.NewNotFound("tag", tag)
	}
	return &def, nil
}

func (r *AccountRepo) LockDefinition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	return r.GetDefinition(ctx, tag)
}

func (r *AccountRepo) ListDefinitions(ctx context.Context) ([]accounts.TagDefinition, error) {
	defer r.s.read(ctx)()
	out := make([]accounts.TagDefinition, 0, len(r.s.st.tagDefs))
	for _, def := range r.s.st.tagDefs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (r *AccountRepo) AddTag(ctx context.Context, accountCode, tag string) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.accounts[accountCode]; !ok {
		return apperror.NewNotFound("account", accountCode)
	}
	holders, ok := r.s.st.tags[tag]
	if !ok {
		holders = make(map[string]struct{})
		r.s.st.tags[tag] = holders
	}
	holders[accountCode] = struct{}{}
	return nil
}

func (r *AccountRepo) RemoveTag(ctx context.Context, accountCode, tag string) error {
	defer r.s.write(ctx)()
	delete(r.s.st.tags[tag], accountCode)
	return nil
}

func (r *AccountRepo) RemoveTagExcept(ctx context.Context, tag, keep string) (int64, error) {
	defer r.s.write(ctx)()
	var n int64
	for code := range r.s.st.tags[tag] {
		if code != keep {
			delete(r.s.st.tags[tag], code)
			n++
		}
	}
	return n, nil
}

func (r *AccountRepo) TagsOf(ctx context.Context, accountCode string) ([]string, error) {
	defer r.s.read(ctx)()
	out := make([]string, 0)
	for tag, holders := range r.s.st.tags {
		if _, ok := holders[accountCode]; ok {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *AccountRepo) HoldersOf(ctx context.Context, tag string) ([]string, error) {
	defer r.s.read(ctx)()
	out := make([]string, 0, len(r.s.st.tags[tag]))
	for code := range r.s.st.tags[tag] {
		out = append(out, code)
	}
	slices.Sort(out)
	return out, nil
}

var (
	_ accounts.Repository    = (*AccountRepo)(nil)
	_ accounts.TagRepository = (*AccountRepo)(nil)
	_ accounts.TagRegistry   = (*AccountRepo)(nil)
)

// Definition implements accounts.TagRegistry.
func (r *AccountRepo) Definition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	return r.GetDefinition(ctx, tag)
}
