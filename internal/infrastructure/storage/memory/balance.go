package memory

import (
	"context"
	"sort"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
)

// BalanceRepo implements balance.Repository and reports.Repository.
type BalanceRepo struct {
	s *Store
}

// Balances returns the balance register repository.
func (s *Store) Balances() *BalanceRepo {
	return &BalanceRepo{s: s}
}

func (r *BalanceRepo) Ancestors(ctx context.Context, code string) ([]string, error) {
	defer r.s.read(ctx)()
	acc, ok := r.s.st.accounts[code]
	if !ok {
		return nil, apperror.NewNotFound("account", code)
	}
	var chain []string
	seen := map[string]bool{code: true}
	for p := acc.Parent(); p != ""; {
		if seen[p] {
			break
		}
		seen[p] = true
		chain = append(chain, p)
		parent, ok := r.s.st.accounts[p]
		if !ok {
			break
		}
		p = parent.Parent()
	}
	return chain, nil
}

func (r *BalanceRepo) LockAccounts(ctx context.Context, codes []string) (map[string]*accounts.Account, error) {
	defer r.s.read(ctx)()
	out := make(map[string]*accounts.Account, len(codes))
	for _, code := range codes {
		acc, ok := r.s.st.accounts[code]
		if !ok {
			continue
		}
		out[code] = &acc
	}
	return out, nil
}

func (r *BalanceRepo) MarkApplied(ctx context.Context, ref int64, code string) (bool, error) {
	defer r.s.write(ctx)()
	key := applicationKey{ref: ref, code: code}
	if _, ok := r.s.st.applied[key]; ok {
		return false, nil
	}
	r.s.st.applied[key] = struct{}{}
	return true, nil
}

func (r *BalanceRepo) AddToBalance(ctx context.Context, code string, delta types.MinorUnits, at time.Time) error {
	defer r.s.write(ctx)()
	acc, ok := r.s.st.accounts[code]
	if !ok {
		return apperror.NewNotFound("account", code)
	}
	acc.Balance += delta
	acc.UpdateTime = at
	r.s.st.accounts[code] = acc
	return nil
}

func (r *BalanceRepo) SetBalance(ctx context.Context, code string, bal types.MinorUnits, at time.Time) error {
	defer r.s.write(ctx)()
	acc, ok := r.s.st.accounts[code]
	if !ok {
		return apperror.NewNotFound("account", code)
	}
	acc.Balance = bal
	acc.UpdateTime = at
	r.s.st.accounts[code] = acc
	return nil
}

func (r *BalanceRepo) PostedTotals(ctx context.Context) (map[string]balance.Totals, error) {
	defer r.s.read(ctx)()
	return r.postedTotals(nil, balance.Window{}), nil
}

func (r *BalanceRepo) PostedMovement(ctx context.Context, codes []string, w balance.Window) (map[string]balance.Totals, error) {
	defer r.s.read(ctx)()
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return r.postedTotals(set, w), nil
}

// PostedTotalsAsOf implements reports.Repository.
func (r *BalanceRepo) PostedTotalsAsOf(ctx context.Context, asOf time.Time) (map[string]balance.Totals, error) {
	defer r.s.read(ctx)()
	return r.postedTotals(nil, balance.Window{To: &asOf, ToInclusive: true}), nil
}

// postedTotals expects the caller to hold the store.
func (r *BalanceRepo) postedTotals(codes map[string]bool, w balance.Window) map[string]balance.Totals {
	out := make(map[string]balance.Totals)
	refs := make([]int64, 0, len(r.s.st.entries))
	for ref := range r.s.st.entries {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	for _, ref := range refs {
		e := r.s.st.entries[ref]
		if !e.IsPosted() || !w.Contains(e.EntryTime) {
			continue
		}
		for _, l := range e.Lines {
			if codes != nil && !codes[l.AccountCode] {
				continue
			}
			out[l.AccountCode] = out[l.AccountCode].Add(balance.Totals{Debit: l.Debit, Credit: l.Credit})
		}
	}
	return out
}

var _ balance.Repository = (*BalanceRepo)(nil)
