// Package balance provides the account balance register: running balances,
// control-account rollups and period net change.
package balance

import (
	"context"
	"time"

	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
)

// Totals is the posted debit and credit volume of one account.
type Totals struct {
	Debit  types.MinorUnits `json:"debit"`
	Credit types.MinorUnits `json:"credit"`
}

// Net returns Debit - Credit.
func (t Totals) Net() types.MinorUnits {
	return t.Debit - t.Credit
}

// Add accumulates o into t.
func (t Totals) Add(o Totals) Totals {
	return Totals{Debit: t.Debit + o.Debit, Credit: t.Credit + o.Credit}
}

// Window bounds posted lines by their entry's entry_time.
// From is inclusive; To is exclusive unless ToInclusive is set. Nil means unbounded.
type Window struct {
	From        *time.Time
	To          *time.Time
	ToInclusive bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil {
		if w.ToInclusive {
			return !t.After(*w.To)
		}
		return t.Before(*w.To)
	}
	return true
}

// Repository is the storage side of the register. Every write method expects
// a transaction in ctx.
type Repository interface {
	// Ancestors returns the control chain of code, nearest first.
	Ancestors(ctx context.Context, code string) ([]string, error)

	// LockAccounts row-locks codes in ascending order and returns them by code.
	LockAccounts(ctx context.Context, codes []string) (map[string]*accounts.Account, error)

	// MarkApplied records that ref was applied to code. It returns false
	// when the pair was already recorded.
	MarkApplied(ctx context.Context, ref int64, code string) (bool, error)

	AddToBalance(ctx context.Context, code string, delta types.MinorUnits, at time.Time) error
	SetBalance(ctx context.Context, code string, balance types.MinorUnits, at time.Time) error

	// PostedTotals sums posted lines per account over the whole history.
	PostedTotals(ctx context.Context) (map[string]Totals, error)

	// PostedMovement sums posted lines per account for codes within w.
	PostedMovement(ctx context.Context, codes []string, w Window) (map[string]Totals, error)
}

// ChartSource loads the current chart of accounts.
type ChartSource interface {
	Chart(ctx context.Context) (*accounts.Chart, error)
}
