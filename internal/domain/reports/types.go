// Package reports provides read-only ledger reports.
package reports

import (
	"time"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
)

// TrialBalanceRow is one account of a trial balance. Exactly one of Debit
// and Credit is non-zero for a non-zero balance.
type TrialBalanceRow struct {
	AccountCode        string                 `json:"accountCode"`
	Name               string                 `json:"name"`
	NormalBalance      accounts.NormalBalance `json:"normalBalance"`
	ControlAccountCode *string                `json:"controlAccountCode,omitempty"`
	IsPostingAccount   bool                   `json:"isPostingAccount"`
	Depth              int                    `json:"depth"`
	Balance            types.MinorUnits       `json:"balance"`
	Debit              types.MinorUnits       `json:"debit"`
	Credit             types.MinorUnits       `json:"credit"`
}

// TrialBalance lists every account's balance as of a point in time.
// Totals count posting accounts only, so control rollups are not doubled.
type TrialBalance struct {
	AsOf        *time.Time        `json:"asOf,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  types.MinorUnits  `json:"totalDebit"`
	TotalCredit types.MinorUnits  `json:"totalCredit"`
}

// IsBalanced reports whether debit and credit totals agree.
func (tb *TrialBalance) IsBalanced() bool {
	return tb.TotalDebit == tb.TotalCredit
}

// NetChangeRow is the fiscal-year net change of one account.
type NetChangeRow struct {
	AccountCode string           `json:"accountCode"`
	NetChange   types.MinorUnits `json:"netChange"`
}

// NetChange is the per-account net change over one fiscal year.
type NetChange struct {
	FiscalYearID id.ID          `json:"fiscalYearId"`
	BeginTime    time.Time      `json:"beginTime"`
	EndTime      time.Time      `json:"endTime"`
	Rows         []NetChangeRow `json:"rows"`
}
