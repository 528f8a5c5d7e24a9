// Package accounts provides the chart of accounts: hierarchical accounts,
// normal-balance semantics, the posting/control distinction and the tag registry.
package accounts

import (
	"fmt"
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
)

// NormalBalance is the side on which an account's balance is positive.
// Stored as 0 (Debit) / 1 (Credit).
type NormalBalance int16

const (
	Debit  NormalBalance = 0
	Credit NormalBalance = 1
)

// Direction returns +1 for Debit-normal and -1 for Credit-normal accounts.
func (n NormalBalance) Direction() int64 {
	if n == Credit {
		return -1
	}
	return 1
}

func (n NormalBalance) String() string {
	if n == Credit {
		return "credit"
	}
	return "debit"
}

// Valid reports whether n is Debit or Credit.
func (n NormalBalance) Valid() bool {
	return n == Debit || n == Credit
}

// ParseNormalBalance accepts "debit" or "credit" in any case.
func ParseNormalBalance(s string) (NormalBalance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	}
	return 0, fmt.Errorf("unknown normal balance %q", s)
}

func (n NormalBalance) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *NormalBalance) UnmarshalText(b []byte) error {
	v, err := ParseNormalBalance(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Well-known tags the engine resolves accounts by.
const (
	TagCashEquivalents          = "Cash Flow - Cash Equivalents"
	TagReconciliationAdjustment = "Reconciliation - Adjustment"
	TagCashOverShort            = "Reconciliation - Cash Over/Short"
	TagInventoryGainShrinkage   = "Inventory - Gain/Shrinkage"
)

// Account is a node of the chart of accounts.
type Account struct {
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	NormalBalance      NormalBalance    `json:"normalBalance"`
	ControlAccountCode *string          `json:"controlAccountCode,omitempty"`
	IsPostingAccount   bool             `json:"isPostingAccount"`
	IsActive           bool             `json:"isActive"`
	Balance            types.MinorUnits `json:"balance"`
	CreateTime         time.Time        `json:"createTime"`
	UpdateTime         time.Time        `json:"updateTime"`
}

// Direction is the account's balance direction.
func (a *Account) Direction() int64 {
	return a.NormalBalance.Direction()
}

// Parent returns the control account code or "".
func (a *Account) Parent() string {
	if a.ControlAccountCode == nil {
		return ""
	}
	return *a.ControlAccountCode
}

// Validate checks field-level invariants.
func (a *Account) Validate() error {
	a.Code = strings.TrimSpace(a.Code)
	a.Name = strings.TrimSpace(a.Name)
	if a.Code == "" {
		return apperror.NewValidation("account code is required").WithDetail("field", "code")
	}
	if len(a.Code) > 32 {
		return apperror.NewValidation("account code is too long").WithDetail("field", "code")
	}
	if a.Name == "" {
		return apperror.NewValidation("account name is required").WithDetail("field", "name")
	}
	if !a.NormalBalance.Valid() {
		return apperror.NewValidation("normal balance must be debit or credit").WithDetail("field", "normalBalance")
	}
	if p := a.Parent(); p == a.Code {
		return apperror.NewConstraintViolation("acyclic_hierarchy", "account cannot be its own control account").
			WithDetail("account_code", a.Code)
	}
	return nil
}

// TagDefinition is a tag registry entry. Registry rows are configuration data:
// adding a unique tag needs no code change.
type TagDefinition struct {
	Tag      string `json:"tag"`
	IsUnique bool   `json:"isUnique"`
	// EligibilityRule is an optional CEL expression over `account`;
	// assignment is refused when it evaluates to false.
	EligibilityRule string `json:"eligibilityRule,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Validate checks the definition's fields.
func (d *TagDefinition) Validate() error {
	d.Tag = strings.TrimSpace(d.Tag)
	if d.Tag == "" {
		return apperror.NewValidation("tag is required").WithDetail("field", "tag")
	}
	if len(d.Tag) > 128 {
		return apperror.NewValidation("tag is too long").WithDetail("field", "tag")
	}
	return nil
}

// Filter narrows account lists.
type Filter struct {
	ControlAccountCode *string
	Tag                string
	ActiveOnly         bool
	PostingOnly        bool
	Limit              int
	Offset             int
}
