package app

import (
	"context"
	"fmt"

	"ledger/internal/core/apperror"
	"ledger/internal/domain/catalogs/accounts"
)

// SeedAccount is one row of a chart to load.
type SeedAccount struct {
	Code          string
	Name          string
	NormalBalance accounts.NormalBalance
	Parent        string
	Tags          []string
}

// DefaultTags is the tag registry loaded by Seed.
var DefaultTags = []accounts.TagDefinition{
	{
		Tag:             accounts.TagCashEquivalents,
		EligibilityRule: `account.normal_balance == "debit"`,
		Description:     "Cash and cash equivalents; eligible for cash counts",
	},
	{
		Tag:         accounts.TagReconciliationAdjustment,
		IsUnique:    true,
		Description: "Offset account of bank reconciliation adjustments",
	},
	{
		Tag:         accounts.TagCashOverShort,
		IsUnique:    true,
		Description: "Offset account of cash count shortages and overages",
	},
	{
		Tag:         accounts.TagInventoryGainShrinkage,
		IsUnique:    true,
		Description: "Offset account of stock taking variances",
	},
}

// DefaultChart is a small chart of accounts, parents before children.
var DefaultChart = []SeedAccount{
	{Code: "10000", Name: "Assets", NormalBalance: accounts.Debit},
	{Code: "11000", Name: "Current Assets", NormalBalance: accounts.Debit, Parent: "10000"},
	{Code: "11100", Name: "Cash and Cash Equivalents", NormalBalance: accounts.Debit, Parent: "11000"},
	{Code: "11110", Name: "Cash on Hand", NormalBalance: accounts.Debit, Parent: "11100", Tags: []string{accounts.TagCashEquivalents}},
	{Code: "11120", Name: "Bank - Operating Account", NormalBalance: accounts.Debit, Parent: "11100", Tags: []string{accounts.TagCashEquivalents}},
	{Code: "11200", Name: "Accounts Receivable", NormalBalance: accounts.Debit, Parent: "11000"},
	{Code: "11300", Name: "Inventory", NormalBalance: accounts.Debit, Parent: "11000"},
	{Code: "20000", Name: "Liabilities", NormalBalance: accounts.Credit},
	{Code: "21000", Name: "Accounts Payable", NormalBalance: accounts.Credit, Parent: "20000"},
	{Code: "30000", Name: "Equity", NormalBalance: accounts.Credit},
	{Code: "31000", Name: "Owner's Capital", NormalBalance: accounts.Credit, Parent: "30000"},
	{Code: "40000", Name: "Revenue", NormalBalance: accounts.Credit},
	{Code: "41000", Name: "Sales", NormalBalance: accounts.Credit, Parent: "40000"},
	{Code: "80000", Name: "Expenses", NormalBalance: accounts.Debit},
	{Code: "81000", Name: "Operating Expenses", NormalBalance: accounts.Debit, Parent: "80000"},
	{Code: "82000", Name: "Other Expenses", NormalBalance: accounts.Debit, Parent: "80000"},
	{Code: "82300", Name: "Cash Over/Short", NormalBalance: accounts.Debit, Parent: "82000", Tags: []string{accounts.TagCashOverShort}},
	{Code: "82400", Name: "Reconciliation Adjustments", NormalBalance: accounts.Debit, Parent: "82000", Tags: []string{accounts.TagReconciliationAdjustment}},
	{Code: "82500", Name: "Inventory Gain/Shrinkage", NormalBalance: accounts.Debit, Parent: "82000", Tags: []string{accounts.TagInventoryGainShrinkage}},
}

// Seed loads the tag registry and chart. Existing accounts are left as they are,
// so Seed can be rerun.
func Seed(ctx context.Context, svc *accounts.Service, chart []SeedAccount, tags []accounts.TagDefinition) (created int, err error) {
	for i := range tags {
		def := tags[i]
		if err := svc.DefineTag(ctx, &def); err != nil {
			return created, fmt.Errorf("define tag %q: %w", def.Tag, err)
		}
	}
	for _, row := range chart {
		acc := &accounts.Account{Code: row.Code, Name: row.Name, NormalBalance: row.NormalBalance}
		if row.Parent != "" {
			parent := row.Parent
			acc.ControlAccountCode = &parent
		}
		err := svc.Create(ctx, acc)
		switch {
		case apperror.HasCode(err, apperror.CodeDuplicate):
		case err != nil:
			return created, fmt.Errorf("create account %s: %w", row.Code, err)
		default:
			created++
		}
		for _, tag := range row.Tags {
			if err := svc.AssignTag(ctx, row.Code, tag); err != nil {
				return created, fmt.Errorf("tag account %s with %q: %w", row.Code, tag, err)
			}
		}
	}
	return created, nil
}
