package dto

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
)

// TrialBalanceRequest asks for balances as of a point in time; the current
// cached balances are used when AsOf is absent.
type TrialBalanceRequest struct {
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
}

// NetChangeRequest asks for per-account net change over a fiscal year.
// Accounts is a comma separated list; empty means every account.
type NetChangeRequest struct {
	FiscalYearID string `form:"fiscalYearId" binding:"required"`
	Accounts     string `form:"accounts"`
}

// Parse returns the fiscal year id and account codes.
func (r *NetChangeRequest) Parse() (id.ID, []string, error) {
	fyID, err := id.Parse(r.FiscalYearID)
	if err != nil {
		return id.ID{}, nil, apperror.NewValidation("invalid fiscal year id").WithDetail("field", "fiscalYearId")
	}
	var codes []string
	for _, code := range strings.Split(r.Accounts, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return fyID, codes, nil
}
