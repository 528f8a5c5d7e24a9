package dto

import (
	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
)

// --- Accounts ---

// CreateAccountRequest adds an account to the chart.
type CreateAccountRequest struct {
	Code               string  `json:"code" binding:"required,max=32"`
	Name               string  `json:"name" binding:"required,max=256"`
	NormalBalance      string  `json:"normalBalance" binding:"required"`
	ControlAccountCode *string `json:"controlAccountCode"`
	IsActive           *bool   `json:"isActive"`
}

// ToDomain converts the request to an account.
func (r *CreateAccountRequest) ToDomain() (*accounts.Account, error) {
	nb, err := accounts.ParseNormalBalance(r.NormalBalance)
	if err != nil {
		return nil, apperror.NewValidation("normal balance must be debit or credit").WithDetail("field", "normalBalance")
	}
	acc := &accounts.Account{
		Code:               r.Code,
		Name:               r.Name,
		NormalBalance:      nb,
		ControlAccountCode: r.ControlAccountCode,
		IsActive:           true,
	}
	if r.IsActive != nil {
		acc.IsActive = *r.IsActive
	}
	return acc, nil
}

// UpdateAccountRequest renames or (de)activates an account.
type UpdateAccountRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=256"`
	IsActive *bool   `json:"isActive"`
}

func (r *UpdateAccountRequest) ToDomain() accounts.UpdateInput {
	return accounts.UpdateInput{Name: r.Name, IsActive: r.IsActive}
}

// AccountListRequest holds account list query parameters.
type AccountListRequest struct {
	PaginationRequest
	ControlAccountCode *string `form:"controlAccountCode"`
	Tag                string  `form:"tag"`
	ActiveOnly         bool    `form:"activeOnly"`
	PostingOnly        bool    `form:"postingOnly"`
}

func (r *AccountListRequest) ToFilter() accounts.Filter {
	return accounts.Filter{
		ControlAccountCode: r.ControlAccountCode,
		Tag:                r.Tag,
		ActiveOnly:         r.ActiveOnly,
		PostingOnly:        r.PostingOnly,
		Limit:              r.Limit,
		Offset:             r.Offset,
	}
}

// AccountResponse is an account with its tags.
type AccountResponse struct {
	accounts.Account
	Tags []string `json:"tags"`
}

// RollupResponse is the aggregate balance of an account and its descendants.
type RollupResponse struct {
	Code    string           `json:"code"`
	Balance types.MinorUnits `json:"balance"`
}

// --- Tags ---

// DefineTagRequest adds or replaces a registry entry.
type DefineTagRequest struct {
	Tag             string `json:"tag" binding:"required,max=128"`
	IsUnique        bool   `json:"isUnique"`
	EligibilityRule string `json:"eligibilityRule"`
	Description     string `json:"description"`
}

func (r *DefineTagRequest) ToDomain() *accounts.TagDefinition {
	return &accounts.TagDefinition{
		Tag:             r.Tag,
		IsUnique:        r.IsUnique,
		EligibilityRule: r.EligibilityRule,
		Description:     r.Description,
	}
}

// AssignTagRequest tags an account. Unique tags move to the account.
type AssignTagRequest struct {
	Tag string `json:"tag" binding:"required"`
}
