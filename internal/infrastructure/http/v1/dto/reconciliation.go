package dto

import (
	"time"

	"ledger/internal/core/types"
	"ledger/internal/domain/documents/reconciliation"
)

// StatementItemRequest is one line of an external statement.
type StatementItemRequest struct {
	Description string           `json:"description"`
	Debit       types.MinorUnits `json:"debit"`
	Credit      types.MinorUnits `json:"credit"`
}

func (r StatementItemRequest) ToDomain() reconciliation.StatementItem {
	return reconciliation.StatementItem{Description: r.Description, Debit: r.Debit, Credit: r.Credit}
}

// BeginSessionRequest opens a draft reconciliation of one account.
type BeginSessionRequest struct {
	AccountCode             string                 `json:"accountCode" binding:"required"`
	ReconciliationTime      *time.Time             `json:"reconciliationTime"`
	StatementBeginTime      time.Time              `json:"statementBeginTime" binding:"required"`
	StatementEndTime        time.Time              `json:"statementEndTime" binding:"required"`
	StatementOpeningBalance types.MinorUnits       `json:"statementOpeningBalance"`
	StatementClosingBalance types.MinorUnits       `json:"statementClosingBalance"`
	StatementReference      string                 `json:"statementReference"`
	Items                   []StatementItemRequest `json:"items"`
}

func (r *BeginSessionRequest) ToDomain() reconciliation.BeginInput {
	in := reconciliation.BeginInput{
		AccountCode:             r.AccountCode,
		StatementBeginTime:      r.StatementBeginTime,
		StatementEndTime:        r.StatementEndTime,
		StatementOpeningBalance: r.StatementOpeningBalance,
		StatementClosingBalance: r.StatementClosingBalance,
		StatementReference:      r.StatementReference,
	}
	if r.ReconciliationTime != nil {
		in.ReconciliationTime = *r.ReconciliationTime
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, it.ToDomain())
	}
	return in
}

// SessionListRequest holds session list query parameters.
type SessionListRequest struct {
	PaginationRequest
	AccountCode string `form:"accountCode"`
	Status      string `form:"status" binding:"omitempty,oneof=draft completed"`
}

func (r *SessionListRequest) ToFilter() reconciliation.Filter {
	f := reconciliation.Filter{AccountCode: r.AccountCode, Limit: r.Limit, Offset: r.Offset}
	if r.Status != "" {
		st := reconciliation.Status(r.Status)
		f.Status = &st
	}
	return f
}

// SessionResponse adds derived fields to a session.
type SessionResponse struct {
	reconciliation.Session
	Status      reconciliation.Status `json:"status"`
	Discrepancy types.MinorUnits      `json:"discrepancy"`
}

func FromSession(s *reconciliation.Session) SessionResponse {
	return SessionResponse{Session: *s, Status: s.Status(), Discrepancy: s.Discrepancy()}
}

// SessionDetailResponse is a session with its evidence and outcome.
type SessionDetailResponse struct {
	SessionResponse
	Items         []reconciliation.StatementItem `json:"items"`
	Discrepancies []reconciliation.Discrepancy   `json:"discrepancies"`
}
