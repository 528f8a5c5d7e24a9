package dto

import (
	"time"

	"ledger/internal/core/types"
	"ledger/internal/domain/documents/cash_count"
)

// RecordCashCountRequest records a physical count of a cash account.
type RecordCashCountRequest struct {
	AccountCode   string           `json:"accountCode" binding:"required"`
	CountTime     time.Time        `json:"countTime" binding:"required"`
	CountedAmount types.MinorUnits `json:"countedAmount" binding:"min=0"`
	Note          string           `json:"note"`
}

func (r *RecordCashCountRequest) ToDomain() cash_count.RecordInput {
	return cash_count.RecordInput{
		AccountCode:   r.AccountCode,
		CountTime:     r.CountTime,
		CountedAmount: r.CountedAmount,
		Note:          r.Note,
	}
}

// CashCountRecordedResponse is the count with the session that booked it.
type CashCountRecordedResponse struct {
	Count   *cash_count.CashCount `json:"count"`
	Session SessionResponse       `json:"session"`
}

// CashCountListRequest holds cash count list and history query parameters.
type CashCountListRequest struct {
	PaginationRequest
	AccountCode     string     `form:"accountCode"`
	DiscrepancyType string     `form:"discrepancyType" binding:"omitempty,oneof=balanced shortage overage"`
	From            *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To              *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r *CashCountListRequest) ToFilter() cash_count.Filter {
	return cash_count.Filter{
		AccountCode:     r.AccountCode,
		DiscrepancyType: cash_count.DiscrepancyType(r.DiscrepancyType),
		From:            r.From,
		To:              r.To,
		Limit:           r.Limit,
		Offset:          r.Offset,
	}
}
