// Package cash_count provides point-in-time cash counts reconciled against
// the book balance of a cash account.
package cash_count

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
)

// ReferencePrefix starts the statement reference of a cash count session.
const ReferencePrefix = "Cash Count @"

// StatementReference formats the reference of the session synthesized for a
// count taken at countTime.
func StatementReference(countTime time.Time) string {
	return ReferencePrefix + countTime.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// CashCount is a physical count of a cash account.
type CashCount struct {
	ID                      id.ID            `json:"id"`
	AccountCode             string           `json:"accountCode"`
	CountTime               time.Time        `json:"countTime"`
	CountedAmount           types.MinorUnits `json:"countedAmount"`
	Note                    string           `json:"note"`
	CreateTime              time.Time        `json:"createTime"`
	ReconciliationSessionID id.ID            `json:"reconciliationSessionId"`
}

// DiscrepancyType classifies a count in the history view.
type DiscrepancyType string

const (
	Balanced DiscrepancyType = "balanced"
	Shortage DiscrepancyType = "shortage"
	Overage  DiscrepancyType = "overage"
)

// Classify maps a signed discrepancy to its history type.
func Classify(discrepancy types.MinorUnits) DiscrepancyType {
	switch {
	case discrepancy < 0:
		return Shortage
	case discrepancy > 0:
		return Overage
	}
	return Balanced
}

// HistoryEntry is a row of cash_count_history.
type HistoryEntry struct {
	CashCount
	InternalBalance           types.MinorUnits `json:"internalBalance"`
	Discrepancy               types.MinorUnits `json:"discrepancy"`
	DiscrepancyType           DiscrepancyType  `json:"discrepancyType"`
	AdjustmentJournalEntryRef *int64           `json:"adjustmentJournalEntryRef,omitempty"`
}

// RecordInput is a count to record.
type RecordInput struct {
	AccountCode   string
	CountTime     time.Time
	CountedAmount types.MinorUnits
	Note          string
}

// Validate checks the input fields.
func (in *RecordInput) Validate() error {
	in.AccountCode = strings.TrimSpace(in.AccountCode)
	in.Note = strings.TrimSpace(in.Note)
	if in.AccountCode == "" {
		return apperror.NewValidation("account code is required").WithDetail("field", "accountCode")
	}
	if in.CountedAmount < 0 {
		return apperror.NewValidation("counted amount must not be negative").WithDetail("field", "countedAmount")
	}
	return nil
}

// Filter narrows count lists and history.
type Filter struct {
	AccountCode     string
	DiscrepancyType DiscrepancyType
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}
