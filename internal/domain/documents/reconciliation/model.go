// Package reconciliation provides the reconciliation engine shared by bank
// reconciliation, cash counts and stock takings.
package reconciliation

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/journal"
)

// Status is derived from CompleteTime.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// Session compares an account's book movement with an external statement.
type Session struct {
	ID                        id.ID            `json:"id"`
	AccountCode               string           `json:"accountCode"`
	ReconciliationTime        time.Time        `json:"reconciliationTime"`
	StatementBeginTime        time.Time        `json:"statementBeginTime"`
	StatementEndTime          time.Time        `json:"statementEndTime"`
	StatementOpeningBalance   types.MinorUnits `json:"statementOpeningBalance"`
	StatementClosingBalance   types.MinorUnits `json:"statementClosingBalance"`
	InternalOpeningBalance    types.MinorUnits `json:"internalOpeningBalance"`
	InternalClosingBalance    types.MinorUnits `json:"internalClosingBalance"`
	StatementReference        string           `json:"statementReference"`
	CompleteTime              *time.Time       `json:"completeTime,omitempty"`
	AdjustmentJournalEntryRef *int64           `json:"adjustmentJournalEntryRef,omitempty"`
	CreateTime                time.Time        `json:"createTime"`
}

// IsCompleted reports whether the session is terminal.
func (s *Session) IsCompleted() bool {
	return s.CompleteTime != nil
}

// Status returns draft or completed.
func (s *Session) Status() Status {
	if s.IsCompleted() {
		return StatusCompleted
	}
	return StatusDraft
}

// Discrepancy is the statement-implied change minus the recorded change.
func (s *Session) Discrepancy() types.MinorUnits {
	return (s.StatementClosingBalance - s.StatementOpeningBalance) -
		(s.InternalClosingBalance - s.InternalOpeningBalance)
}

// StatementItem is line-level evidence behind a session's statement figures.
type StatementItem struct {
	SessionID   id.ID            `json:"sessionId"`
	Description string           `json:"description"`
	Debit       types.MinorUnits `json:"debit"`
	Credit      types.MinorUnits `json:"credit"`
}

// Validate checks amounts; an item carries one side only.
func (it *StatementItem) Validate() error {
	it.Description = strings.TrimSpace(it.Description)
	if it.Debit < 0 || it.Credit < 0 {
		return apperror.NewValidation("statement item amounts must not be negative")
	}
	if it.Debit != 0 && it.Credit != 0 {
		return apperror.NewValidation("statement item must have either a debit or a credit")
	}
	return nil
}

// DiscrepancyType classifies the adjustment direction.
type DiscrepancyType string

const (
	UnrecordedDebit  DiscrepancyType = "unrecorded_debit"
	UnrecordedCredit DiscrepancyType = "unrecorded_credit"
)

// ResolutionAdjusted marks a discrepancy resolved by a posted adjustment.
const ResolutionAdjusted = "adjusted"

// Discrepancy records a non-zero difference found at completion.
type Discrepancy struct {
	SessionID        id.ID            `json:"sessionId"`
	DiscrepancyType  DiscrepancyType  `json:"discrepancyType"`
	DifferenceAmount types.MinorUnits `json:"differenceAmount"`
	Resolution       string           `json:"resolution,omitempty"`
}

// DebitsReconciledAccount reports whether the adjustment for discrepancy
// debits the reconciled account. The adjustment always moves the book balance
// by exactly the discrepancy.
func DebitsReconciledAccount(discrepancy types.MinorUnits, nb accounts.NormalBalance) bool {
	return (discrepancy > 0) == (nb == accounts.Debit)
}

// AdjustmentLines builds the two-line adjustment of a non-zero discrepancy.
func AdjustmentLines(acc *accounts.Account, offsetCode string, discrepancy types.MinorUnits, note string) ([]journal.LineInput, DiscrepancyType) {
	amount := discrepancy.Abs()
	if DebitsReconciledAccount(discrepancy, acc.NormalBalance) {
		return []journal.LineInput{
			{AccountCode: acc.Code, Debit: amount, Description: note},
			{AccountCode: offsetCode, Credit: amount, Description: note},
		}, UnrecordedDebit
	}
	return []journal.LineInput{
		{AccountCode: acc.Code, Credit: amount, Description: note},
		{AccountCode: offsetCode, Debit: amount, Description: note},
	}, UnrecordedCredit
}

// Profile tells the engine how to book a discrepancy for one kind of session.
type Profile struct {
	SourceType string
	OffsetTag  string
	Note       string
}

// Profiles of the three session kinds.
var (
	BankProfile = Profile{
		SourceType: journal.SourceReconciliation,
		OffsetTag:  accounts.TagReconciliationAdjustment,
		Note:       "Reconciliation adjustment",
	}
	CashCountProfile = Profile{
		SourceType: journal.SourceCashCount,
		OffsetTag:  accounts.TagCashOverShort,
		Note:       "Cash over/short",
	}
	StockTakingProfile = Profile{
		SourceType: journal.SourceStockTaking,
		OffsetTag:  accounts.TagInventoryGainShrinkage,
		Note:       "Inventory gain/shrinkage",
	}
)

// BeginInput opens a bank reconciliation.
type BeginInput struct {
	AccountCode             string
	ReconciliationTime      time.Time
	StatementBeginTime      time.Time
	StatementEndTime        time.Time
	StatementOpeningBalance types.MinorUnits
	StatementClosingBalance types.MinorUnits
	StatementReference      string
	Items                   []StatementItem
}

// Validate checks the statement period.
func (in *BeginInput) Validate() error {
	in.AccountCode = strings.TrimSpace(in.AccountCode)
	in.StatementReference = strings.TrimSpace(in.StatementReference)
	if in.AccountCode == "" {
		return apperror.NewValidation("account code is required").WithDetail("field", "accountCode")
	}
	if in.StatementBeginTime.IsZero() || in.StatementEndTime.IsZero() {
		return apperror.NewValidation("statement period is required")
	}
	in.StatementBeginTime = types.TruncateMillis(in.StatementBeginTime)
	in.StatementEndTime = types.TruncateMillis(in.StatementEndTime)
	if in.StatementEndTime.Before(in.StatementBeginTime) {
		return apperror.NewValidation("statement end must not precede statement begin")
	}
	for i := range in.Items {
		if err := in.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Filter narrows session lists.
type Filter struct {
	AccountCode string
	Status      *Status
	Limit       int
	Offset      int
}
