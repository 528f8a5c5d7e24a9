// Package journal provides the journal engine: draft and posted entries,
// the line balance invariant and the posting pipeline.
package journal

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/registers/balance"
)

// Source types tag where an entry came from.
const (
	SourceManual           = "Manual"
	SourceReconciliation   = "Reconciliation"
	SourceCashCount        = "Cash Count"
	SourceStockTaking      = "Stock Taking"
	SourceInventoryReceipt = "Inventory Receipt"
)

// Status is derived from PostTime.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// JournalEntry is a double-entry journal entry.
type JournalEntry struct {
	Ref             int64      `json:"ref"`
	EntryTime       time.Time  `json:"entryTime"`
	Note            string     `json:"note"`
	SourceType      string     `json:"sourceType"`
	SourceReference string     `json:"sourceReference"`
	CreatedBy       string     `json:"createdBy"`
	PostTime        *time.Time `json:"postTime,omitempty"`
	Lines           []Line     `json:"lines"`
}

// Line is one debit or credit of an entry.
type Line struct {
	JournalEntryRef int64            `json:"journalEntryRef"`
	LineNumber      int              `json:"lineNumber"`
	AccountCode     string           `json:"accountCode"`
	Debit           types.MinorUnits `json:"debit"`
	Credit          types.MinorUnits `json:"credit"`
	Description     string           `json:"description,omitempty"`
}

// IsPosted reports whether the entry left Draft.
func (e *JournalEntry) IsPosted() bool {
	return e.PostTime != nil
}

// Status returns draft or posted.
func (e *JournalEntry) Status() Status {
	if e.IsPosted() {
		return StatusPosted
	}
	return StatusDraft
}

// Totals sums debits and credits over all lines.
func (e *JournalEntry) Totals() (debit, credit types.MinorUnits) {
	for _, l := range e.Lines {
		debit += l.Debit
		credit += l.Credit
	}
	return debit, credit
}

// NetByAccount groups line volume by account.
func (e *JournalEntry) NetByAccount() map[string]balance.Net {
	out := make(map[string]balance.Net)
	for _, l := range e.Lines {
		n := out[l.AccountCode]
		n.Debit += l.Debit
		n.Credit += l.Credit
		out[l.AccountCode] = n
	}
	return out
}

// NextLineNumber returns the number a new line gets.
func (e *JournalEntry) NextLineNumber() int {
	max := 0
	for _, l := range e.Lines {
		if l.LineNumber > max {
			max = l.LineNumber
		}
	}
	return max + 1
}

// CheckBalanced enforces at least two lines and debits equal to credits.
func (e *JournalEntry) CheckBalanced() error {
	if len(e.Lines) < 2 {
		return apperror.NewBusinessRule(apperror.CodeUnbalancedEntry, "journal entry needs at least two lines").
			WithDetail("ref", e.Ref).
			WithDetail("lines", len(e.Lines))
	}
	debit, credit := e.Totals()
	if debit != credit {
		return apperror.NewUnbalancedEntry(e.Ref, int64(debit), int64(credit))
	}
	return nil
}

// DraftInput opens a draft entry.
type DraftInput struct {
	EntryTime       time.Time
	Note            string
	SourceType      string
	SourceReference string
}

// Normalize trims fields and defaults the source type.
func (in *DraftInput) Normalize() error {
	if in.EntryTime.IsZero() {
		return apperror.NewValidation("entry time is required").WithDetail("field", "entryTime")
	}
	in.EntryTime = types.TruncateMillis(in.EntryTime)
	in.Note = strings.TrimSpace(in.Note)
	in.SourceType = strings.TrimSpace(in.SourceType)
	if in.SourceType == "" {
		in.SourceType = SourceManual
	}
	return nil
}

// LineInput adds a line to a draft.
type LineInput struct {
	AccountCode string
	Debit       types.MinorUnits
	Credit      types.MinorUnits
	Description string
}

// Normalize trims the account code and description, then validates.
func (in *LineInput) Normalize() error {
	in.AccountCode = strings.TrimSpace(in.AccountCode)
	in.Description = strings.TrimSpace(in.Description)
	return in.Validate()
}

// Validate enforces exactly one of debit/credit non-zero and both non-negative.
func (in LineInput) Validate() error {
	if strings.TrimSpace(in.AccountCode) == "" {
		return apperror.NewValidation("account code is required").WithDetail("field", "accountCode")
	}
	if in.Debit < 0 || in.Credit < 0 {
		return apperror.NewValidation("amounts must not be negative").
			WithDetail("debit", int64(in.Debit)).
			WithDetail("credit", int64(in.Credit))
	}
	if (in.Debit == 0) == (in.Credit == 0) {
		return apperror.NewValidation("exactly one of debit or credit must be non-zero").
			WithDetail("debit", int64(in.Debit)).
			WithDetail("credit", int64(in.Credit))
	}
	return nil
}

// Filter narrows entry lists.
type Filter struct {
	Status      *Status
	SourceType  string
	AccountCode string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
