package dto

import (
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/journal"
)

// LineRequest is one debit or credit line.
type LineRequest struct {
	AccountCode string           `json:"accountCode" binding:"required"`
	Debit       types.MinorUnits `json:"debit"`
	Credit      types.MinorUnits `json:"credit"`
	Description string           `json:"description"`
}

func (r LineRequest) ToDomain() journal.LineInput {
	return journal.LineInput{
		AccountCode: r.AccountCode,
		Debit:       r.Debit,
		Credit:      r.Credit,
		Description: r.Description,
	}
}

// CreateEntryRequest drafts an entry. With Post set the lines are posted in
// one step and the entry never exists as a draft.
type CreateEntryRequest struct {
	EntryTime       time.Time     `json:"entryTime" binding:"required"`
	Note            string        `json:"note"`
	SourceType      string        `json:"sourceType"`
	SourceReference string        `json:"sourceReference"`
	Lines           []LineRequest `json:"lines" binding:"dive"`
	Post            bool          `json:"post"`
}

func (r *CreateEntryRequest) DraftInput() journal.DraftInput {
	return journal.DraftInput{
		EntryTime:       r.EntryTime,
		Note:            r.Note,
		SourceType:      r.SourceType,
		SourceReference: r.SourceReference,
	}
}

func (r *CreateEntryRequest) LineInputs() []journal.LineInput {
	out := make([]journal.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.ToDomain()
	}
	return out
}

// LineNumberResponse is returned after adding a line.
type LineNumberResponse struct {
	Ref        int64 `json:"ref"`
	LineNumber int   `json:"lineNumber"`
}

// RefResponse is returned after drafting an entry.
type RefResponse struct {
	Ref int64 `json:"ref"`
}

// EntryResponse adds derived status and totals to an entry.
type EntryResponse struct {
	journal.JournalEntry
	Status      journal.Status   `json:"status"`
	TotalDebit  types.MinorUnits `json:"totalDebit"`
	TotalCredit types.MinorUnits `json:"totalCredit"`
}

func FromJournalEntry(e *journal.JournalEntry) EntryResponse {
	debit, credit := e.Totals()
	return EntryResponse{JournalEntry: *e, Status: e.Status(), TotalDebit: debit, TotalCredit: credit}
}

// EntryListRequest holds journal list query parameters.
type EntryListRequest struct {
	PaginationRequest
	Status      string     `form:"status" binding:"omitempty,oneof=draft posted"`
	SourceType  string     `form:"sourceType"`
	AccountCode string     `form:"accountCode"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r *EntryListRequest) ToFilter() (journal.Filter, error) {
	f := journal.Filter{
		SourceType:  r.SourceType,
		AccountCode: r.AccountCode,
		From:        r.From,
		To:          r.To,
		Limit:       r.Limit,
		Offset:      r.Offset,
	}
	if r.Status != "" {
		st := journal.Status(r.Status)
		f.Status = &st
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return f, apperror.NewValidation("to must be after from")
	}
	return f, nil
}
