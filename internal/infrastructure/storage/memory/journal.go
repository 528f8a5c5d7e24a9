package memory

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/domain/documents/journal"
)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	s *Store
}

// Journal returns the journal repository.
func (s *Store) Journal() *JournalRepo {
	return &JournalRepo{s: s}
}

func (r *JournalRepo) Create(ctx context.Context, e *journal.JournalEntry) error {
	defer r.s.write(ctx)()
	r.s.st.nextRef++
	e.Ref = r.s.st.nextRef
	stored := *e
	stored.Lines = slices.Clone(e.Lines)
	r.s.st.entries[e.Ref] = stored
	return nil
}

func (r *JournalRepo) Get(ctx context.Context, ref int64) (*journal.JournalEntry, error) {
	defer r.s.read(ctx)()
	e, ok := r.s.st.entries[ref]
	if !ok {
		return nil, apperror.NewNotFound("journal entry", ref)
	}
	e.Lines = slices.Clone(e.Lines)
	sort.Slice(e.Lines, func(i, j int) bool { return e.Lines[i].LineNumber < e.Lines[j].LineNumber })
	return &e, nil
}

func (r *JournalRepo) GetForUpdate(ctx context.Context, ref int64) (*journal.JournalEntry, error) {
	return r.Get(ctx, ref)
}

func (r *JournalRepo) List(ctx context.Context, filter journal.Filter) ([]journal.JournalEntry, int64, error) {
	defer r.s.read(ctx)()
	out := make([]journal.JournalEntry, 0)
	for _, e := range r.s.st.entries {
		if filter.Status != nil && e.Status() != *filter.Status {
			continue
		}
		if filter.SourceType != "" && e.SourceType != filter.SourceType {
			continue
		}
		if filter.From != nil && e.EntryTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.EntryTime.Before(*filter.To) {
			continue
		}
		if filter.AccountCode != "" && !slices.ContainsFunc(e.Lines, func(l journal.Line) bool {
			return l.AccountCode == filter.AccountCode
		}) {
			continue
		}
		e.Lines = nil
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryTime.Equal(out[j].EntryTime) {
			return out[i].EntryTime.After(out[j].EntryTime)
		}
		return out[i].Ref > out[j].Ref
	})
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (r *JournalRepo) AddLine(ctx context.Context, line *journal.Line) error {
	return r.InsertLines(ctx, []journal.Line{*line})
}

func (r *JournalRepo) InsertLines(ctx context.Context, lines []journal.Line) error {
	defer r.s.write(ctx)()
	for _, l := range lines {
		e, ok := r.s.st.entries[l.JournalEntryRef]
		if !ok {
			return apperror.NewNotFound("journal entry", l.JournalEntryRef)
		}
		if _, ok := r.s.st.accounts[l.AccountCode]; !ok {
			return apperror.NewNotFound("account", l.AccountCode)
		}
		if slices.ContainsFunc(e.Lines, func(x journal.Line) bool { return x.LineNumber == l.LineNumber }) {
			return apperror.NewDuplicate("journal line", "line_number", strconv.Itoa(l.LineNumber))
		}
		e.Lines = append(slices.Clone(e.Lines), l)
		r.s.st.entries[l.JournalEntryRef] = e
	}
	return nil
}

func (r *JournalRepo) DeleteLine(ctx context.Context, ref int64, lineNumber int) (bool, error) {
	defer r.s.write(ctx)()
	e, ok := r.s.st.entries[ref]
	if !ok {
		return false, nil
	}
	idx := slices.IndexFunc(e.Lines, func(l journal.Line) bool { return l.LineNumber == lineNumber })
	if idx < 0 {
		return false, nil
	}
	e.Lines = slices.Delete(slices.Clone(e.Lines), idx, idx+1)
	r.s.st.entries[ref] = e
	return true, nil
}

func (r *JournalRepo) MarkPosted(ctx context.Context, ref int64, at time.Time) error {
	defer r.s.write(ctx)()
	e, ok := r.s.st.entries[ref]
	if !ok {
		return apperror.NewNotFound("journal entry", ref)
	}
	if e.IsPosted() {
		return apperror.NewBusinessRule(apperror.CodeDocumentPosted, "journal entry is already posted").WithDetail("ref", ref)
	}
	e.PostTime = &at
	r.s.st.entries[ref] = e
	return nil
}

func (r *JournalRepo) Delete(ctx context.Context, ref int64) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.entries[ref]; !ok {
		return apperror.NewNotFound("journal entry", ref)
	}
	delete(r.s.st.entries, ref)
	return nil
}

var _ journal.Repository = (*JournalRepo)(nil)
