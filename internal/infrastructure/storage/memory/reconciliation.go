package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/documents/reconciliation"
)

// ReconciliationRepo implements reconciliation.Repository.
type ReconciliationRepo struct {
	s *Store
}

// Reconciliations returns the reconciliation session repository.
func (s *Store) Reconciliations() *ReconciliationRepo {
	return &ReconciliationRepo{s: s}
}

func (r *ReconciliationRepo) Create(ctx context.Context, sess *reconciliation.Session) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.sessions[sess.ID]; ok {
		return apperror.NewDuplicate("reconciliation session", "id", sess.ID.String())
	}
	if !sess.IsCompleted() {
		if draft, ok := r.findDraft(sess.AccountCode); ok {
			return apperror.NewDraftSessionExists(sess.AccountCode, draft.ID.String())
		}
	}
	r.s.st.sessions[sess.ID] = *sess
	return nil
}

func (r *ReconciliationRepo) Get(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	defer r.s.read(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("reconciliation session", sessionID.String())
	}
	return &sess, nil
}

func (r *ReconciliationRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	return r.Get(ctx, sessionID)
}

func (r *ReconciliationRepo) FindDraft(ctx context.Context, accountCode string) (*reconciliation.Session, error) {
	defer r.s.read(ctx)()
	draft, ok := r.findDraft(accountCode)
	if !ok {
		return nil, apperror.NewNotFound("draft reconciliation session", accountCode)
	}
	return &draft, nil
}

func (r *ReconciliationRepo) findDraft(accountCode string) (reconciliation.Session, bool) {
	for _, sess := range r.s.st.sessions {
		if sess.AccountCode == accountCode && !sess.IsCompleted() {
			return sess, true
		}
	}
	return reconciliation.Session{}, false
}

func (r *ReconciliationRepo) List(ctx context.Context, filter reconciliation.Filter) ([]reconciliation.Session, int64, error) {
	defer r.s.read(ctx)()
	out := make([]reconciliation.Session, 0)
	for _, sess := range r.s.st.sessions {
		if filter.AccountCode != "" && sess.AccountCode != filter.AccountCode {
			continue
		}
		if filter.Status != nil && sess.Status() != *filter.Status {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReconciliationTime.Equal(out[j].ReconciliationTime) {
			return out[i].ReconciliationTime.After(out[j].ReconciliationTime)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (r *ReconciliationRepo) UpdateInternal(ctx context.Context, sessionID id.ID, opening, closing types.MinorUnits) error {
	defer r.s.write(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	if !ok {
		return apperror.NewNotFound("reconciliation session", sessionID.String())
	}
	sess.InternalOpeningBalance = opening
	sess.InternalClosingBalance = closing
	r.s.st.sessions[sessionID] = sess
	return nil
}

func (r *ReconciliationRepo) MarkCompleted(ctx context.Context, sessionID id.ID, at time.Time, adjustmentRef *int64) error {
	defer r.s.write(ctx)()
	sess, ok := r.s.st.sessions[sessionID]
	if !ok {
		return apperror.NewNotFound("reconciliation session", sessionID.String())
	}
	if sess.IsCompleted() {
		return apperror.NewBusinessRule(apperror.CodeSessionCompleted, "reconciliation session is already completed").
			WithDetail("session_id", sessionID.String())
	}
	sess.CompleteTime = &at
	sess.AdjustmentJournalEntryRef = adjustmentRef
	r.s.st.sessions[sessionID] = sess
	return nil
}

func (r *ReconciliationRepo) Delete(ctx context.Context, sessionID id.ID) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.sessions[sessionID]; !ok {
		return apperror.NewNotFound("reconciliation session", sessionID.String())
	}
	delete(r.s.st.sessions, sessionID)
	delete(r.s.st.stmtItems, sessionID)
	delete(r.s.st.discrepancy, sessionID)
	return nil
}

func (r *ReconciliationRepo) AddStatementItems(ctx context.Context, items []reconciliation.StatementItem) error {
	defer r.s.write(ctx)()
	for _, it := range items {
		if _, ok := r.s.st.sessions[it.SessionID]; !ok {
			return apperror.NewNotFound("reconciliation session", it.SessionID.String())
		}
		r.s.st.stmtItems[it.SessionID] = append(slices.Clone(r.s.st.stmtItems[it.SessionID]), it)
	}
	return nil
}

func (r *ReconciliationRepo) StatementItems(ctx context.Context, sessionID id.ID) ([]reconciliation.StatementItem, error) {
	defer r.s.read(ctx)()
	out := slices.Clone(r.s.st.stmtItems[sessionID])
	if out == nil {
		out = []reconciliation.StatementItem{}
	}
	return out, nil
}

func (r *ReconciliationRepo) AddDiscrepancy(ctx context.Context, d *reconciliation.Discrepancy) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.st.sessions[d.SessionID]; !ok {
		return apperror.NewNotFound("reconciliation session", d.SessionID.String())
	}
	r.s.st.discrepancy[d.SessionID] = append(slices.Clone(r.s.st.discrepancy[d.SessionID]), *d)
	return nil
}

func (r *ReconciliationRepo) Discrepancies(ctx context.Context, sessionID id.ID) ([]reconciliation.Discrepancy, error) {
	defer r.s.read(ctx)()
	out := slices.Clone(r.s.st.discrepancy[sessionID])
	if out == nil {
		out = []reconciliation.Discrepancy{}
	}
	return out, nil
}

var _ reconciliation.Repository = (*ReconciliationRepo)(nil)
