package reconciliation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/lock"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/registers/balance"
	"ledger/pkg/logger"
)

var tracer = otel.Tracer("ledger/reconciliation")

// DefaultLockTTL bounds how long an account stays locked by one operation.
const DefaultLockTTL = 30 * time.Second

// Accounts is the chart-of-accounts surface the engine needs.
type Accounts interface {
	ValidatePostingTarget(ctx context.Context, code string) (*accounts.Account, error)
	GetForUpdate(ctx context.Context, code string) (*accounts.Account, error)
	FindUniqueTagHolder(ctx context.Context, tag string) (*accounts.Account, error)
}

// Movements computes book movement of an account.
type Movements interface {
	NetMovement(ctx context.Context, acc *accounts.Account, w balance.Window) (types.MinorUnits, error)
}

// Poster posts adjustment entries.
type Poster interface {
	PostEntry(ctx context.Context, in journal.DraftInput, lines []journal.LineInput) (*journal.JournalEntry, error)
}

// Engine runs the Draft → Completed state machine.
type Engine struct {
	repo      Repository
	accounts  Accounts
	movements Movements
	journal   Poster
	locker    lock.Locker
	lockTTL   time.Duration
	deps      domain.Deps
}

// Config wires the engine.
type Config struct {
	Repo      Repository
	Accounts  Accounts
	Movements Movements
	Journal   Poster
	Locker    lock.Locker
	LockTTL   time.Duration
	Deps      domain.Deps
}

// NewEngine creates the reconciliation engine.
func NewEngine(cfg Config) *Engine {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &Engine{
		repo:      cfg.Repo,
		accounts:  cfg.Accounts,
		movements: cfg.Movements,
		journal:   cfg.Journal,
		locker:    cfg.Locker,
		lockTTL:   ttl,
		deps:      cfg.Deps,
	}
}

// WithAccountLock runs fn holding the account's reconciliation lock.
// The lock is taken outside any transaction and released after fn returns.
func (e *Engine) WithAccountLock(ctx context.Context, accountCode string, fn func(ctx context.Context) error) error {
	if e.locker == nil {
		return fn(ctx)
	}
	return lock.WithLock(ctx, e.locker, lock.ReconciliationKey(accountCode), e.lockTTL, fn)
}

// Begin opens a draft bank reconciliation with internal figures computed
// from posted lines over the statement period.
func (e *Engine) Begin(ctx context.Context, in BeginInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := e.deps.Now()
	if in.ReconciliationTime.IsZero() {
		in.ReconciliationTime = now
	}

	s := &Session{
		ID:                      id.New(),
		AccountCode:             in.AccountCode,
		ReconciliationTime:      types.TruncateMillis(in.ReconciliationTime),
		StatementBeginTime:      in.StatementBeginTime,
		StatementEndTime:        in.StatementEndTime,
		StatementOpeningBalance: in.StatementOpeningBalance,
		StatementClosingBalance: in.StatementClosingBalance,
		StatementReference:      in.StatementReference,
		CreateTime:              now,
	}

	err := e.WithAccountLock(ctx, in.AccountCode, func(ctx context.Context) error {
		return e.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			acc, err := e.accounts.ValidatePostingTarget(ctx, s.AccountCode)
			if err != nil {
				return err
			}
			if err := e.ensureNoDraft(ctx, s.AccountCode); err != nil {
				return err
			}
			if err := e.refreshInternal(ctx, acc, s); err != nil {
				return err
			}
			if err := e.repo.Create(ctx, s); err != nil {
				return err
			}
			if len(in.Items) > 0 {
				items := make([]StatementItem, len(in.Items))
				for i, it := range in.Items {
					it.SessionID = s.ID
					items[i] = it
				}
				if err := e.repo.AddStatementItems(ctx, items); err != nil {
					return fmt.Errorf("add statement items: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reconciliation started",
		"session_id", s.ID,
		"account", s.AccountCode,
		"internal_opening", int64(s.InternalOpeningBalance),
		"internal_closing", int64(s.InternalClosingBalance),
	)
	return s, nil
}

// AddStatementItem attaches evidence to a draft session.
func (e *Engine) AddStatementItem(ctx context.Context, sessionID id.ID, item StatementItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return e.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := e.draftForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		item.SessionID = s.ID
		return e.repo.AddStatementItems(ctx, []StatementItem{item})
	})
}

// Complete refreshes the internal figures and finishes the session, posting
// an adjustment when the statement and the books disagree.
func (e *Engine) Complete(ctx context.Context, sessionID id.ID) (*Session, error) {
	current, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var s *Session
	err = e.WithAccountLock(ctx, current.AccountCode, func(ctx context.Context) error {
		return e.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			draft, err := e.draftForUpdate(ctx, sessionID)
			if err != nil {
				return err
			}
			s = draft
			acc, err := e.accounts.ValidatePostingTarget(ctx, s.AccountCode)
			if err != nil {
				return err
			}
			// Postings to the account wait on this row lock, so the window
			// movement cannot change before the adjustment is booked.
			if _, err := e.accounts.GetForUpdate(ctx, s.AccountCode); err != nil {
				return err
			}
			if err := e.refreshInternal(ctx, acc, s); err != nil {
				return err
			}
			if err := e.repo.UpdateInternal(ctx, s.ID, s.InternalOpeningBalance, s.InternalClosingBalance); err != nil {
				return fmt.Errorf("store internal figures: %w", err)
			}
			return e.complete(ctx, s, acc, BankProfile, e.deps.Now())
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Cancel deletes a draft session, freeing the account for a new one.
func (e *Engine) Cancel(ctx context.Context, sessionID id.ID) error {
	current, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	err = e.WithAccountLock(ctx, current.AccountCode, func(ctx context.Context) error {
		return e.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if _, err := e.draftForUpdate(ctx, sessionID); err != nil {
				return err
			}
			return e.repo.Delete(ctx, sessionID)
		})
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "reconciliation cancelled", "session_id", sessionID, "account", current.AccountCode)
	return nil
}

// Reconcile drives a synthesized session through Draft → Completed in the
// caller's transaction. The caller holds the account lock and has filled in
// statement and internal figures.
func (e *Engine) Reconcile(ctx context.Context, s *Session, p Profile) error {
	return e.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		acc, err := e.accounts.ValidatePostingTarget(ctx, s.AccountCode)
		if err != nil {
			return err
		}
		if err := e.ensureNoDraft(ctx, s.AccountCode); err != nil {
			return err
		}
		if id.IsNil(s.ID) {
			s.ID = id.New()
		}
		if s.CreateTime.IsZero() {
			s.CreateTime = e.deps.Now()
		}
		if err := e.repo.Create(ctx, s); err != nil {
			return err
		}
		return e.complete(ctx, s, acc, p, s.ReconciliationTime)
	})
}

// Get returns one session.
func (e *Engine) Get(ctx context.Context, sessionID id.ID) (*Session, error) {
	return e.repo.Get(ctx, sessionID)
}

// List returns sessions, newest first.
func (e *Engine) List(ctx context.Context, filter Filter) (domain.ListResult[Session], error) {
	page := domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}.Normalize(50, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := e.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[Session]{}, err
	}
	return domain.ListResult[Session]{Items: items, TotalCount: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// StatementItems returns a session's evidence lines.
func (e *Engine) StatementItems(ctx context.Context, sessionID id.ID) ([]StatementItem, error) {
	return e.repo.StatementItems(ctx, sessionID)
}

// Discrepancies returns a session's discrepancy rows.
func (e *Engine) Discrepancies(ctx context.Context, sessionID id.ID) ([]Discrepancy, error) {
	return e.repo.Discrepancies(ctx, sessionID)
}

// complete books the discrepancy (if any) and marks s completed at at.
// Must run inside a transaction.
func (e *Engine) complete(ctx context.Context, s *Session, acc *accounts.Account, p Profile, at time.Time) error {
	ctx, span := tracer.Start(ctx, "reconciliation.complete")
	defer span.End()

	discrepancy := s.Discrepancy()
	span.SetAttributes(
		attribute.String("account", s.AccountCode),
		attribute.Int64("discrepancy", int64(discrepancy)),
	)

	var adjustmentRef *int64
	if discrepancy != 0 {
		offset, err := e.accounts.FindUniqueTagHolder(ctx, p.OffsetTag)
		if err != nil {
			return err
		}
		if offset.Code == acc.Code {
			return apperror.NewConstraintViolation("offset_account_differs", "offset account is the reconciled account").
				WithDetail("account_code", acc.Code).
				WithDetail("tag", p.OffsetTag)
		}
		lines, kind := AdjustmentLines(acc, offset.Code, discrepancy, p.Note)
		entry, err := e.journal.PostEntry(ctx, journal.DraftInput{
			EntryTime:       at,
			Note:            fmt.Sprintf("%s: %s", p.Note, acc.Code),
			SourceType:      p.SourceType,
			SourceReference: s.ID.String(),
		}, lines)
		if err != nil {
			return fmt.Errorf("post adjustment: %w", err)
		}
		if err := e.repo.AddDiscrepancy(ctx, &Discrepancy{
			SessionID:        s.ID,
			DiscrepancyType:  kind,
			DifferenceAmount: discrepancy,
			Resolution:       ResolutionAdjusted,
		}); err != nil {
			return fmt.Errorf("record discrepancy: %w", err)
		}
		adjustmentRef = &entry.Ref
	}

	if err := e.repo.MarkCompleted(ctx, s.ID, at, adjustmentRef); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	s.CompleteTime = &at
	s.AdjustmentJournalEntryRef = adjustmentRef

	if err := e.deps.Publish(ctx, domain.DomainEvent{
		AggregateType: domain.AggregateReconciliation,
		AggregateID:   s.ID.String(),
		EventType:     "reconciliation.completed",
		Payload:       s,
	}); err != nil {
		return fmt.Errorf("publish completed event: %w", err)
	}
	if err := e.deps.Record(ctx, domain.AuditRecord{
		EntityType: domain.AggregateReconciliation,
		EntityID:   s.ID.String(),
		Action:     domain.AuditComplete,
		Changes: map[string]any{
			"account_code":   s.AccountCode,
			"source_type":    p.SourceType,
			"discrepancy":    int64(discrepancy),
			"adjustment_ref": adjustmentRef,
		},
	}); err != nil {
		return err
	}

	logger.Info(ctx, "reconciliation completed",
		"session_id", s.ID,
		"account", s.AccountCode,
		"source_type", p.SourceType,
		"discrepancy", int64(discrepancy),
	)
	return nil
}

// refreshInternal sets the internal figures: opening is the movement before
// the statement begins, closing adds the movement through statement end.
func (e *Engine) refreshInternal(ctx context.Context, acc *accounts.Account, s *Session) error {
	begin, end := s.StatementBeginTime, s.StatementEndTime
	opening, err := e.movements.NetMovement(ctx, acc, balance.Window{To: &begin})
	if err != nil {
		return fmt.Errorf("internal opening balance: %w", err)
	}
	period, err := e.movements.NetMovement(ctx, acc, balance.Window{From: &begin, To: &end, ToInclusive: true})
	if err != nil {
		return fmt.Errorf("internal period movement: %w", err)
	}
	s.InternalOpeningBalance = opening
	s.InternalClosingBalance = opening + period
	return nil
}

func (e *Engine) ensureNoDraft(ctx context.Context, accountCode string) error {
	draft, err := e.repo.FindDraft(ctx, accountCode)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return apperror.NewDraftSessionExists(accountCode, draft.ID.String())
}

func (e *Engine) draftForUpdate(ctx context.Context, sessionID id.ID) (*Session, error) {
	s, err := e.repo.GetForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.IsCompleted() {
		return nil, apperror.NewBusinessRule(apperror.CodeSessionCompleted, "reconciliation session is already completed").
			WithDetail("session_id", sessionID.String())
	}
	return s, nil
}
