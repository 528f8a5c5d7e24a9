package journal

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ledger/internal/core/apperror"
	appctx "ledger/internal/core/context"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
	"ledger/pkg/logger"
)

var tracer = otel.Tracer("ledger/journal")

// PostingTargets validates accounts that lines point at.
type PostingTargets interface {
	ValidatePostingTarget(ctx context.Context, code string) (*accounts.Account, error)
}

// BalanceApplier is the balance accumulator as seen by the posting pipeline.
type BalanceApplier interface {
	ApplyEntry(ctx context.Context, ref int64, nets map[string]balance.Net) error
}

// Service is the only legal entry point for journal mutations.
type Service struct {
	repo     Repository
	accounts PostingTargets
	balances BalanceApplier
	deps     domain.Deps
	hooks    *domain.HookRegistry[*JournalEntry]
}

// NewService creates the journal engine.
func NewService(repo Repository, targets PostingTargets, balances BalanceApplier, deps domain.Deps) *Service {
	return &Service{
		repo:     repo,
		accounts: targets,
		balances: balances,
		deps:     deps,
		hooks:    domain.NewHookRegistry[*JournalEntry](),
	}
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*JournalEntry] {
	return s.hooks
}

// DraftEntry opens a draft and returns its ref.
func (s *Service) DraftEntry(ctx context.Context, in DraftInput) (int64, error) {
	if err := in.Normalize(); err != nil {
		return 0, err
	}
	e := &JournalEntry{
		EntryTime:       in.EntryTime,
		Note:            in.Note,
		SourceType:      in.SourceType,
		SourceReference: in.SourceReference,
		CreatedBy:       appctx.ActorName(ctx),
	}
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Debug(ctx, "journal entry drafted", "ref", e.Ref, "source_type", e.SourceType)
	return e.Ref, nil
}

// AddLine appends a line to a draft and returns its line number.
func (s *Service) AddLine(ctx context.Context, ref int64, in LineInput) (int, error) {
	if err := in.Normalize(); err != nil {
		return 0, err
	}
	var number int
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.draftForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if _, err := s.accounts.ValidatePostingTarget(ctx, in.AccountCode); err != nil {
			return err
		}
		line := &Line{
			JournalEntryRef: ref,
			LineNumber:      e.NextLineNumber(),
			AccountCode:     in.AccountCode,
			Debit:           in.Debit,
			Credit:          in.Credit,
			Description:     in.Description,
		}
		if err := s.repo.AddLine(ctx, line); err != nil {
			return fmt.Errorf("add journal line: %w", err)
		}
		number = line.LineNumber
		return nil
	})
	return number, err
}

// RemoveLine deletes a line of a draft.
func (s *Service) RemoveLine(ctx context.Context, ref int64, lineNumber int) error {
	return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.draftForUpdate(ctx, ref); err != nil {
			return err
		}
		ok, err := s.repo.DeleteLine(ctx, ref, lineNumber)
		if err != nil {
			return fmt.Errorf("delete journal line: %w", err)
		}
		if !ok {
			return apperror.NewNotFound("journal line", fmt.Sprintf("%d/%d", ref, lineNumber))
		}
		return nil
	})
}

// Post validates a draft, stamps its post time and applies it to balances,
// all in the caller's transaction.
func (s *Service) Post(ctx context.Context, ref int64) (*JournalEntry, error) {
	ctx, span := tracer.Start(ctx, "journal.Post")
	defer span.End()
	span.SetAttributes(attribute.Int64("journal.ref", ref))

	var posted *JournalEntry
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.draftForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.HookBeforePost, e); err != nil {
			return err
		}
		if err := e.CheckBalanced(); err != nil {
			return err
		}
		// Accounts may have been deactivated or gained children since the lines were added.
		for code := range e.NetByAccount() {
			if _, err := s.accounts.ValidatePostingTarget(ctx, code); err != nil {
				return err
			}
		}

		now := s.deps.Now()
		if err := s.repo.MarkPosted(ctx, ref, now); err != nil {
			return fmt.Errorf("mark journal entry posted: %w", err)
		}
		e.PostTime = &now

		if err := s.balances.ApplyEntry(ctx, ref, e.NetByAccount()); err != nil {
			return err
		}

		debit, _ := e.Totals()
		if err := s.deps.Publish(ctx, domain.DomainEvent{
			AggregateType: domain.AggregateJournalEntry,
			AggregateID:   strconv.FormatInt(ref, 10),
			EventType:     "journal_entry.posted",
			Payload:       e,
		}); err != nil {
			return fmt.Errorf("publish posted event: %w", err)
		}
		if err := s.deps.Record(ctx, domain.AuditRecord{
			EntityType: domain.AggregateJournalEntry,
			EntityID:   strconv.FormatInt(ref, 10),
			Action:     domain.AuditPost,
			Changes: map[string]any{
				"source_type": e.SourceType,
				"lines":       len(e.Lines),
				"amount":      int64(debit),
			},
		}); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.HookAfterPost, e); err != nil {
			return err
		}
		posted = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	debit, _ := posted.Totals()
	logger.Info(ctx, "journal entry posted",
		"ref", ref,
		"source_type", posted.SourceType,
		"lines", len(posted.Lines),
		"amount", int64(debit),
	)
	return posted, nil
}

// Discard deletes a draft and its lines.
func (s *Service) Discard(ctx context.Context, ref int64) error {
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.draftForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.HookBeforeDiscard, e); err != nil {
			return err
		}
		return s.repo.Delete(ctx, ref)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "journal entry discarded", "ref", ref)
	return nil
}

// PostEntry drafts, fills and posts an entry in one transaction.
func (s *Service) PostEntry(ctx context.Context, in DraftInput, lines []LineInput) (*JournalEntry, error) {
	lines = slices.Clone(lines)
	for i := range lines {
		if err := lines[i].Normalize(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("line", i+1)
			}
			return nil, err
		}
	}

	var posted *JournalEntry
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ref, err := s.DraftEntry(ctx, in)
		if err != nil {
			return err
		}
		rows := make([]Line, 0, len(lines))
		for i, l := range lines {
			if _, err := s.accounts.ValidatePostingTarget(ctx, l.AccountCode); err != nil {
				return err
			}
			rows = append(rows, Line{
				JournalEntryRef: ref,
				LineNumber:      i + 1,
				AccountCode:     l.AccountCode,
				Debit:           l.Debit,
				Credit:          l.Credit,
				Description:     l.Description,
			})
		}
		if err := s.repo.InsertLines(ctx, rows); err != nil {
			return fmt.Errorf("insert journal lines: %w", err)
		}
		posted, err = s.Post(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, ref int64) (*JournalEntry, error) {
	return s.repo.Get(ctx, ref)
}

// List returns entry headers.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[JournalEntry], error) {
	page := domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}.Normalize(50, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[JournalEntry]{}, err
	}
	return domain.ListResult[JournalEntry]{Items: items, TotalCount: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *Service) draftForUpdate(ctx context.Context, ref int64) (*JournalEntry, error) {
	e, err := s.repo.GetForUpdate(ctx, ref)
	if err != nil {
		return nil, err
	}
	if e.IsPosted() {
		return nil, apperror.NewBusinessRule(apperror.CodeDocumentPosted, "journal entry is already posted").
			WithDetail("ref", ref)
	}
	return e, nil
}
