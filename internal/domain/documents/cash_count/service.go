package cash_count

import (
	"context"
	"fmt"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/pkg/logger"
)

// Accounts is the chart-of-accounts surface cash counts need.
type Accounts interface {
	ValidatePostingTarget(ctx context.Context, code string) (*accounts.Account, error)
	HasTag(ctx context.Context, code, tag string) (bool, error)
	GetForUpdate(ctx context.Context, code string) (*accounts.Account, error)
}

// Service records cash counts through the reconciliation engine.
type Service struct {
	repo     Repository
	accounts Accounts
	engine   *reconciliation.Engine
	deps     domain.Deps
}

// NewService creates the cash count service.
func NewService(repo Repository, accts Accounts, engine *reconciliation.Engine, deps domain.Deps) *Service {
	return &Service{repo: repo, accounts: accts, engine: engine, deps: deps}
}

// Record compares a physical count with the account's ledger balance and
// books any shortage or overage against the cash over/short account.
func (s *Service) Record(ctx context.Context, in RecordInput) (*CashCount, *reconciliation.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.deps.Now()
	if in.CountTime.IsZero() {
		in.CountTime = now
	}
	countTime := types.TruncateMillis(in.CountTime)

	count := &CashCount{
		ID:            id.New(),
		AccountCode:   in.AccountCode,
		CountTime:     countTime,
		CountedAmount: in.CountedAmount,
		Note:          in.Note,
		CreateTime:    now,
	}
	var session *reconciliation.Session

	err := s.engine.WithAccountLock(ctx, in.AccountCode, func(ctx context.Context) error {
		return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			acc, err := s.accounts.ValidatePostingTarget(ctx, in.AccountCode)
			if err != nil {
				return err
			}
			isCash, err := s.accounts.HasTag(ctx, acc.Code, accounts.TagCashEquivalents)
			if err != nil {
				return err
			}
			if !isCash {
				return apperror.NewNotACashAccount(acc.Code)
			}

			// The book balance must not move between reading it and booking the difference.
			locked, err := s.accounts.GetForUpdate(ctx, acc.Code)
			if err != nil {
				return err
			}
			internal := locked.Balance
			session = &reconciliation.Session{
				ID:                      id.New(),
				AccountCode:             acc.Code,
				ReconciliationTime:      countTime,
				StatementBeginTime:      countTime,
				StatementEndTime:        countTime,
				StatementOpeningBalance: internal,
				StatementClosingBalance: in.CountedAmount,
				InternalOpeningBalance:  internal,
				InternalClosingBalance:  internal,
				StatementReference:      StatementReference(countTime),
				CreateTime:              now,
			}
			if err := s.engine.Reconcile(ctx, session, reconciliation.CashCountProfile); err != nil {
				return err
			}

			count.ReconciliationSessionID = session.ID
			if err := s.repo.Create(ctx, count); err != nil {
				return fmt.Errorf("create cash count: %w", err)
			}
			return s.deps.Publish(ctx, domain.DomainEvent{
				AggregateType: domain.AggregateCashCount,
				AggregateID:   count.ID.String(),
				EventType:     "cash_count.recorded",
				Payload:       count,
			})
		})
	})
	if err != nil {
		return nil, nil, err
	}

	discrepancy := session.Discrepancy()
	logger.Info(ctx, "cash count recorded",
		"id", count.ID,
		"account", count.AccountCode,
		"counted", int64(count.CountedAmount),
		"discrepancy", int64(discrepancy),
		"type", Classify(discrepancy),
	)
	return count, session, nil
}

// Get returns one cash count.
func (s *Service) Get(ctx context.Context, countID id.ID) (*CashCount, error) {
	return s.repo.Get(ctx, countID)
}

// List returns counts, newest first.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[CashCount], error) {
	page := domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}.Normalize(50, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[CashCount]{}, err
	}
	return domain.ListResult[CashCount]{Items: items, TotalCount: total, Limit: page.Limit, Offset: page.Offset}, nil
}

// History returns counts with their discrepancy classification.
func (s *Service) History(ctx context.Context, filter Filter) (domain.ListResult[HistoryEntry], error) {
	page := domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}.Normalize(50, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.repo.History(ctx, filter)
	if err != nil {
		return domain.ListResult[HistoryEntry]{}, err
	}
	return domain.ListResult[HistoryEntry]{Items: items, TotalCount: total, Limit: page.Limit, Offset: page.Offset}, nil
}
