package stock_taking

import (
	"context"
	"fmt"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/pkg/logger"
)

// Accounts is the chart-of-accounts surface stock takings need.
type Accounts interface {
	ValidatePostingTarget(ctx context.Context, code string) (*accounts.Account, error)
	GetForUpdate(ctx context.Context, code string) (*accounts.Account, error)
}

// Items is the inventory surface stock takings need.
type Items interface {
	Get(ctx context.Context, itemID id.ID) (*inventory_item.Item, error)
	GetForUpdate(ctx context.Context, itemID id.ID) (*inventory_item.Item, error)
	SetStock(ctx context.Context, it *inventory_item.Item, stock types.Quantity) error
}

// Service records stock takings.
type Service struct {
	repo     Repository
	items    Items
	accounts Accounts
	engine   *reconciliation.Engine
	deps     domain.Deps
}

// NewService creates the stock taking service.
func NewService(repo Repository, items Items, accts Accounts, engine *reconciliation.Engine, deps domain.Deps) *Service {
	return &Service{repo: repo, items: items, accounts: accts, engine: engine, deps: deps}
}

// Record compares a physical count with book stock, posts the cost variance
// against the inventory gain/shrinkage account and sets the item's stock to
// the counted quantity.
func (s *Service) Record(ctx context.Context, in RecordInput) (*StockTaking, *reconciliation.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	now := s.deps.Now()
	if in.AuditTime.IsZero() {
		in.AuditTime = now
	}
	auditTime := types.TruncateMillis(in.AuditTime)

	item, err := s.items.Get(ctx, in.InventoryID)
	if err != nil {
		return nil, nil, err
	}

	st := &StockTaking{
		ID:          id.New(),
		InventoryID: in.InventoryID,
		AuditTime:   auditTime,
		ActualStock: in.ActualStock,
		Note:        in.Note,
		CreateTime:  now,
	}
	var session *reconciliation.Session

	err = s.engine.WithAccountLock(ctx, item.AssetAccountCode, func(ctx context.Context) error {
		return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
			it, err := s.items.GetForUpdate(ctx, in.InventoryID)
			if err != nil {
				return err
			}
			if _, err := s.accounts.ValidatePostingTarget(ctx, it.AssetAccountCode); err != nil {
				return err
			}
			asset, err := s.accounts.GetForUpdate(ctx, it.AssetAccountCode)
			if err != nil {
				return err
			}

			st.ExpectedStock = it.Stock
			st.ExpectedCost = types.CostOf(it.AverageCost, it.Stock)
			st.ActualCost = types.CostOf(it.AverageCost, in.ActualStock)

			session = &reconciliation.Session{
				ID:                      id.New(),
				AccountCode:             asset.Code,
				ReconciliationTime:      auditTime,
				StatementBeginTime:      auditTime,
				StatementEndTime:        auditTime,
				StatementOpeningBalance: asset.Balance,
				StatementClosingBalance: asset.Balance + st.CostVariance(),
				InternalOpeningBalance:  asset.Balance,
				InternalClosingBalance:  asset.Balance,
				StatementReference:      StatementReference(it.ID, auditTime),
				CreateTime:              now,
			}
			if err := s.engine.Reconcile(ctx, session, reconciliation.StockTakingProfile); err != nil {
				return err
			}

			if err := s.items.SetStock(ctx, it, in.ActualStock); err != nil {
				return fmt.Errorf("set counted stock: %w", err)
			}
			st.ReconciliationSessionID = session.ID
			if err := s.repo.Create(ctx, st); err != nil {
				return fmt.Errorf("create stock taking: %w", err)
			}
			return s.deps.Publish(ctx, domain.DomainEvent{
				AggregateType: domain.AggregateStockTaking,
				AggregateID:   st.ID.String(),
				EventType:     "stock_taking.recorded",
				Payload:       st,
			})
		})
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "stock taking recorded",
		"id", st.ID,
		"inventory_id", st.InventoryID,
		"stock_variance", st.StockVariance().String(),
		"cost_variance", int64(st.CostVariance()),
	)
	return st, session, nil
}

// Get returns one stock taking.
func (s *Service) Get(ctx context.Context, stID id.ID) (*StockTaking, error) {
	return s.repo.Get(ctx, stID)
}

// List returns stock takings, newest first.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[StockTaking], error) {
	page := domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}.Normalize(50, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[StockTaking]{}, err
	}
	return domain.ListResult[StockTaking]{Items: items, TotalCount: total, Limit: page.Limit, Offset: page.Offset}, nil
}
