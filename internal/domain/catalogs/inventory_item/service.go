package inventory_item

import (
	"context"
	"fmt"

	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/documents/journal"
	"ledger/pkg/logger"
)

// Accounts validates asset and offset accounts.
type Accounts interface {
	ValidatePostingTarget(ctx context.Context, code string) (*accounts.Account, error)
}

// Poster posts receipt entries.
type Poster interface {
	PostEntry(ctx context.Context, in journal.DraftInput, lines []journal.LineInput) (*journal.JournalEntry, error)
}

// Service manages inventory items.
type Service struct {
	repo     Repository
	accounts Accounts
	journal  Poster
	deps     domain.Deps
}

// NewService creates the inventory item service.
func NewService(repo Repository, accts Accounts, poster Poster, deps domain.Deps) *Service {
	return &Service{repo: repo, accounts: accts, journal: poster, deps: deps}
}

// Create registers an item with zero stock.
func (s *Service) Create(ctx context.Context, it *Item) error {
	it.Stock = 0
	it.AverageCost = 0
	if err := it.Validate(); err != nil {
		return err
	}
	if id.IsNil(it.ID) {
		it.ID = id.New()
	}
	now := s.deps.Now()
	it.CreateTime, it.UpdateTime = now, now
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.ValidatePostingTarget(ctx, it.AssetAccountCode); err != nil {
			return err
		}
		return s.repo.Create(ctx, it)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "inventory item created", "id", it.ID, "asset_account", it.AssetAccountCode)
	return nil
}

// Receive adds stock at unitCost, re-averages the item cost and posts the
// receipt (debit asset account, credit offset account).
func (s *Service) Receive(ctx context.Context, itemID id.ID, in ReceiveInput) (*Item, *journal.JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	if in.ReceiveTime.IsZero() {
		in.ReceiveTime = s.deps.Now()
	}
	var (
		item  *Item
		entry *journal.JournalEntry
	)
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		it, err := s.repo.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		amount := types.CostOf(in.UnitCost, in.Quantity)
		if amount > 0 {
			note := in.Note
			if note == "" {
				note = fmt.Sprintf("Receipt of %s x %s", in.Quantity, it.Name)
			}
			entry, err = s.journal.PostEntry(ctx, journal.DraftInput{
				EntryTime:       in.ReceiveTime,
				Note:            note,
				SourceType:      journal.SourceInventoryReceipt,
				SourceReference: it.ID.String(),
			}, []journal.LineInput{
				{AccountCode: it.AssetAccountCode, Debit: amount},
				{AccountCode: in.OffsetAccountCode, Credit: amount},
			})
			if err != nil {
				return err
			}
		}
		it.AverageCost = types.MovingAverageCost(it.Stock, it.AverageCost, in.Quantity, in.UnitCost)
		it.Stock += in.Quantity
		it.UpdateTime = s.deps.Now()
		if err := s.repo.UpdateStock(ctx, it.ID, it.Stock, it.AverageCost, it.UpdateTime); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "inventory received", "id", itemID, "quantity", in.Quantity.String(), "average_cost", int64(item.AverageCost))
	return item, entry, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.Get(ctx, itemID)
}

// GetForUpdate returns one item holding its row lock.
func (s *Service) GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetForUpdate(ctx, itemID)
}

// SetStock overwrites the item's stock after a physical count.
func (s *Service) SetStock(ctx context.Context, it *Item, stock types.Quantity) error {
	it.Stock = stock
	it.UpdateTime = s.deps.Now()
	return s.repo.UpdateStock(ctx, it.ID, it.Stock, it.AverageCost, it.UpdateTime)
}

// List returns items.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[Item], error) {
	filter = filter.Normalize(50, 500)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[Item]{}, err
	}
	return domain.ListResult[Item]{Items: items, TotalCount: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
