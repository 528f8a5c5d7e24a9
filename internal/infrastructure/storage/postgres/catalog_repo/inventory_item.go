package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/infrastructure/storage/postgres"
)

const inventoryItemsTable = "inventory_items"

type inventoryItemRow struct {
	ID               id.ID  `db:"id"`
	Name             string `db:"name"`
	AssetAccountCode string `db:"asset_account_code"`
	Stock            int64  `db:"stock"`
	AverageCost      int64  `db:"average_cost"`
	CreateTime       int64  `db:"create_time"`
	UpdateTime       int64  `db:"update_time"`
}

func (r *inventoryItemRow) toDomain() inventory_item.Item {
	return inventory_item.Item{
		ID:               r.ID,
		Name:             r.Name,
		AssetAccountCode: r.AssetAccountCode,
		Stock:            types.NewQuantityFromInt64Scaled(r.Stock),
		AverageCost:      types.MinorUnits(r.AverageCost),
		CreateTime:       types.FromMillis(r.CreateTime),
		UpdateTime:       types.FromMillis(r.UpdateTime),
	}
}

var inventoryItemColumns = postgres.ExtractDBColumns[inventoryItemRow]()

// InventoryItemRepo implements inventory_item.Repository.
type InventoryItemRepo struct {
	baseRepo
}

var _ inventory_item.Repository = (*InventoryItemRepo)(nil)

// NewInventoryItemRepo creates a new inventory item repository.
func NewInventoryItemRepo(txm *postgres.TxManager) *InventoryItemRepo {
	return &InventoryItemRepo{baseRepo: newBaseRepo(txm, inventoryItemsTable, inventoryItemColumns)}
}

func (r *InventoryItemRepo) Create(ctx context.Context, it *inventory_item.Item) error {
	return r.insertRow(ctx, inventoryItemRow{
		ID:               it.ID,
		Name:             it.Name,
		AssetAccountCode: it.AssetAccountCode,
		Stock:            it.Stock.Int64Scaled(),
		AverageCost:      int64(it.AverageCost),
		CreateTime:       types.ToMillis(it.CreateTime),
		UpdateTime:       types.ToMillis(it.UpdateTime),
	}, "inventory item")
}

func (r *InventoryItemRepo) Get(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	return r.get(ctx, itemID, false)
}

func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	return r.get(ctx, itemID, true)
}

func (r *InventoryItemRepo) get(ctx context.Context, itemID id.ID, lock bool) (*inventory_item.Item, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": itemID})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	var row inventoryItemRow
	if err := postgres.Get(ctx, r.querier(ctx), &row, q, "inventory item", itemID.String()); err != nil {
		return nil, err
	}
	it := row.toDomain()
	return &it, nil
}

func (r *InventoryItemRepo) List(ctx context.Context, filter domain.ListFilter) ([]inventory_item.Item, int64, error) {
	q := r.baseSelect()
	querier := r.querier(ctx)

	total, err := postgres.Count(ctx, querier, q, "inventory item")
	if err != nil {
		return nil, 0, err
	}

	q = postgres.Page(q.OrderBy("name", "id"), filter.Limit, filter.Offset)
	var rows []inventoryItemRow
	if err := postgres.Select(ctx, querier, &rows, q, "inventory item"); err != nil {
		return nil, 0, err
	}
	out := make([]inventory_item.Item, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, total, nil
}

func (r *InventoryItemRepo) UpdateStock(ctx context.Context, itemID id.ID, stock types.Quantity, averageCost types.MinorUnits, at time.Time) error {
	q := postgres.Builder().
		Update(inventoryItemsTable).
		Set("stock", stock.Int64Scaled()).
		Set("average_cost", int64(averageCost)).
		Set("update_time", types.ToMillis(at)).
		Where(squirrel.Eq{"id": itemID})

	n, err := postgres.Exec(ctx, r.querier(ctx), q, "inventory item")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("inventory item", itemID.String())
	}
	return nil
}
