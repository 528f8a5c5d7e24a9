package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/stock_taking"
)

// --- Inventory items ---

// CreateItemRequest adds an inventory item with an empty stock.
type CreateItemRequest struct {
	Name             string `json:"name" binding:"required,max=256"`
	AssetAccountCode string `json:"assetAccountCode" binding:"required"`
}

func (r *CreateItemRequest) ToDomain() *inventory_item.Item {
	return &inventory_item.Item{Name: r.Name, AssetAccountCode: r.AssetAccountCode}
}

// ReceiveRequest books purchased stock. Quantity accepts up to four decimals.
type ReceiveRequest struct {
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitCost          types.MinorUnits `json:"unitCost" binding:"min=0"`
	OffsetAccountCode string           `json:"offsetAccountCode" binding:"required"`
	ReceiveTime       time.Time        `json:"receiveTime" binding:"required"`
	Note              string           `json:"note"`
}

func (r *ReceiveRequest) ToDomain() inventory_item.ReceiveInput {
	return inventory_item.ReceiveInput{
		Quantity:          types.NewQuantityFromDecimal(r.Quantity),
		UnitCost:          r.UnitCost,
		OffsetAccountCode: r.OffsetAccountCode,
		ReceiveTime:       r.ReceiveTime,
		Note:              r.Note,
	}
}

// ItemResponse adds the book value to an item.
type ItemResponse struct {
	inventory_item.Item
	BookValue types.MinorUnits `json:"bookValue"`
}

func FromItem(it *inventory_item.Item) ItemResponse {
	return ItemResponse{Item: *it, BookValue: it.BookValue()}
}

// ReceiptResponse is the updated item with the posted receipt entry.
type ReceiptResponse struct {
	Item  ItemResponse  `json:"item"`
	Entry EntryResponse `json:"entry"`
}

// --- Stock takings ---

// RecordStockTakingRequest records a physical count of an item.
type RecordStockTakingRequest struct {
	InventoryID string          `json:"inventoryId" binding:"required"`
	AuditTime   time.Time       `json:"auditTime" binding:"required"`
	ActualStock decimal.Decimal `json:"actualStock"`
	Note        string          `json:"note"`
}

func (r *RecordStockTakingRequest) ToDomain() (stock_taking.RecordInput, error) {
	itemID, err := id.Parse(r.InventoryID)
	if err != nil {
		return stock_taking.RecordInput{}, apperror.NewValidation("invalid inventory id").WithDetail("field", "inventoryId")
	}
	return stock_taking.RecordInput{
		InventoryID: itemID,
		AuditTime:   r.AuditTime,
		ActualStock: types.NewQuantityFromDecimal(r.ActualStock),
		Note:        r.Note,
	}, nil
}

// StockTakingResponse adds the variances to a stock taking.
type StockTakingResponse struct {
	stock_taking.StockTaking
	StockVariance types.Quantity   `json:"stockVariance"`
	CostVariance  types.MinorUnits `json:"costVariance"`
}

func FromStockTaking(st *stock_taking.StockTaking) StockTakingResponse {
	return StockTakingResponse{StockTaking: *st, StockVariance: st.StockVariance(), CostVariance: st.CostVariance()}
}

// StockTakingRecordedResponse is the stock taking with its session.
type StockTakingRecordedResponse struct {
	StockTaking StockTakingResponse `json:"stockTaking"`
	Session     SessionResponse     `json:"session"`
}

// StockTakingListRequest holds stock taking list query parameters.
type StockTakingListRequest struct {
	PaginationRequest
	InventoryID string `form:"inventoryId"`
}

func (r *StockTakingListRequest) ToFilter() (stock_taking.Filter, error) {
	f := stock_taking.Filter{Limit: r.Limit, Offset: r.Offset}
	if r.InventoryID != "" {
		itemID, err := id.Parse(r.InventoryID)
		if err != nil {
			return f, apperror.NewValidation("invalid inventory id").WithDetail("field", "inventoryId")
		}
		f.InventoryID = &itemID
	}
	return f, nil
}

