// Package inventory_item provides stocked items valued at moving average cost.
package inventory_item

import (
	"strings"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
)

// Item is a stocked item. Its value sits on AssetAccountCode.
type Item struct {
	ID               id.ID            `json:"id"`
	Name             string           `json:"name"`
	AssetAccountCode string           `json:"assetAccountCode"`
	Stock            types.Quantity   `json:"stock"`
	AverageCost      types.MinorUnits `json:"averageCost"`
	CreateTime       time.Time        `json:"createTime"`
	UpdateTime       time.Time        `json:"updateTime"`
}

// BookValue is the item's stock valued at average cost.
func (it *Item) BookValue() types.MinorUnits {
	return types.CostOf(it.AverageCost, it.Stock)
}

// Validate checks the item's fields.
func (it *Item) Validate() error {
	it.Name = strings.TrimSpace(it.Name)
	it.AssetAccountCode = strings.TrimSpace(it.AssetAccountCode)
	if it.Name == "" {
		return apperror.NewValidation("item name is required").WithDetail("field", "name")
	}
	if it.AssetAccountCode == "" {
		return apperror.NewValidation("asset account is required").WithDetail("field", "assetAccountCode")
	}
	if it.Stock < 0 || it.AverageCost < 0 {
		return apperror.NewValidation("stock and cost must not be negative")
	}
	return nil
}

// ReceiveInput books a receipt of stock.
type ReceiveInput struct {
	Quantity          types.Quantity
	UnitCost          types.MinorUnits
	OffsetAccountCode string
	ReceiveTime       time.Time
	Note              string
}

// Validate checks the receipt.
func (in *ReceiveInput) Validate() error {
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if in.UnitCost < 0 {
		return apperror.NewValidation("unit cost must not be negative").WithDetail("field", "unitCost")
	}
	if strings.TrimSpace(in.OffsetAccountCode) == "" {
		return apperror.NewValidation("offset account is required").WithDetail("field", "offsetAccountCode")
	}
	return nil
}
