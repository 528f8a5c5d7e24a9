// Package stock_taking reconciles physical stock counts against book stock
// and books the cost variance through the reconciliation engine.
package stock_taking

import (
	"fmt"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/core/types"
)

// StockTaking is one audited count of an inventory item.
type StockTaking struct {
	ID                      id.ID            `json:"id"`
	InventoryID             id.ID            `json:"inventoryId"`
	AuditTime               time.Time        `json:"auditTime"`
	ExpectedStock           types.Quantity   `json:"expectedStock"`
	ActualStock             types.Quantity   `json:"actualStock"`
	ExpectedCost            types.MinorUnits `json:"expectedCost"`
	ActualCost              types.MinorUnits `json:"actualCost"`
	Note                    string           `json:"note,omitempty"`
	ReconciliationSessionID id.ID            `json:"reconciliationSessionId"`
	CreateTime              time.Time        `json:"createTime"`
}

// StockVariance is actual minus expected units.
func (st *StockTaking) StockVariance() types.Quantity {
	return st.ActualStock - st.ExpectedStock
}

// CostVariance is actual minus expected cost.
func (st *StockTaking) CostVariance() types.MinorUnits {
	return st.ActualCost - st.ExpectedCost
}

// StatementReference labels the session synthesized for a stock taking.
func StatementReference(itemID id.ID, auditTime time.Time) string {
	return fmt.Sprintf("Stock Taking %s @ %s", itemID, auditTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// RecordInput is a physical count to record.
type RecordInput struct {
	InventoryID id.ID
	AuditTime   time.Time
	ActualStock types.Quantity
	Note        string
}

// Validate checks the input fields.
func (in *RecordInput) Validate() error {
	if id.IsNil(in.InventoryID) {
		return apperror.NewValidation("inventory id is required").WithDetail("field", "inventoryId")
	}
	if in.ActualStock < 0 {
		return apperror.NewValidation("actual stock must not be negative").WithDetail("field", "actualStock")
	}
	return nil
}

// Filter narrows stock taking lists.
type Filter struct {
	InventoryID *id.ID
	Limit       int
	Offset      int
}
