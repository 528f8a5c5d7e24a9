package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/stock_taking"
	"ledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves inventory items and their stock takings.
type InventoryHandler struct {
	*BaseHandler
	items        *inventory_item.Service
	stockTakings *stock_taking.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, items *inventory_item.Service, stockTakings *stock_taking.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, items: items, stockTakings: stockTakings}
}

// List handles GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	var req dto.PaginationRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.items.List(c.Request.Context(), req.ListFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromItem))
}

// Create handles POST /inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	it := req.ToDomain()
	if err := h.items.Create(c.Request.Context(), it); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromItem(it))
}

// Get handles GET /inventory/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	it, err := h.items.Get(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(it))
}

// Receive handles POST /inventory/:id/receipts
func (h *InventoryHandler) Receive(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	it, entry, err := h.items.Receive(c.Request.Context(), itemID, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.ReceiptResponse{Item: dto.FromItem(it), Entry: dto.FromJournalEntry(entry)})
}

// ListStockTakings handles GET /stock-takings
func (h *InventoryHandler) ListStockTakings(c *gin.Context) {
	var req dto.StockTakingListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.stockTakings.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromStockTaking))
}

// RecordStockTaking handles POST /stock-takings
func (h *InventoryHandler) RecordStockTaking(c *gin.Context) {
	var req dto.RecordStockTakingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	st, session, err := h.stockTakings.Record(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.StockTakingRecordedResponse{StockTaking: dto.FromStockTaking(st), Session: dto.FromSession(session)})
}

// GetStockTaking handles GET /stock-takings/:id
func (h *InventoryHandler) GetStockTaking(c *gin.Context) {
	stID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.stockTakings.Get(c.Request.Context(), stID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockTaking(st))
}
