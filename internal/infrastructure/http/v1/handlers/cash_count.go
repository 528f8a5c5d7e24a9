package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/infrastructure/http/v1/dto"
)

// CashCountHandler serves cash counts.
type CashCountHandler struct {
	*BaseHandler
	service *cash_count.Service
}

// NewCashCountHandler creates a new cash count handler.
func NewCashCountHandler(base *BaseHandler, service *cash_count.Service) *CashCountHandler {
	return &CashCountHandler{BaseHandler: base, service: service}
}

// List handles GET /cash-counts
func (h *CashCountHandler) List(c *gin.Context) {
	var req dto.CashCountListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Record handles POST /cash-counts
func (h *CashCountHandler) Record(c *gin.Context) {
	var req dto.RecordCashCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	count, session, err := h.service.Record(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.CashCountRecordedResponse{Count: count, Session: dto.FromSession(session)})
}

// Get handles GET /cash-counts/:id
func (h *CashCountHandler) Get(c *gin.Context) {
	countID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	count, err := h.service.Get(c.Request.Context(), countID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, count)
}
