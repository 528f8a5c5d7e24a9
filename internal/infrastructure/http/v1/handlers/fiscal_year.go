package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/infrastructure/http/v1/dto"
)

// FiscalYearHandler serves fiscal years.
type FiscalYearHandler struct {
	*BaseHandler
	service *fiscal_year.Service
}

// NewFiscalYearHandler creates a new fiscal year handler.
func NewFiscalYearHandler(base *BaseHandler, service *fiscal_year.Service) *FiscalYearHandler {
	return &FiscalYearHandler{BaseHandler: base, service: service}
}

// List handles GET /fiscal-years
func (h *FiscalYearHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []fiscal_year.FiscalYear{}
	}
	h.OK(c, gin.H{"items": list})
}

// Create handles POST /fiscal-years
func (h *FiscalYearHandler) Create(c *gin.Context) {
	var req dto.CreateFiscalYearRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fy := req.ToDomain()
	if err := h.service.Create(c.Request.Context(), fy); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, fy)
}

// Get handles GET /fiscal-years/:id
func (h *FiscalYearHandler) Get(c *gin.Context) {
	fyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	fy, err := h.service.Get(c.Request.Context(), fyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, fy)
}

// Delete handles DELETE /fiscal-years/:id
func (h *FiscalYearHandler) Delete(c *gin.Context) {
	fyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), fyID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
