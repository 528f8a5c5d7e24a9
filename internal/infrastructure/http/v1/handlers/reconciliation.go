package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/documents/reconciliation"
	"ledger/internal/infrastructure/http/v1/dto"
)

// ReconciliationHandler serves bank reconciliation sessions.
type ReconciliationHandler struct {
	*BaseHandler
	engine *reconciliation.Engine
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, engine *reconciliation.Engine) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, engine: engine}
}

// List handles GET /reconciliations
func (h *ReconciliationHandler) List(c *gin.Context) {
	var req dto.SessionListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.engine.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromSession))
}

// Begin handles POST /reconciliations
func (h *ReconciliationHandler) Begin(c *gin.Context) {
	var req dto.BeginSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.engine.Begin(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSession(s))
}

// Get handles GET /reconciliations/:id
func (h *ReconciliationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.engine.Get(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	items, err := h.engine.StatementItems(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	ds, err := h.engine.Discrepancies(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []reconciliation.StatementItem{}
	}
	if ds == nil {
		ds = []reconciliation.Discrepancy{}
	}
	h.OK(c, dto.SessionDetailResponse{SessionResponse: dto.FromSession(s), Items: items, Discrepancies: ds})
}

// AddItem handles POST /reconciliations/:id/items
func (h *ReconciliationHandler) AddItem(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.StatementItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.engine.AddStatementItem(c.Request.Context(), sessionID, req.ToDomain()); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Complete handles POST /reconciliations/:id/complete
func (h *ReconciliationHandler) Complete(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.engine.Complete(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSession(s))
}

// Cancel handles DELETE /reconciliations/:id
func (h *ReconciliationHandler) Cancel(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.Cancel(c.Request.Context(), sessionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
