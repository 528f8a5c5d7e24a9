package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"ledger/internal/infrastructure/storage/postgres"
)

// AuditHistory reads the audit trail.
type AuditHistory interface {
	GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler exposes the audit trail of one entity.
type AuditHandler struct {
	*BaseHandler
	history AuditHistory
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, history AuditHistory) *AuditHandler {
	return &AuditHandler{BaseHandler: base, history: history}
}

// History handles GET /audit/:entityType/:entityId
func (h *AuditHandler) History(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), c.Param("entityType"), c.Param("entityId"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}
	h.OK(c, gin.H{"items": entries})
}
