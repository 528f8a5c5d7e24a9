package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"ledger/internal/domain/documents/journal"
	"ledger/internal/infrastructure/http/v1/dto"
	"ledger/pkg/logger"
)

// JournalHandler serves journal entries.
type JournalHandler struct {
	*BaseHandler
	service *journal.Service
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(base *BaseHandler, service *journal.Service) *JournalHandler {
	return &JournalHandler{BaseHandler: base, service: service}
}

// List handles GET /journal-entries
func (h *JournalHandler) List(c *gin.Context) {
	var req dto.EntryListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result, dto.FromJournalEntry))
}

// Create handles POST /journal-entries.
// With post=true the entry is posted atomically; otherwise a draft is
// created and the given lines are added to it.
func (h *JournalHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if req.Post {
		posted, err := h.service.PostEntry(ctx, req.DraftInput(), req.LineInputs())
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, dto.FromJournalEntry(posted))
		return
	}

	ref, err := h.service.DraftEntry(ctx, req.DraftInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	for _, line := range req.LineInputs() {
		if _, err := h.service.AddLine(ctx, ref, line); err != nil {
			// Leave nothing half-built behind.
			if derr := h.service.Discard(context.WithoutCancel(ctx), ref); derr != nil {
				logger.Warn(ctx, "discard incomplete draft", "ref", ref, "error", derr)
			}
			h.Error(c, err)
			return
		}
	}

	e, err := h.service.Get(ctx, ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromJournalEntry(e))
}

// Get handles GET /journal-entries/:ref
func (h *JournalHandler) Get(c *gin.Context) {
	ref, ok := h.ParseRef(c, "ref")
	if !ok {
		return
	}

	e, err := h.service.Get(c.Request.Context(), ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromJournalEntry(e))
}

// AddLine handles POST /journal-entries/:ref/lines
func (h *JournalHandler) AddLine(c *gin.Context) {
	ref, ok := h.ParseRef(c, "ref")
	if !ok {
		return
	}
	var req dto.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	n, err := h.service.AddLine(c.Request.Context(), ref, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.LineNumberResponse{Ref: ref, LineNumber: n})
}

// RemoveLine handles DELETE /journal-entries/:ref/lines/:line
func (h *JournalHandler) RemoveLine(c *gin.Context) {
	ref, ok := h.ParseRef(c, "ref")
	if !ok {
		return
	}
	line, ok := h.ParseRef(c, "line")
	if !ok {
		return
	}

	if err := h.service.RemoveLine(c.Request.Context(), ref, int(line)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Post handles POST /journal-entries/:ref/post
func (h *JournalHandler) Post(c *gin.Context) {
	ref, ok := h.ParseRef(c, "ref")
	if !ok {
		return
	}

	posted, err := h.service.Post(c.Request.Context(), ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromJournalEntry(posted))
}

// Discard handles DELETE /journal-entries/:ref
func (h *JournalHandler) Discard(c *gin.Context) {
	ref, ok := h.ParseRef(c, "ref")
	if !ok {
		return
	}

	if err := h.service.Discard(c.Request.Context(), ref); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
