package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/registers/balance"
	"ledger/internal/infrastructure/http/v1/dto"
)

// AccountsHandler serves the chart of accounts and the tag registry.
type AccountsHandler struct {
	*BaseHandler
	service  *accounts.Service
	balances *balance.Accumulator
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(base *BaseHandler, service *accounts.Service, balances *balance.Accumulator) *AccountsHandler {
	return &AccountsHandler{BaseHandler: base, service: service, balances: balances}
}

// List handles GET /accounts
func (h *AccountsHandler) List(c *gin.Context) {
	var req dto.AccountListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	list, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": list})
}

// Create handles POST /accounts
func (h *AccountsHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), acc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.AccountResponse{Account: *acc, Tags: []string{}})
}

// Get handles GET /accounts/:code
func (h *AccountsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	acc, err := h.service.Get(ctx, code)
	if err != nil {
		h.Error(c, err)
		return
	}
	tags, err := h.service.TagsOf(ctx, code)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AccountResponse{Account: *acc, Tags: tags})
}

// Update handles PATCH /accounts/:code
func (h *AccountsHandler) Update(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	acc, err := h.service.Update(c.Request.Context(), c.Param("code"), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, acc)
}

// Rollup handles GET /accounts/:code/rollup
func (h *AccountsHandler) Rollup(c *gin.Context) {
	code := c.Param("code")
	total, err := h.balances.Rollup(c.Request.Context(), code)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RollupResponse{Code: code, Balance: total})
}

// AssignTag handles POST /accounts/:code/tags
func (h *AccountsHandler) AssignTag(c *gin.Context) {
	var req dto.AssignTagRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.AssignTag(c.Request.Context(), c.Param("code"), req.Tag); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RemoveTag handles DELETE /accounts/:code/tags/:tag
func (h *AccountsHandler) RemoveTag(c *gin.Context) {
	if err := h.service.RemoveTag(c.Request.Context(), c.Param("code"), c.Param("tag")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListTags handles GET /tags
func (h *AccountsHandler) ListTags(c *gin.Context) {
	defs, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": defs})
}

// DefineTag handles PUT /tags
func (h *AccountsHandler) DefineTag(c *gin.Context) {
	var req dto.DefineTagRequest
	if !h.BindJSON(c, &req) {
		return
	}

	def := req.ToDomain()
	if err := h.service.DefineTag(c.Request.Context(), def); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, def)
}

// TagHolder handles GET /tags/:tag/holder
func (h *AccountsHandler) TagHolder(c *gin.Context) {
	acc, err := h.service.FindUniqueTagHolder(c.Request.Context(), c.Param("tag"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, acc)
}

// RecomputeBalances handles POST /balances/recompute.
// Cached balances are rebuilt from posted history; the report lists what changed.
func (h *AccountsHandler) RecomputeBalances(c *gin.Context) {
	report, err := h.balances.Recompute(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
