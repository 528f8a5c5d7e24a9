package handlers

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/domain/reports"
	"ledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// TrialBalance handles GET /reports/trial-balance
func (h *ReportsHandler) TrialBalance(c *gin.Context) {
	var req dto.TrialBalanceRequest
	if !h.BindQuery(c, &req) {
		return
	}

	tb, err := h.service.TrialBalance(c.Request.Context(), req.AsOf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"asOf":        tb.AsOf,
		"rows":        tb.Rows,
		"totalDebit":  tb.TotalDebit,
		"totalCredit": tb.TotalCredit,
		"balanced":    tb.IsBalanced(),
	})
}

// NetChange handles GET /reports/net-change
func (h *ReportsHandler) NetChange(c *gin.Context) {
	var req dto.NetChangeRequest
	if !h.BindQuery(c, &req) {
		return
	}
	fyID, codes, err := req.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	nc, err := h.service.NetChange(c.Request.Context(), fyID, codes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, nc)
}

// CashCountHistory handles GET /reports/cash-count-history
func (h *ReportsHandler) CashCountHistory(c *gin.Context) {
	var req dto.CashCountListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.CashCountHistory(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// BalanceVerification handles GET /reports/balance-verification
func (h *ReportsHandler) BalanceVerification(c *gin.Context) {
	report, err := h.service.BalanceVerification(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
