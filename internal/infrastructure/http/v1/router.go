package v1

import (
	"github.com/gin-gonic/gin"

	"ledger/internal/app"
	"ledger/internal/infrastructure/cache"
	"ledger/internal/infrastructure/http/v1/handlers"
	"ledger/internal/infrastructure/http/v1/middleware"
	"ledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Container holds the wired ledger services.
	Container *app.Container

	// DB is used by readiness checks; nil in the in-memory mode.
	DB handlers.Pinger

	// Registry is reported by /health/info when set.
	Registry *cache.TagRegistryCache

	// Logger for request logging
	Logger *logger.Logger

	// Idempotency enables X-Idempotency-Key handling when set.
	Idempotency middleware.IdempotencyStore

	// Audit exposes the audit trail. Defaults to the container's audit
	// logger when it can read history.
	Audit handlers.AuditHistory

	// Version is reported by /health/info.
	Version string

	// Debug switches Gin to debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Registry, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.UserContext())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerAccountRoutes(api, base, cfg)
	registerJournalRoutes(api, base, cfg)
	registerReconciliationRoutes(api, base, cfg)
	registerInventoryRoutes(api, base, cfg)
	registerReportRoutes(api, base, cfg)

	if cfg.Audit == nil {
		cfg.Audit, _ = cfg.Container.Deps.Audit.(handlers.AuditHistory)
	}
	if cfg.Audit != nil {
		auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
		api.GET("/audit/:entityType/:entityId", auditHandler.History)
	}

	return router
}

// registerAccountRoutes registers the chart of accounts and the tag registry.
func registerAccountRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAccountsHandler(base, cfg.Container.Accounts, cfg.Container.Balances)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.List)
		accounts.POST("", h.Create)
		accounts.GET("/:code", h.Get)
		accounts.PATCH("/:code", h.Update)
		accounts.GET("/:code/rollup", h.Rollup)
		accounts.POST("/:code/tags", h.AssignTag)
		accounts.DELETE("/:code/tags/:tag", h.RemoveTag)
	}

	tags := rg.Group("/tags")
	{
		tags.GET("", h.ListTags)
		tags.PUT("", h.DefineTag)
		tags.GET("/:tag/holder", h.TagHolder)
	}

	rg.POST("/balances/recompute", h.RecomputeBalances)
}

// registerJournalRoutes registers journal entry endpoints.
func registerJournalRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewJournalHandler(base, cfg.Container.Journal)

	entries := rg.Group("/journal-entries")
	RegisterResourceRoutes(entries, h, "ref")
	entries.DELETE("/:ref", h.Discard)
	entries.POST("/:ref/lines", h.AddLine)
	entries.DELETE("/:ref/lines/:line", h.RemoveLine)
	entries.POST("/:ref/post", h.Post)

	fy := handlers.NewFiscalYearHandler(base, cfg.Container.FiscalYears)
	RegisterResourceRoutes(rg.Group("/fiscal-years"), fy, "id")
}

// registerReconciliationRoutes registers bank reconciliation and cash count endpoints.
func registerReconciliationRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReconciliationHandler(base, cfg.Container.Reconciliation)

	sessions := rg.Group("/reconciliations")
	RegisterResourceRoutes(sessions, h, "id")
	sessions.POST("", h.Begin)
	sessions.POST("/:id/items", h.AddItem)
	sessions.POST("/:id/complete", h.Complete)
	sessions.DELETE("/:id", h.Cancel)

	cash := handlers.NewCashCountHandler(base, cfg.Container.CashCounts)
	counts := rg.Group("/cash-counts")
	RegisterResourceRoutes(counts, cash, "id")
	counts.POST("", cash.Record)
}

// registerInventoryRoutes registers inventory item and stock taking endpoints.
func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInventoryHandler(base, cfg.Container.Inventory, cfg.Container.StockTakings)

	items := rg.Group("/inventory")
	RegisterResourceRoutes(items, h, "id")
	items.POST("/:id/receipts", h.Receive)

	takings := rg.Group("/stock-takings")
	{
		takings.GET("", h.ListStockTakings)
		takings.POST("", h.RecordStockTaking)
		takings.GET("/:id", h.GetStockTaking)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportsHandler(base, cfg.Container.Reports)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.TrialBalance)
		reports.GET("/net-change", h.NetChange)
		reports.GET("/cash-count-history", h.CashCountHistory)
		reports.GET("/balance-verification", h.BalanceVerification)
	}
}
