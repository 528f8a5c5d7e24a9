// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ledger/internal/app"
	"ledger/internal/config"
	"ledger/internal/core/apperror"
	appctx "ledger/internal/core/context"
	"ledger/internal/core/types"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/journal"
	infralock "ledger/internal/infrastructure/lock"
	"ledger/internal/infrastructure/storage/postgres"
	"ledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := appctx.WithActor(context.Background(), &appctx.Actor{UserID: "seed", Source: "seed"})

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, "ledger-seed"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txm := postgres.NewTxManager(pool, cfg.DBStatementTimeout)
	container, err := app.Postgres(txm, app.PostgresOptions{
		Locker:  infralock.NewLocalLocker(infralock.DefaultWait),
		LockTTL: cfg.LockTTL,
	})
	if err != nil {
		log.Fatalw("failed to wire ledger", "error", err)
	}

	created, err := app.Seed(ctx, container.Accounts, app.DefaultChart, app.DefaultTags)
	if err != nil {
		log.Fatalw("failed to seed chart of accounts", "error", err)
	}
	log.Infow("chart of accounts seeded", "created", created, "total", len(app.DefaultChart))

	if config.GetEnvBool("SEED_DEMO_DATA", false) {
		if err := seedDemoData(ctx, container, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedDemoData adds the current fiscal year, an opening capital contribution
// and one stocked item. It skips everything when journal entries exist.
func seedDemoData(ctx context.Context, c *app.Container, log *logger.Logger) error {
	existing, err := c.Journal.List(ctx, journal.Filter{Limit: 1})
	if err != nil {
		return err
	}
	if existing.TotalCount > 0 {
		log.Info("journal is not empty, skipping demo data")
		return nil
	}

	now := time.Now().UTC()
	begin := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	name := fmt.Sprintf("FY %d", now.Year())
	err = c.FiscalYears.Create(ctx, &fiscal_year.FiscalYear{BeginTime: begin, EndTime: begin.AddDate(1, 0, 0), Name: &name})
	if err != nil && !apperror.HasCode(err, apperror.CodeConstraintViolation) {
		return fmt.Errorf("create fiscal year: %w", err)
	}

	opening, err := c.Journal.PostEntry(ctx, journal.DraftInput{EntryTime: begin, Note: "Opening capital contribution"},
		[]journal.LineInput{
			{AccountCode: "11120", Debit: 10_000_000, Description: "Bank deposit"},
			{AccountCode: "11110", Debit: 500_000, Description: "Till float"},
			{AccountCode: "31000", Credit: 10_500_000},
		})
	if err != nil {
		return fmt.Errorf("post opening entry: %w", err)
	}
	log.Infow("opening entry posted", "ref", opening.Ref)

	item := &inventory_item.Item{Name: "Widget", AssetAccountCode: "11300"}
	if err := c.Inventory.Create(ctx, item); err != nil {
		return fmt.Errorf("create inventory item: %w", err)
	}
	_, receipt, err := c.Inventory.Receive(ctx, item.ID, inventory_item.ReceiveInput{
		Quantity:          types.NewQuantity(100),
		UnitCost:          1_250,
		OffsetAccountCode: "21000",
		ReceiveTime:       begin.Add(24 * time.Hour),
		Note:              "Initial stock",
	})
	if err != nil {
		return fmt.Errorf("receive stock: %w", err)
	}
	log.Infow("inventory received", "item_id", item.ID, "ref", receipt.Ref)
	return nil
}
