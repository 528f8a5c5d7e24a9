package app

import (
	"fmt"
	"time"

	corelock "ledger/internal/core/lock"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/infrastructure/storage/postgres"
	"ledger/internal/infrastructure/storage/postgres/catalog_repo"
	"ledger/internal/infrastructure/storage/postgres/document_repo"
	"ledger/internal/infrastructure/storage/postgres/register_repo"
)

// PostgresOptions configures the PostgreSQL wiring.
type PostgresOptions struct {
	Clock   domain.Clock
	Locker  corelock.Locker
	LockTTL time.Duration
	// Registry, when set, serves tag-definition reads (see cache.TagRegistryCache).
	Registry accounts.TagRegistry
}

// PostgresRepositories builds every repository over txm.
func PostgresRepositories(txm *postgres.TxManager) Repositories {
	accts := catalog_repo.NewAccountRepo(txm)
	bal := register_repo.NewBalanceRepo(txm)
	return Repositories{
		Accounts:        accts,
		Tags:            accts,
		Balances:        bal,
		Journal:         document_repo.NewJournalRepo(txm),
		FiscalYears:     catalog_repo.NewFiscalYearRepo(txm),
		Reconciliations: document_repo.NewReconciliationRepo(txm),
		CashCounts:      document_repo.NewCashCountRepo(txm),
		Inventory:       catalog_repo.NewInventoryItemRepo(txm),
		StockTakings:    document_repo.NewStockTakingRepo(txm),
		Reports:         bal,
	}
}

// Postgres wires the container onto PostgreSQL. Events go to the
// transactional outbox and audit records to sys_audit.
func Postgres(txm *postgres.TxManager, opts PostgresOptions) (*Container, error) {
	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.Locker == nil {
		return nil, fmt.Errorf("postgres wiring requires a locker")
	}

	return New(PostgresRepositories(txm), Options{
		Deps: domain.Deps{
			TxManager: txm,
			Events:    postgres.NewOutboxPublisher(txm),
			Audit:     audit,
			Clock:     opts.Clock,
		},
		Locker:   opts.Locker,
		LockTTL:  opts.LockTTL,
		Registry: opts.Registry,
	})
}
