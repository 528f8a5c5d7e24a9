// Package app wires the ledger's domain services onto a storage backend.
package app

import (
	"time"

	"ledger/internal/core/lock"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/internal/domain/documents/stock_taking"
	"ledger/internal/domain/registers/balance"
	"ledger/internal/domain/reports"
)

// Repositories is the storage side of the ledger.
type Repositories struct {
	Accounts        accounts.Repository
	Tags            accounts.TagRepository
	Balances        balance.Repository
	Journal         journal.Repository
	FiscalYears     fiscal_year.Repository
	Reconciliations reconciliation.Repository
	CashCounts      cash_count.Repository
	Inventory       inventory_item.Repository
	StockTakings    stock_taking.Repository
	Reports         reports.Repository
}

// Options configures the container.
type Options struct {
	Deps    domain.Deps
	Locker  lock.Locker
	LockTTL time.Duration
	// Registry replaces repository reads of tag definitions (a cache).
	Registry accounts.TagRegistry
}

// Container holds the wired services.
type Container struct {
	Deps           domain.Deps
	Accounts       *accounts.Service
	Balances       *balance.Accumulator
	Journal        *journal.Service
	FiscalYears    *fiscal_year.Service
	Reconciliation *reconciliation.Engine
	CashCounts     *cash_count.Service
	Inventory      *inventory_item.Service
	StockTakings   *stock_taking.Service
	Reports        *reports.Service
}

// New wires every service.
func New(repos Repositories, opts Options) (*Container, error) {
	rules, err := accounts.NewRuleEvaluator()
	if err != nil {
		return nil, err
	}
	deps := opts.Deps

	acct := accounts.NewService(repos.Accounts, repos.Tags, rules, deps)
	if opts.Registry != nil {
		acct.UseRegistry(opts.Registry)
	}
	acc := balance.NewAccumulator(repos.Balances, acct, deps)
	jrnl := journal.NewService(repos.Journal, acct, acc, deps)
	fy := fiscal_year.NewService(repos.FiscalYears, deps)
	engine := reconciliation.NewEngine(reconciliation.Config{
		Repo:      repos.Reconciliations,
		Accounts:  acct,
		Movements: acc,
		Journal:   jrnl,
		Locker:    opts.Locker,
		LockTTL:   opts.LockTTL,
		Deps:      deps,
	})
	cash := cash_count.NewService(repos.CashCounts, acct, engine, deps)
	inv := inventory_item.NewService(repos.Inventory, acct, jrnl, deps)
	st := stock_taking.NewService(repos.StockTakings, inv, acct, engine, deps)
	rep := reports.NewService(repos.Reports, acct, fy, acc, cash)

	return &Container{
		Deps:           deps,
		Accounts:       acct,
		Balances:       acc,
		Journal:        jrnl,
		FiscalYears:    fy,
		Reconciliation: engine,
		CashCounts:     cash,
		Inventory:      inv,
		StockTakings:   st,
		Reports:        rep,
	}, nil
}
