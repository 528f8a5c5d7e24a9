package app

import (
	"time"

	"ledger/internal/domain"
	infralock "ledger/internal/infrastructure/lock"
	"ledger/internal/infrastructure/storage/memory"
)

// InMemory wires the container onto a memory.Store with an in-process locker.
func InMemory(store *memory.Store, clock domain.Clock) (*Container, error) {
	accts := store.Accounts()
	bal := store.Balances()
	return New(Repositories{
		Accounts:        accts,
		Tags:            accts,
		Balances:        bal,
		Journal:         store.Journal(),
		FiscalYears:     store.FiscalYears(),
		Reconciliations: store.Reconciliations(),
		CashCounts:      store.CashCounts(),
		Inventory:       store.Inventory(),
		StockTakings:    store.StockTakings(),
		Reports:         bal,
	}, Options{
		Deps: domain.Deps{
			TxManager: store,
			Events:    store,
			Audit:     store,
			Clock:     clock,
		},
		Locker:  infralock.NewLocalLocker(5 * time.Second),
		LockTTL: 30 * time.Second,
	})
}
