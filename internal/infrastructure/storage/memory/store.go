// Package memory is an in-process implementation of every ledger repository.
// Transactions serialize on one lock and restore a snapshot on error, so
// domain services behave as they do against PostgreSQL. Used by tests and by
// the server's in-memory development mode.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"ledger/internal/core/id"
	"ledger/internal/core/tx"
	"ledger/internal/domain"
	"ledger/internal/domain/catalogs/accounts"
	"ledger/internal/domain/catalogs/fiscal_year"
	"ledger/internal/domain/catalogs/inventory_item"
	"ledger/internal/domain/documents/cash_count"
	"ledger/internal/domain/documents/journal"
	"ledger/internal/domain/documents/reconciliation"
	"ledger/internal/domain/documents/stock_taking"
)

type txKey struct{}

type applicationKey struct {
	ref  int64
	code string
}

type state struct {
	accounts     map[string]accounts.Account
	tagDefs      map[string]accounts.TagDefinition
	tags         map[string]map[string]struct{} // tag -> account codes
	entries      map[int64]journal.JournalEntry
	nextRef      int64
	applied      map[applicationKey]struct{}
	fiscalYears  map[id.ID]fiscal_year.FiscalYear
	sessions     map[id.ID]reconciliation.Session
	stmtItems    map[id.ID][]reconciliation.StatementItem
	discrepancy  map[id.ID][]reconciliation.Discrepancy
	cashCounts   map[id.ID]cash_count.CashCount
	items        map[id.ID]inventory_item.Item
	stockTakings map[id.ID]stock_taking.StockTaking
	events       []domain.DomainEvent
	audit        []domain.AuditRecord
}

func newState() *state {
	return &state{
		accounts:     make(map[string]accounts.Account),
		tagDefs:      make(map[string]accounts.TagDefinition),
		tags:         make(map[string]map[string]struct{}),
		entries:      make(map[int64]journal.JournalEntry),
		applied:      make(map[applicationKey]struct{}),
		fiscalYears:  make(map[id.ID]fiscal_year.FiscalYear),
		sessions:     make(map[id.ID]reconciliation.Session),
		stmtItems:    make(map[id.ID][]reconciliation.StatementItem),
		discrepancy:  make(map[id.ID][]reconciliation.Discrepancy),
		cashCounts:   make(map[id.ID]cash_count.CashCount),
		items:        make(map[id.ID]inventory_item.Item),
		stockTakings: make(map[id.ID]stock_taking.StockTaking),
	}
}

// clone deep-copies the parts that are mutated in place.
func (st *state) clone() *state {
	c := &state{
		accounts:     maps.Clone(st.accounts),
		tagDefs:      maps.Clone(st.tagDefs),
		tags:         make(map[string]map[string]struct{}, len(st.tags)),
		entries:      make(map[int64]journal.JournalEntry, len(st.entries)),
		nextRef:      st.nextRef,
		applied:      maps.Clone(st.applied),
		fiscalYears:  maps.Clone(st.fiscalYears),
		sessions:     maps.Clone(st.sessions),
		stmtItems:    make(map[id.ID][]reconciliation.StatementItem, len(st.stmtItems)),
		discrepancy:  make(map[id.ID][]reconciliation.Discrepancy, len(st.discrepancy)),
		cashCounts:   maps.Clone(st.cashCounts),
		items:        maps.Clone(st.items),
		stockTakings: maps.Clone(st.stockTakings),
		events:       slices.Clone(st.events),
		audit:        slices.Clone(st.audit),
	}
	for tag, holders := range st.tags {
		c.tags[tag] = maps.Clone(holders)
	}
	for ref, e := range st.entries {
		e.Lines = slices.Clone(e.Lines)
		c.entries[ref] = e
	}
	for sid, items := range st.stmtItems {
		c.stmtItems[sid] = slices.Clone(items)
	}
	for sid, ds := range st.discrepancy {
		c.discrepancy[sid] = slices.Clone(ds)
	}
	return c
}

// Store holds the ledger in memory.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// RunInTransaction implements tx.Manager. Nested calls join the outer
// transaction; an error from the outermost fn restores the snapshot taken
// when it started.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// read takes the shared lock unless ctx already holds the store.
func (s *Store) read(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// write takes the exclusive lock unless ctx already holds the store.
func (s *Store) write(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Events returns every published event in publish order.
func (s *Store) Events() []domain.DomainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.events)
}

// AuditRecords returns every audit record in write order.
func (s *Store) AuditRecords() []domain.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.audit)
}

// Publish implements domain.EventPublisher.
func (s *Store) Publish(ctx context.Context, event domain.DomainEvent) error {
	defer s.write(ctx)()
	s.st.events = append(s.st.events, event)
	return nil
}

// Record implements domain.AuditLogger.
func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	defer s.write(ctx)()
	s.st.audit = append(s.st.audit, rec)
	return nil
}

// page applies limit/offset to a sorted slice.
func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

var (
	_ tx.ReadOnlyManager    = (*Store)(nil)
	_ domain.EventPublisher = (*Store)(nil)
	_ domain.AuditLogger    = (*Store)(nil)
)
