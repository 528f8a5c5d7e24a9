package domain

import (
	"context"
	"time"

	"ledger/internal/core/tx"
)

// DomainEvent is published through the transactional outbox.
type DomainEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       any
}

// Aggregate types carried by ledger events.
const (
	AggregateJournalEntry   = "journal_entry"
	AggregateReconciliation = "reconciliation_session"
	AggregateCashCount      = "cash_count"
	AggregateStockTaking    = "stock_taking"
	AggregateAccount        = "account"
)

// EventPublisher writes events in the caller's transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// AuditAction is the audited operation.
type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditUpdate   AuditAction = "update"
	AuditDelete   AuditAction = "delete"
	AuditPost     AuditAction = "post"
	AuditComplete AuditAction = "complete"
	AuditAssign   AuditAction = "assign"
)

// AuditRecord is one audit trail entry.
type AuditRecord struct {
	EntityType string
	EntityID   string
	Action     AuditAction
	Changes    map[string]any
}

// AuditLogger writes audit records in the caller's transaction.
type AuditLogger interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// Deps bundles the collaborators every ledger service needs.
type Deps struct {
	TxManager tx.Manager
	Events    EventPublisher
	Audit     AuditLogger
	Clock     Clock
}

// Now returns the clock's time truncated to storage resolution.
func (d Deps) Now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC().Truncate(time.Millisecond)
	}
	return d.Clock().UTC().Truncate(time.Millisecond)
}

// Publish sends event when a publisher is configured.
func (d Deps) Publish(ctx context.Context, event DomainEvent) error {
	if d.Events == nil {
		return nil
	}
	return d.Events.Publish(ctx, event)
}

// Record writes rec when an audit logger is configured.
func (d Deps) Record(ctx context.Context, rec AuditRecord) error {
	if d.Audit == nil {
		return nil
	}
	return d.Audit.Record(ctx, rec)
}
