// Package domain holds the types shared by the ledger's domain packages.
package domain

import (
	"context"
)

// ListFilter contains paging options shared by list operations.
type ListFilter struct {
	Limit  int
	Offset int
}

// Normalize clamps paging to [1, max], falling back to def when unset.
func (f ListFilter) Normalize(def, max int) ListFilter {
	if f.Limit <= 0 {
		f.Limit = def
	}
	if f.Limit > max {
		f.Limit = max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// HookEvent represents a lifecycle point of a ledger document.
type HookEvent string

const (
	HookBeforePost    HookEvent = "before_post"
	HookAfterPost     HookEvent = "after_post"
	HookAfterComplete HookEvent = "after_complete"
	HookBeforeDiscard HookEvent = "before_discard"
)

// Hook runs at a lifecycle point. Hooks run inside the document's transaction;
// an error aborts the operation.
type Hook[T any] func(ctx context.Context, doc T) error

// HookRegistry stores lifecycle hooks for a document type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers hook for event. Not safe to call concurrently with Run.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes hooks for event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, doc T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
