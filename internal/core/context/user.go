// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// SystemActor is recorded as created_by when no caller identity is present.
const SystemActor = "system"

// Actor identifies who issued a ledger mutation. Identity is asserted by the
// caller (X-User-ID header, worker name), never verified here.
type Actor struct {
	UserID string
	Source string // "api", "worker", "seed"
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetUserID returns the actor's user ID or empty string.
func GetUserID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// ActorName returns the value stored in created_by columns.
func ActorName(ctx context.Context) string {
	if id := GetUserID(ctx); id != "" {
		return id
	}
	return SystemActor
}
