package context

import (
	"context"

	"github.com/google/uuid"
)

// Trace origins.
const (
	OriginHTTP   = "http"
	OriginWorker = "worker"
	OriginSeed   = "seed"
)

// TraceContext correlates the log lines of one request or one worker cycle.
// Span ids come from the otel span in the same context.
type TraceContext struct {
	TraceID   string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// NewTrace starts a trace for origin with fresh ids.
func NewTrace(origin string) *TraceContext {
	id := uuid.NewString()
	return &TraceContext{TraceID: id, RequestID: id, Origin: origin}
}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// GetTrace returns the TraceContext from context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return tc
}

// TraceID returns the trace id carried by ctx, or "".
func TraceID(ctx context.Context) string {
	if tc := GetTrace(ctx); tc != nil {
		return tc.TraceID
	}
	return ""
}
