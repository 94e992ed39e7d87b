package appctx

import (
	"context"

	"estampa/internal/core/id"
)

// TraceContext holds correlation identifiers for a request.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace stores trace info in context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace info from context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if t, ok := ctx.Value(traceKey{}).(*TraceContext); ok {
		return t
	}
	return nil
}

// NewTrace creates a TraceContext with generated identifiers.
func NewTrace() *TraceContext {
	return &TraceContext{
		TraceID:   id.New().String(),
		RequestID: id.New().String(),
	}
}
