// Package tracer abstracts span creation for registry lookups so the
// registry module can use OpenTelemetry without depending on its APIs
// throughout the codebase.
package tracer

import "context"

// Attribute is a key/value pair attached to a span.
type Attribute struct {
	Key   string
	Value string
}

// Span is one traced operation.
type Span interface {
	// End completes the span, recording any error.
	End(err error)
}

// Tracer starts spans around registry lookups.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Noop is a tracer that records nothing. It is the default when no tracing
// backend is configured.
type Noop struct{}

// NewNoop creates a no-op tracer.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
