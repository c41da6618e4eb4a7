package trace

import "context"

type tracerKey struct{}
type parentSpanKey struct{}

// WithTracer returns a context carrying t. Attaching nil stores Nop, so
// FromContext never hands back a nil tracer.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, Nop when none is attached.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithParentSpan records id as the enclosing span for work forked from ctx.
// Spans started on the far side of the fork pass the recorded ID to Begin so
// the trace keeps its tree shape across goroutine boundaries.
func WithParentSpan(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, parentSpanKey{}, id)
}

// ParentSpan returns the enclosing span ID recorded on ctx, 0 at the root.
func ParentSpan(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(parentSpanKey{}).(uint64); ok {
		return id
	}
	return 0
}
