// Package trace provides a lightweight tracing subsystem for scenario runs.
//
// Tracing answers "where did the time go" and "where did it hang" questions
// for long directory runs: every scenario and every stage inside it (load,
// materialize, diagnose, render) can emit begin/end spans, and a heartbeat
// keeps ticking even when a stage is stuck.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	cinder diag --trace=- --trace-level=stage ./scenarios
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - nopTracer: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for post-mortem dumps
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelError: only post-mortem dumps
//   - LevelScenario: run and per-scenario boundaries
//   - LevelStage: per-stage events inside a scenario
//   - LevelDebug: everything including per-diagnostic points
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: top-level run operations
//   - ScopeScenario: one scenario file
//   - ScopeStage: a stage within a scenario (materialize, diagnose, render)
//   - ScopeDiag: a single emitted diagnostic
//
// # Context Propagation
//
// Tracers are propagated through the run via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeStage, "materialize", parentID)
//	defer span.End("")
package trace
