// Package diag defines the core diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the type-check diagnosis layer and its driver.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the driver or CLI can
//     materialise and optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas application of fixes lives in internal/fix and the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – four-level enum (Note, Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// Notes should be used sparingly: each note must add new context (e.g. "value
// declared here") rather than repeating the diagnostic message.
//
// # Fix suggestions
//
// Fix represents a possible automated correction: a title, a coarse kind, an
// applicability grade, an optional preferred flag, and concrete text edits.
// TextEdit spans are in source coordinates; OldText acts as an optional guard
// that the fix engine validates before applying edits.
//
// # Emitting diagnostics
//
// Phases should use a diag.Reporter to decouple emission from storage. The
// diagnosis layer constructs a ReportBuilder via ReportError/ReportNote and
// chains WithNote / WithFix before calling Emit. diag.BagReporter aggregates
// diagnostics into a Bag, which supports sorting, deduplication and merging.
//
// Keep the data model deterministic: any new fields should avoid side effects
// so the CLI and future tooling can safely serialise diagnostics for caching
// and golden testing.
package diag
