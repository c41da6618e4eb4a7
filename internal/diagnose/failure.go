// Package diagnose turns failed constraint solves into user-facing
// diagnostics. The solver constructs one concrete Failure per unsatisfied
// constraint and hands it to Diagnose together with a borrowed Snapshot;
// each failure either explains itself with exactly one error diagnostic or
// declines, in which case the solver falls back to a generic message.
package diagnose

import (
	"errors"
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// StrictInvariants makes malformed-locator construction panic instead of
// returning ErrMalformedLocator. Tests enable it so solver dispatch bugs
// surface immediately.
var StrictInvariants = false

// ErrMalformedLocator reports that a failure constructor was handed a locator
// whose shape does not match the variant being built. This is a dispatch bug
// in the caller, not a user error.
var ErrMalformedLocator = errors.New("diagnose: malformed locator for failure variant")

// Failure is one diagnosable constraint failure. Implementations carry only
// their payload; all shared lookups go through the Context.
type Failure interface {
	// Locator returns the derivation path this failure was constructed for.
	Locator() solver.Locator
	// DiagnoseAsError emits at most one error diagnostic and reports whether
	// it did. Returning false means "cannot explain this shape"; the caller
	// is expected to fall back.
	DiagnoseAsError(cx *Context) bool
	// DiagnoseAsNote emits the compact candidate-note form, when one exists.
	DiagnoseAsNote(cx *Context) bool
}

// noNote is the embeddable default for variants without a note form.
type noNote struct{}

func (noNote) DiagnoseAsNote(*Context) bool { return false }

// Diagnose runs one diagnosis attempt. It resolves the failure's anchor,
// builds the per-attempt Context and invokes the chosen capability once.
//
// Contract: with asNote=false the call either emits exactly one error
// diagnostic and returns true, or emits nothing and returns false. With
// asNote=true it emits zero-or-one note. The Context borrows snap for the
// duration of the call only.
func Diagnose(snap *solver.Snapshot, r diag.Reporter, root ast.ExprID, f Failure, asNote bool) bool {
	if snap == nil || f == nil {
		return false
	}
	loc := f.Locator()
	anchor, complex := resolveAnchor(snap, loc)
	cx := &Context{
		Snap:      snap,
		Reporter:  r,
		Root:      root,
		Loc:       loc,
		RawAnchor: loc.Anchor,
		Anchor:    anchor,
		Complex:   complex,
	}
	if asNote {
		return f.DiagnoseAsNote(cx)
	}
	return f.DiagnoseAsError(cx)
}

// Context is the shared service surface for one diagnosis attempt. It wraps
// the borrowed snapshot with the lookups every variant needs so no variant
// re-implements anchor resolution or overload scanning.
type Context struct {
	Snap     *solver.Snapshot
	Reporter diag.Reporter
	Root     ast.ExprID
	Loc      solver.Locator

	// RawAnchor is the locator's anchor before path narrowing; Anchor is the
	// resolved one. Complex is set when narrowing stopped early.
	RawAnchor ast.ExprID
	Anchor    ast.ExprID
	Complex   bool
}

// TypeOf returns the simplified solved type of an expression.
func (cx *Context) TypeOf(e ast.ExprID) (types.TypeID, bool) {
	return cx.Snap.TypeOf(e)
}

// ResolveType substitutes solved bindings into t, optionally restoring the
// user-written sugar spelling.
func (cx *Context) ResolveType(t types.TypeID, reconstituteSugar bool) types.TypeID {
	resolved := cx.Snap.Types.Substitute(t, cx.Snap.Bindings)
	if reconstituteSugar {
		resolved = cx.Snap.Types.Reconstitute(resolved)
	}
	return resolved
}

// TypeName renders the display spelling of a type after resolution.
func (cx *Context) TypeName(t types.TypeID) string {
	return cx.Snap.Types.String(cx.ResolveType(t, true))
}

// ResolvedOverload finds the overload choice recorded for an exact locator.
func (cx *Context) ResolvedOverload(loc solver.Locator) (solver.OverloadChoice, bool) {
	return cx.Snap.ResolvedOverloadFor(loc)
}

// ChoiceFor finds the newest overload choice anchored at e, regardless of the
// recorded path. Used when the failure knows the reference expression but not
// the exact callee locator.
func (cx *Context) ChoiceFor(e ast.ExprID) (solver.OverloadChoice, bool) {
	for node := cx.Snap.OverloadChain(); node != nil; node = node.Prev {
		if node.Locator.Anchor == e {
			return node.Choice, true
		}
	}
	return solver.OverloadChoice{}, false
}

// RestrictionFor returns the conversion restriction recorded for a source
// type, if any.
func (cx *Context) RestrictionFor(t types.TypeID) (solver.Restriction, bool) {
	return cx.Snap.RestrictionFor(t)
}

// ParentOf returns the syntactic parent, NoExprID at the root.
func (cx *Context) ParentOf(e ast.ExprID) ast.ExprID {
	return cx.Snap.Parents.ParentOf(e)
}

// ArgumentExprFor returns the i-th argument of the call or subscript that e
// belongs to, together with its position, when e is itself an argument.
func (cx *Context) ArgumentExprFor(e ast.ExprID) (parent ast.ExprID, index int, ok bool) {
	parent = cx.ParentOf(e)
	for parent.IsValid() {
		args, isApply := ast.ArgumentsFor(cx.Snap.Exprs, parent)
		if isApply {
			for i, arg := range args {
				if cx.Snap.Exprs.SemanticsProviding(arg.Value) == cx.Snap.Exprs.SemanticsProviding(e) || arg.Value == e {
					return parent, i, true
				}
			}
			return ast.NoExprID, 0, false
		}
		e = parent
		parent = cx.ParentOf(parent)
	}
	return ast.NoExprID, 0, false
}

// SpanOf returns the source span of an expression.
func (cx *Context) SpanOf(e ast.ExprID) source.Span {
	return cx.Snap.Exprs.Span(e)
}

// Snippet returns the source text under a span, "" when no file set is
// attached to the snapshot. Fixes that need to quote source degrade to
// message-only diagnostics without one.
func (cx *Context) Snippet(sp source.Span) string {
	if cx.Snap.Files == nil {
		return ""
	}
	return cx.Snap.Files.Snippet(sp)
}

// Decl returns the declaration record, nil when absent.
func (cx *Context) Decl(id symbols.DeclID) *symbols.Decl {
	return cx.Snap.Decls.Get(id)
}

// DeclName renders a declaration name, "" when unavailable.
func (cx *Context) DeclName(id symbols.DeclID) string {
	return cx.Snap.Decls.NameOf(id)
}

// Name renders an interned string, "" when unavailable.
func (cx *Context) Name(id source.StringID) string {
	if cx.Snap.Types == nil || cx.Snap.Types.Names() == nil {
		return ""
	}
	s, _ := cx.Snap.Types.Names().Lookup(id)
	return s
}

// Error starts an error report at the given span. Formatting is done here so
// variants forward only their typed payload.
func (cx *Context) Error(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(cx.Reporter, code, sp, fmt.Sprintf(format, args...))
}

// Note starts a candidate-note report at the given span.
func (cx *Context) Note(code diag.Code, sp source.Span, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportNote(cx.Reporter, code, sp, fmt.Sprintf(format, args...))
}

// ErrorAtAnchor is the common case: an error attributed to the resolved
// anchor.
func (cx *Context) ErrorAtAnchor(code diag.Code, format string, args ...any) *diag.ReportBuilder {
	return cx.Error(code, cx.SpanOf(cx.Anchor), format, args...)
}

// malformedLocator enforces the construction invariant shared by variants
// with locator-shape preconditions.
func malformedLocator(variant string, loc solver.Locator) error {
	err := fmt.Errorf("%w: %s got %s", ErrMalformedLocator, variant, loc)
	if StrictInvariants {
		panic(err)
	}
	return err
}
