package diagnose

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/fix"
	"cinder/internal/solver"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// RValueTreatedAsLValueFailure fires when a mutable reference was required
// but the expression only produces a value.
type RValueTreatedAsLValueFailure struct {
	noNote
	loc solver.Locator
}

// RValueTreatedAsLValue builds the failure for the locator's anchor.
func RValueTreatedAsLValue(loc solver.Locator) *RValueTreatedAsLValueFailure {
	return &RValueTreatedAsLValueFailure{loc: loc}
}

func (f *RValueTreatedAsLValueFailure) Locator() solver.Locator { return f.loc }

func (f *RValueTreatedAsLValueFailure) DiagnoseAsError(cx *Context) bool {
	if t, ok := cx.TypeOf(cx.Anchor); ok {
		cx.ErrorAtAnchor(diag.TckRValueTreatedAsLValue,
			"cannot pass immutable value of type '%s' as inout argument", cx.TypeName(t)).Emit()
		return true
	}
	cx.ErrorAtAnchor(diag.TckRValueTreatedAsLValue,
		"cannot pass immutable value as inout argument").Emit()
	return true
}

// AssignmentFailure fires when the destination of an assignment is not
// mutable. Diagnosis digs through the destination to name the immutable
// culprit: a 'let' binding, a get-only property, or a plain rvalue.
type AssignmentFailure struct {
	noNote
	loc  solver.Locator
	dest ast.ExprID
}

// ImmutableAssignment builds the failure for the assignment destination.
func ImmutableAssignment(loc solver.Locator, dest ast.ExprID) *AssignmentFailure {
	return &AssignmentFailure{loc: loc, dest: dest}
}

func (f *AssignmentFailure) Locator() solver.Locator { return f.loc }

func (f *AssignmentFailure) DiagnoseAsError(cx *Context) bool {
	dest := cx.Snap.Exprs.SemanticsProviding(f.dest)
	culprit, decl := digImmutableBase(cx, dest)

	sp := cx.SpanOf(dest)
	if decl != nil {
		name := cx.Snap.Decls.NameOf(culpritDecl(cx, culprit))
		switch {
		case decl.Kind == symbols.DeclLet || decl.Has(symbols.FlagLetProperty):
			cx.Error(diag.TckImmutableAssignment, sp,
				"cannot assign to value: '%s' is a 'let' constant", name).
				WithNote(cx.SpanOf(culprit), "change 'let' to 'var' to make it mutable").
				Emit()
			return true
		case decl.Has(symbols.FlagComputedReadOnly):
			cx.Error(diag.TckImmutableAssignment, sp,
				"cannot assign to property: '%s' is a get-only property", name).Emit()
			return true
		}
	}

	if t, ok := cx.TypeOf(dest); ok {
		cx.Error(diag.TckImmutableAssignment, sp,
			"cannot assign to immutable expression of type '%s'", cx.TypeName(t)).Emit()
		return true
	}
	cx.Error(diag.TckImmutableAssignment, sp, "cannot assign to immutable expression").Emit()
	return true
}

// digImmutableBase walks member and subscript bases toward the root
// reference, returning the innermost expression with a known declaration.
func digImmutableBase(cx *Context, e ast.ExprID) (ast.ExprID, *symbols.Decl) {
	exprs := cx.Snap.Exprs
	for {
		e = exprs.SemanticsProviding(e)
		if decl := cx.Decl(culpritDecl(cx, e)); decl != nil {
			return e, decl
		}
		switch exprs.Kind(e) {
		case ast.ExprMember:
			data, _ := exprs.Member(e)
			e = data.Base
		case ast.ExprSubscript:
			data, _ := exprs.Subscript(e)
			e = data.Base
		case ast.ExprForceUnwrap:
			data, _ := exprs.ForceUnwrap(e)
			e = data.Base
		case ast.ExprOptionalChain:
			data, _ := exprs.OptionalChain(e)
			e = data.Base
		default:
			return e, nil
		}
	}
}

func culpritDecl(cx *Context, e ast.ExprID) symbols.DeclID {
	if choice, ok := cx.ChoiceFor(e); ok {
		return choice.Decl
	}
	return symbols.NoDeclID
}

// InvalidUseOfAddressOfFailure fires when '&' appears outside an inout
// argument position.
type InvalidUseOfAddressOfFailure struct {
	noNote
	loc solver.Locator
}

// InvalidUseOfAddressOf builds the failure.
func InvalidUseOfAddressOf(loc solver.Locator) *InvalidUseOfAddressOfFailure {
	return &InvalidUseOfAddressOfFailure{loc: loc}
}

func (f *InvalidUseOfAddressOfFailure) Locator() solver.Locator { return f.loc }

func (f *InvalidUseOfAddressOfFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckInvalidUseOfAddressOf,
		"use of extraneous '&': '&' may only be used to pass an argument to an 'inout' parameter").Emit()
	return true
}

// MissingAddressOfFailure fires when a mutable value is passed to an inout
// parameter without the explicit '&'.
type MissingAddressOfFailure struct {
	noNote
	loc      solver.Locator
	argument types.TypeID
}

// MissingAddressOf builds the failure from the argument's type.
func MissingAddressOf(loc solver.Locator, argument types.TypeID) *MissingAddressOfFailure {
	return &MissingAddressOfFailure{loc: loc, argument: argument}
}

func (f *MissingAddressOfFailure) Locator() solver.Locator { return f.loc }

func (f *MissingAddressOfFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckMissingAddressOf,
		"passing value of type '%s' to an inout parameter requires explicit '&'",
		cx.TypeName(f.argument)).
		WithFix(fix.InsertText("insert '&'", cx.SpanOf(cx.Anchor).CollapseToStart(), "&", "", fix.Preferred())).
		Emit()
	return true
}
