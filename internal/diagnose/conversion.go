package diagnose

import (
	"strings"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/fix"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/types"
)

// ContextualFailure fires when an expression's produced type does not match
// the type its context expects.
type ContextualFailure struct {
	noNote
	loc  solver.Locator
	from types.TypeID
	to   types.TypeID
}

// ContextualMismatch builds the general produced-vs-expected failure.
func ContextualMismatch(loc solver.Locator, from, to types.TypeID) *ContextualFailure {
	return &ContextualFailure{loc: loc, from: from, to: to}
}

func (f *ContextualFailure) Locator() solver.Locator { return f.loc }

func (f *ContextualFailure) DiagnoseAsError(cx *Context) bool {
	from := cx.ResolveType(f.from, false)
	to := cx.ResolveType(f.to, false)

	// A function value whose result is exactly the expected type usually
	// means a missing call.
	if fn, ok := cx.Snap.Types.FuncOf(from); ok && len(fn.Params) == 0 && fn.Result == to {
		cx.ErrorAtAnchor(diag.TckMissingCallForConversion,
			"function produces expected type '%s'; did you mean to call it with '()'?",
			cx.TypeName(to)).
			WithFix(fix.InsertText("insert '()'", cx.SpanOf(cx.Anchor).CollapseToEnd(), "()", "", fix.Preferred())).
			Emit()
		return true
	}

	var format string
	switch cx.Snap.ContextualPurpose {
	case solver.PurposeReturn:
		format = "cannot convert return expression of type '%s' to return type '%s'"
	case solver.PurposeInitialization, solver.PurposeAssignment:
		format = "cannot convert value of type '%s' to specified type '%s'"
	case solver.PurposeCallArgument:
		format = "cannot convert value of type '%s' to expected argument type '%s'"
	case solver.PurposeCoercion:
		format = "cannot convert value of type '%s' to type '%s' in coercion"
	default:
		format = "cannot convert value of type '%s' to expected type '%s'"
	}
	cx.ErrorAtAnchor(diag.TckContextualMismatch, format, cx.TypeName(f.from), cx.TypeName(f.to)).Emit()
	return true
}

// CollectionElementContextualFailure fires when a collection literal element
// does not fit the collection's element type.
type CollectionElementContextualFailure struct {
	noNote
	loc  solver.Locator
	from types.TypeID
	to   types.TypeID
}

// CollectionElementMismatch builds the element-level contextual failure.
func CollectionElementMismatch(loc solver.Locator, from, to types.TypeID) *CollectionElementContextualFailure {
	return &CollectionElementContextualFailure{loc: loc, from: from, to: to}
}

func (f *CollectionElementContextualFailure) Locator() solver.Locator { return f.loc }

func (f *CollectionElementContextualFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckCollectionElementMismatch,
		"cannot convert value of type '%s' to expected element type '%s'",
		cx.TypeName(f.from), cx.TypeName(f.to)).Emit()
	return true
}

// MissingExplicitConversionFailure fires when a conversion exists but must be
// spelled out with 'as'.
type MissingExplicitConversionFailure struct {
	noNote
	loc  solver.Locator
	from types.TypeID
	to   types.TypeID
}

// MissingExplicitConversion builds the failure for a legal but implicit-only
// conversion.
func MissingExplicitConversion(loc solver.Locator, from, to types.TypeID) *MissingExplicitConversionFailure {
	return &MissingExplicitConversionFailure{loc: loc, from: from, to: to}
}

func (f *MissingExplicitConversionFailure) Locator() solver.Locator { return f.loc }

func (f *MissingExplicitConversionFailure) DiagnoseAsError(cx *Context) bool {
	toName := cx.TypeName(f.to)
	b := cx.ErrorAtAnchor(diag.TckMissingExplicitConversion,
		"'%s' is not implicitly convertible to '%s'; did you mean to use 'as' to explicitly convert?",
		cx.TypeName(f.from), toName)

	sp := cx.SpanOf(cx.Anchor)
	// Operator operands need parentheses so 'as' binds to the whole
	// expression.
	if cx.Snap.Exprs.IsOperatorApply(cx.Anchor) {
		b.WithFix(fix.WrapWith("add explicit 'as' conversion", sp, "(", ") as "+toName))
	} else {
		b.WithFix(fix.InsertText("add explicit 'as' conversion", sp.CollapseToEnd(), " as "+toName, "", fix.Preferred()))
	}
	b.Emit()
	return true
}

// NoEscapeFuncToTypeConversionFailure fires when a non-escaping function
// value is converted to a position that may allow it to escape.
type NoEscapeFuncToTypeConversionFailure struct {
	noNote
	loc solver.Locator
	// target is the escaping destination type; NoTypeID when the destination
	// is an unresolved generic parameter.
	target types.TypeID
}

// NoEscapeFuncToTypeConversion builds the failure; target may be NoTypeID.
func NoEscapeFuncToTypeConversion(loc solver.Locator, target types.TypeID) *NoEscapeFuncToTypeConversionFailure {
	return &NoEscapeFuncToTypeConversionFailure{loc: loc, target: target}
}

func (f *NoEscapeFuncToTypeConversionFailure) Locator() solver.Locator { return f.loc }

func (f *NoEscapeFuncToTypeConversionFailure) DiagnoseAsError(cx *Context) bool {
	if f.target != types.NoTypeID {
		cx.ErrorAtAnchor(diag.TckNoEscapeToEscaping,
			"converting non-escaping value to '%s' may allow it to escape",
			cx.TypeName(f.target)).Emit()
		return true
	}
	// Destination is a generic parameter; tailor the message to the
	// parameter use when the anchor names one.
	if data, ok := cx.Snap.Exprs.Ident(cx.Anchor); ok {
		cx.ErrorAtAnchor(diag.TckNoEscapeToEscaping,
			"converting non-escaping parameter '%s' to generic parameter may allow it to escape",
			cx.Name(data.Name)).Emit()
		return true
	}
	cx.ErrorAtAnchor(diag.TckNoEscapeToEscaping,
		"converting non-escaping value to generic parameter may allow it to escape").Emit()
	return true
}

// MissingForcedDowncastFailure fires when a checked coercion 'as' was written
// where only a forced downcast 'as!' can succeed.
type MissingForcedDowncastFailure struct {
	noNote
	loc  solver.Locator
	from types.TypeID
	to   types.TypeID
}

// MissingForcedDowncast builds the failure for a coercion that must be forced.
func MissingForcedDowncast(loc solver.Locator, from, to types.TypeID) *MissingForcedDowncastFailure {
	return &MissingForcedDowncastFailure{loc: loc, from: from, to: to}
}

func (f *MissingForcedDowncastFailure) Locator() solver.Locator { return f.loc }

func (f *MissingForcedDowncastFailure) DiagnoseAsError(cx *Context) bool {
	b := cx.ErrorAtAnchor(diag.TckMissingForcedDowncast,
		"'%s' is not convertible to '%s'; did you mean to use 'as!' to force downcast?",
		cx.TypeName(f.from), cx.TypeName(f.to))

	coerce := cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)
	if data, ok := cx.Snap.Exprs.Coerce(coerce); ok && !data.Forced {
		if op, found := coercionOperatorSpan(cx, coerce, data.Value); found {
			b.WithFix(fix.ReplaceSpan("use 'as!' to force downcast", op, "as!", "as", fix.Preferred()))
		}
	}
	b.Emit()
	return true
}

// coercionOperatorSpan locates the 'as' keyword inside a coercion expression
// by scanning the source after the operand.
func coercionOperatorSpan(cx *Context, coerce, value ast.ExprID) (source.Span, bool) {
	whole := cx.SpanOf(coerce)
	operand := cx.SpanOf(value)
	if whole.File != operand.File || operand.End >= whole.End {
		return source.Span{}, false
	}
	tail := source.Span{File: whole.File, Start: operand.End, End: whole.End}
	text := cx.Snippet(tail)
	idx := strings.Index(text, "as")
	if idx < 0 {
		return source.Span{}, false
	}
	start := tail.Start + uint32(idx)
	return source.Span{File: whole.File, Start: start, End: start + 2}, true
}

// MissingContextualConformanceFailure fires when a value's type does not
// conform to the protocol its context demands.
type MissingContextualConformanceFailure struct {
	noNote
	loc      solver.Locator
	from     types.TypeID
	protocol types.TypeID
}

// MissingContextualConformance builds the purpose-keyed conformance failure.
func MissingContextualConformance(loc solver.Locator, from, protocol types.TypeID) *MissingContextualConformanceFailure {
	return &MissingContextualConformanceFailure{loc: loc, from: from, protocol: protocol}
}

func (f *MissingContextualConformanceFailure) Locator() solver.Locator { return f.loc }

func (f *MissingContextualConformanceFailure) DiagnoseAsError(cx *Context) bool {
	var format string
	switch cx.Snap.ContextualPurpose {
	case solver.PurposeCallArgument:
		format = "argument type '%s' does not conform to expected type '%s'"
	case solver.PurposeCoercion:
		format = "value of type '%s' does not conform to '%s' in coercion"
	case solver.PurposeAssignment:
		format = "value of type '%s' does not conform to '%s' in assignment"
	default:
		format = "value of type '%s' does not conform to specified type '%s'"
	}
	cx.ErrorAtAnchor(diag.TckContextualConformance, format,
		cx.TypeName(f.from), cx.TypeName(f.protocol)).Emit()
	return true
}
