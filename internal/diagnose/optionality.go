package diagnose

import (
	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/fix"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/types"
)

// MissingOptionalUnwrapFailure fires when an optional value is used where its
// payload type is required.
type MissingOptionalUnwrapFailure struct {
	noNote
	loc       solver.Locator
	base      types.TypeID
	unwrapped types.TypeID
}

// MissingOptionalUnwrap builds the failure from the optional type and the
// payload type the context expects.
func MissingOptionalUnwrap(loc solver.Locator, base, unwrapped types.TypeID) *MissingOptionalUnwrapFailure {
	return &MissingOptionalUnwrapFailure{loc: loc, base: base, unwrapped: unwrapped}
}

func (f *MissingOptionalUnwrapFailure) Locator() solver.Locator { return f.loc }

func (f *MissingOptionalUnwrapFailure) DiagnoseAsError(cx *Context) bool {
	sp := cx.SpanOf(cx.Anchor)
	b := cx.Error(diag.TckMissingOptionalUnwrap, sp,
		"value of optional type '%s' must be unwrapped to a value of type '%s'",
		cx.TypeName(f.base), cx.TypeName(f.unwrapped))

	end := sp.CollapseToEnd()
	b.WithFix(fix.InsertText("coalesce using '??' to provide a default when the optional value contains 'nil'",
		end, " ?? <#default value#>", "",
		fix.WithApplicability(diag.FixApplicabilityManualReview)))
	b.WithFix(fix.InsertText("force-unwrap using '!' to abort execution if the optional value contains 'nil'",
		end, "!", ""))
	b.Emit()
	return true
}

// NonOptionalUnwrapFailure fires when an unwrap operator is applied to a
// value that is not optional.
type NonOptionalUnwrapFailure struct {
	noNote
	loc  solver.Locator
	base types.TypeID
}

// NonOptionalUnwrap builds the failure from the operand's actual type.
func NonOptionalUnwrap(loc solver.Locator, base types.TypeID) *NonOptionalUnwrapFailure {
	return &NonOptionalUnwrapFailure{loc: loc, base: base}
}

func (f *NonOptionalUnwrapFailure) Locator() solver.Locator { return f.loc }

func (f *NonOptionalUnwrapFailure) DiagnoseAsError(cx *Context) bool {
	exprs := cx.Snap.Exprs
	unwrap := cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)

	switch exprs.Kind(unwrap) {
	case ast.ExprForceUnwrap:
		data, _ := exprs.ForceUnwrap(unwrap)
		b := cx.Error(diag.TckNonOptionalUnwrap, cx.SpanOf(unwrap),
			"cannot force unwrap value of non-optional type '%s'", cx.TypeName(f.base))
		if op, ok := trailingOperatorSpan(cx, unwrap, data.Base); ok {
			b.WithFix(fix.DeleteSpan("remove '!'", op, "!", fix.Preferred()))
		}
		b.Emit()
		return true

	case ast.ExprOptionalChain:
		data, _ := exprs.OptionalChain(unwrap)
		b := cx.Error(diag.TckNonOptionalUnwrap, cx.SpanOf(unwrap),
			"cannot use optional chaining on non-optional value of type '%s'", cx.TypeName(f.base))
		if op, ok := trailingOperatorSpan(cx, unwrap, data.Base); ok {
			b.WithFix(fix.DeleteSpan("remove '?'", op, "?", fix.Preferred()))
		}
		b.Emit()
		return true

	default:
		return false
	}
}

// trailingOperatorSpan computes the span of a postfix operator as the gap
// between the operand's end and the whole expression's end.
func trailingOperatorSpan(cx *Context, whole, operand ast.ExprID) (source.Span, bool) {
	w := cx.SpanOf(whole)
	o := cx.SpanOf(operand)
	if w.File != o.File || o.End >= w.End {
		return source.Span{}, false
	}
	return source.Span{File: w.File, Start: o.End, End: w.End}, true
}

// MemberAccessOnOptionalBaseFailure fires when a member is looked up on an
// optional base without unwrapping it first.
type MemberAccessOnOptionalBaseFailure struct {
	noNote
	loc    solver.Locator
	member source.StringID
	base   types.TypeID
	// resultOptional reports whether the surrounding context accepts an
	// optional result, which makes '?.'-chaining the preferred fix.
	resultOptional bool
}

// MemberAccessOnOptionalBase builds the failure from the accessed member and
// the optional base type.
func MemberAccessOnOptionalBase(loc solver.Locator, member source.StringID, base types.TypeID, resultOptional bool) *MemberAccessOnOptionalBaseFailure {
	return &MemberAccessOnOptionalBaseFailure{loc: loc, member: member, base: base, resultOptional: resultOptional}
}

func (f *MemberAccessOnOptionalBaseFailure) Locator() solver.Locator { return f.loc }

func (f *MemberAccessOnOptionalBaseFailure) DiagnoseAsError(cx *Context) bool {
	payload, ok := cx.Snap.Types.OptionalPayload(cx.ResolveType(f.base, false))
	if !ok {
		return false
	}

	member := cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)
	data, isMember := cx.Snap.Exprs.Member(member)
	if !isMember {
		return false
	}

	b := cx.Error(diag.TckOptionalBaseMemberAccess, cx.SpanOf(member),
		"value of optional type '%s' must be unwrapped to refer to member '%s' of wrapped base type '%s'",
		cx.TypeName(f.base), cx.Name(f.member), cx.TypeName(payload))

	at := cx.SpanOf(data.Base).CollapseToEnd()
	chain := fix.InsertText("chain the optional using '?' to access member '"+cx.Name(f.member)+"' only for non-'nil' base values",
		at, "?", "")
	force := fix.InsertText("force-unwrap using '!' to abort execution if the optional value contains 'nil'",
		at, "!", "")
	if f.resultOptional {
		b.WithFix(chain)
		b.WithFix(force)
	} else {
		b.WithFix(force)
		b.WithFix(chain)
	}
	b.Emit()
	return true
}
