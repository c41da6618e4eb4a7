package diagnose

import (
	"cinder/internal/ast"
	"cinder/internal/solver"
)

// resolveAnchor walks the locator path outer to inner, narrowing the anchor
// expression at every element that has a syntactic narrowing rule. Elements
// without a rule stop the walk: the anchor stays at the last narrowed
// expression and the complex flag is set. The result is never NoExprID as
// long as the locator's raw anchor is valid.
func resolveAnchor(snap *solver.Snapshot, loc solver.Locator) (ast.ExprID, bool) {
	exprs := snap.Exprs
	anchor := loc.Anchor
	for _, el := range loc.Path {
		next, ok := narrowOnce(exprs, anchor, el)
		if !ok || !next.IsValid() {
			return exprs.SemanticsProviding(anchor), true
		}
		anchor = next
	}
	return exprs.SemanticsProviding(anchor), false
}

// narrowOnce applies the single-step narrowing rule for one path element.
func narrowOnce(exprs *ast.Exprs, anchor ast.ExprID, el solver.PathElement) (ast.ExprID, bool) {
	anchor = exprs.SemanticsProviding(anchor)
	switch el.Kind {
	case solver.ElemApplyArgument:
		return argumentAt(exprs, anchor, int(el.Value))

	case solver.ElemMember:
		if data, ok := exprs.Member(anchor); ok {
			return data.Base, true
		}
		return ast.NoExprID, false

	case solver.ElemSubscriptIndex:
		if data, ok := exprs.Subscript(anchor); ok {
			i := int(el.Value)
			if i >= 0 && i < len(data.Indices) {
				return data.Indices[i].Value, true
			}
		}
		return ast.NoExprID, false

	case solver.ElemTupleElement:
		i := int(el.Value)
		if data, ok := exprs.Tuple(anchor); ok {
			if i >= 0 && i < len(data.Elems) {
				return data.Elems[i], true
			}
			return ast.NoExprID, false
		}
		if data, ok := exprs.ArrayLit(anchor); ok {
			if i >= 0 && i < len(data.Elems) {
				return data.Elems[i], true
			}
		}
		return ast.NoExprID, false

	case solver.ElemOptionalPayload:
		if data, ok := exprs.ForceUnwrap(anchor); ok {
			return data.Base, true
		}
		if data, ok := exprs.OptionalChain(anchor); ok {
			return data.Base, true
		}
		return ast.NoExprID, false

	default:
		// Type-level and provenance elements (generic-argument, requirement
		// elements, contextual-type, function-result, unresolved-member,
		// key-path-component) carry no syntactic narrowing rule.
		return ast.NoExprID, false
	}
}

// argumentAt narrows an apply expression to its i-th argument. Operator
// applications treat operands as positional arguments.
func argumentAt(exprs *ast.Exprs, anchor ast.ExprID, i int) (ast.ExprID, bool) {
	switch exprs.Kind(anchor) {
	case ast.ExprCall:
		data, _ := exprs.Call(anchor)
		if i >= 0 && i < len(data.Args) {
			return data.Args[i].Value, true
		}
	case ast.ExprSubscript:
		data, _ := exprs.Subscript(anchor)
		if i >= 0 && i < len(data.Indices) {
			return data.Indices[i].Value, true
		}
	case ast.ExprUnary:
		data, _ := exprs.Unary(anchor)
		if i == 0 {
			return data.Operand, true
		}
	case ast.ExprBinary:
		data, _ := exprs.Binary(anchor)
		switch i {
		case 0:
			return data.Left, true
		case 1:
			return data.Right, true
		}
	}
	return ast.NoExprID, false
}
