package ast

// Children appends the direct sub-expressions of id to dst and returns it.
func (e *Exprs) Children(id ExprID, dst []ExprID) []ExprID {
	expr := e.Get(id)
	if expr == nil {
		return dst
	}

	add := func(child ExprID) {
		if child.IsValid() {
			dst = append(dst, child)
		}
	}

	switch expr.Kind {
	case ExprCall:
		data, _ := e.Call(id)
		add(data.Target)
		for _, arg := range data.Args {
			add(arg.Value)
		}
	case ExprMember:
		data, _ := e.Member(id)
		add(data.Base)
	case ExprSubscript:
		data, _ := e.Subscript(id)
		add(data.Base)
		for _, idx := range data.Indices {
			add(idx.Value)
		}
	case ExprUnary:
		data, _ := e.Unary(id)
		add(data.Operand)
	case ExprBinary:
		data, _ := e.Binary(id)
		add(data.Left)
		add(data.Right)
	case ExprAssign:
		data, _ := e.Assign(id)
		add(data.Dest)
		add(data.Source)
	case ExprClosure:
		data, _ := e.Closure(id)
		add(data.Body)
	case ExprKeyPath:
		data, _ := e.KeyPath(id)
		for _, comp := range data.Components {
			for _, idx := range comp.Indices {
				add(idx.Value)
			}
		}
	case ExprOptionalChain:
		data, _ := e.OptionalChain(id)
		add(data.Base)
	case ExprForceUnwrap:
		data, _ := e.ForceUnwrap(id)
		add(data.Base)
	case ExprAddressOf:
		data, _ := e.AddressOf(id)
		add(data.Operand)
	case ExprParen:
		data, _ := e.Paren(id)
		add(data.Inner)
	case ExprTuple:
		data, _ := e.Tuple(id)
		for _, el := range data.Elems {
			add(el)
		}
	case ExprArrayLit:
		data, _ := e.ArrayLit(id)
		for _, el := range data.Elems {
			add(el)
		}
	case ExprCoerce:
		data, _ := e.Coerce(id)
		add(data.Value)
	case ExprReturn:
		data, _ := e.Return(id)
		add(data.Value)
	}
	return dst
}

// Walk visits id and every expression reachable from it, parents first.
// The visitor returns false to prune the subtree.
func (e *Exprs) Walk(id ExprID, visit func(ExprID) bool) {
	if !id.IsValid() || !visit(id) {
		return
	}
	for _, child := range e.Children(id, nil) {
		e.Walk(child, visit)
	}
}

// SemanticsProviding strips parentheses down to the meaningful expression.
func (e *Exprs) SemanticsProviding(id ExprID) ExprID {
	for {
		data, ok := e.Paren(id)
		if !ok {
			return id
		}
		id = data.Inner
	}
}

// IsApply reports whether the expression applies arguments to a callee:
// calls and unary/binary operator invocations.
func (e *Exprs) IsApply(id ExprID) bool {
	switch e.Kind(id) {
	case ExprCall, ExprUnary, ExprBinary:
		return true
	default:
		return false
	}
}

// IsOperatorApply reports whether the expression is a unary or binary
// operator invocation (prefix, postfix or infix).
func (e *Exprs) IsOperatorApply(id ExprID) bool {
	switch e.Kind(id) {
	case ExprUnary, ExprBinary:
		return true
	default:
		return false
	}
}
