package ast

// Parents is a reverse index from expression to its syntactic parent,
// built once per expression tree and queried read-only during diagnosis.
type Parents struct {
	parent map[ExprID]ExprID
	root   ExprID
}

// BuildParents indexes every expression reachable from root.
func BuildParents(e *Exprs, root ExprID) *Parents {
	p := &Parents{
		parent: make(map[ExprID]ExprID, e.Arena.Len()),
		root:   root,
	}
	e.Walk(root, func(id ExprID) bool {
		for _, child := range e.Children(id, nil) {
			p.parent[child] = id
		}
		return true
	})
	return p
}

// Root returns the root expression the index was built from.
func (p *Parents) Root() ExprID {
	if p == nil {
		return NoExprID
	}
	return p.root
}

// ParentOf returns the parent expression, NoExprID when id is the root or
// not part of the indexed tree.
func (p *Parents) ParentOf(id ExprID) ExprID {
	if p == nil {
		return NoExprID
	}
	return p.parent[id]
}

// Contains reports whether id belongs to the indexed tree.
func (p *Parents) Contains(id ExprID) bool {
	if p == nil {
		return false
	}
	if id == p.root {
		return true
	}
	_, ok := p.parent[id]
	return ok
}

// ArgumentsFor returns the labeled argument list when anchor is a call or
// subscript; ok is false for every other expression kind.
func ArgumentsFor(e *Exprs, anchor ExprID) ([]CallArg, bool) {
	switch e.Kind(anchor) {
	case ExprCall:
		data, _ := e.Call(anchor)
		return data.Args, true
	case ExprSubscript:
		data, _ := e.Subscript(anchor)
		return data.Indices, true
	default:
		return nil, false
	}
}
