package diagnose

import (
	"testing"

	"cinder/internal/ast"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// anchorFixture builds the snapshot for `g(xs[0], p.q)! == (t, [a, b]).0`
// piece by piece so every narrowing rule has a concrete target.
type anchorFixture struct {
	snap *solver.Snapshot

	call      ast.ExprID // g(xs[0], p.q)
	callee    ast.ExprID // g
	subscript ast.ExprID // xs[0]
	subBase   ast.ExprID // xs
	subIndex  ast.ExprID // 0
	member    ast.ExprID // p.q
	memBase   ast.ExprID // p
	unwrap    ast.ExprID // g(...)!
	binary    ast.ExprID // ... == ...
	tuple     ast.ExprID // (t, [a, b])
	tupFirst  ast.ExprID // t
	arrayLit  ast.ExprID // [a, b]
	arrFirst  ast.ExprID // a
	arrSecond ast.ExprID // b
	paren     ast.ExprID // ((p.q))
	chain     ast.ExprID // opt?
	chainBase ast.ExprID // opt
	unary     ast.ExprID // -n
	negOprnd  ast.ExprID // n
	root      ast.ExprID
}

func buildAnchorFixture(t *testing.T) *anchorFixture {
	t.Helper()

	names := source.NewInterner()
	exprs := ast.NewExprs(32)
	sp := func(start, end uint32) source.Span {
		return source.Span{File: 1, Start: start, End: end}
	}

	f := &anchorFixture{}
	f.subBase = exprs.NewIdent(sp(2, 4), names.Intern("xs"))
	f.subIndex = exprs.NewLiteral(sp(5, 6), names.Intern("0"))
	f.subscript = exprs.NewSubscript(sp(2, 7), f.subBase, []ast.CallArg{{Value: f.subIndex}})
	f.memBase = exprs.NewIdent(sp(9, 10), names.Intern("p"))
	f.member = exprs.NewMember(sp(9, 12), f.memBase, names.Intern("q"))
	f.paren = exprs.NewParen(sp(8, 13), exprs.NewParen(sp(9, 12), f.member))
	f.callee = exprs.NewIdent(sp(0, 1), names.Intern("g"))
	f.call = exprs.NewCall(sp(0, 14), f.callee, []ast.CallArg{
		{Value: f.subscript},
		{Value: f.paren},
	}, false)
	f.unwrap = exprs.NewForceUnwrap(sp(0, 15), f.call)

	f.tupFirst = exprs.NewIdent(sp(20, 21), names.Intern("t"))
	f.arrFirst = exprs.NewIdent(sp(24, 25), names.Intern("a"))
	f.arrSecond = exprs.NewIdent(sp(27, 28), names.Intern("b"))
	f.arrayLit = exprs.NewArrayLit(sp(23, 29), []ast.ExprID{f.arrFirst, f.arrSecond})
	f.tuple = exprs.NewTuple(sp(19, 30), []ast.ExprID{f.tupFirst, f.arrayLit})

	f.chainBase = exprs.NewIdent(sp(32, 35), names.Intern("opt"))
	f.chain = exprs.NewOptionalChain(sp(32, 36), f.chainBase)
	f.negOprnd = exprs.NewIdent(sp(38, 39), names.Intern("n"))
	f.unary = exprs.NewUnary(sp(37, 39), names.Intern("-"), f.negOprnd, false)

	f.binary = exprs.NewBinary(sp(0, 30), names.Intern("=="), f.unwrap, f.tuple)
	f.root = f.binary

	parents := ast.BuildParents(exprs, f.root)
	ti := types.NewInterner(names)
	decls := symbols.NewTable(names)
	f.snap = solver.NewSnapshot(exprs, parents, ti, decls, symbols.NewGenerics())
	return f
}

func TestResolveAnchorNarrowingRules(t *testing.T) {
	f := buildAnchorFixture(t)

	tests := []struct {
		name        string
		loc         solver.Locator
		wantAnchor  ast.ExprID
		wantComplex bool
	}{
		{
			name:       "empty path keeps the raw anchor",
			loc:        solver.At(f.call),
			wantAnchor: f.call,
		},
		{
			name:       "apply argument on a call",
			loc:        solver.At(f.call, solver.ApplyArgument(0)),
			wantAnchor: f.subscript,
		},
		{
			name:       "apply argument strips parens around the argument",
			loc:        solver.At(f.call, solver.ApplyArgument(1), solver.Member()),
			wantAnchor: f.memBase,
		},
		{
			name:       "member narrows to the base",
			loc:        solver.At(f.member, solver.Member()),
			wantAnchor: f.memBase,
		},
		{
			name:       "subscript index",
			loc:        solver.At(f.subscript, solver.SubscriptIndex(0)),
			wantAnchor: f.subIndex,
		},
		{
			name:       "operands of a binary apply are positional arguments",
			loc:        solver.At(f.binary, solver.ApplyArgument(1)),
			wantAnchor: f.tuple,
		},
		{
			name:       "unary operand is argument zero",
			loc:        solver.At(f.unary, solver.ApplyArgument(0)),
			wantAnchor: f.negOprnd,
		},
		{
			name:       "tuple element",
			loc:        solver.At(f.tuple, solver.TupleElement(0)),
			wantAnchor: f.tupFirst,
		},
		{
			name:       "tuple element applies to array literals",
			loc:        solver.At(f.arrayLit, solver.TupleElement(1)),
			wantAnchor: f.arrSecond,
		},
		{
			name:       "optional payload through force unwrap",
			loc:        solver.At(f.unwrap, solver.OptionalPayload()),
			wantAnchor: f.call,
		},
		{
			name:       "optional payload through optional chain",
			loc:        solver.At(f.chain, solver.OptionalPayload()),
			wantAnchor: f.chainBase,
		},
		{
			name:       "chained elements narrow step by step",
			loc:        solver.At(f.binary, solver.ApplyArgument(0), solver.ApplyArgument(0)),
			wantAnchor: f.subscript,
		},
		{
			name:        "requirement elements stop the walk",
			loc:         solver.At(f.call, solver.TypeParamRequirement(0, symbols.RequirementConformance)),
			wantAnchor:  f.call,
			wantComplex: true,
		},
		{
			name:        "contextual type stops the walk",
			loc:         solver.At(f.tuple, solver.ContextualType()),
			wantAnchor:  f.tuple,
			wantComplex: true,
		},
		{
			name:        "narrowing resumes until the first opaque element",
			loc:         solver.At(f.call, solver.ApplyArgument(0), solver.GenericArgument(0)),
			wantAnchor:  f.subscript,
			wantComplex: true,
		},
		{
			name:        "out of range argument index stops the walk",
			loc:         solver.At(f.call, solver.ApplyArgument(5)),
			wantAnchor:  f.call,
			wantComplex: true,
		},
		{
			name:        "element kind mismatch stops the walk",
			loc:         solver.At(f.member, solver.SubscriptIndex(0)),
			wantAnchor:  f.member,
			wantComplex: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anchor, complex := resolveAnchor(f.snap, tt.loc)
			if anchor != tt.wantAnchor {
				t.Fatalf("anchor = %d, want %d", anchor, tt.wantAnchor)
			}
			if complex != tt.wantComplex {
				t.Fatalf("complex = %v, want %v", complex, tt.wantComplex)
			}
		})
	}
}

// The resolved anchor must be a real expression for every locator whose raw
// anchor is valid, no matter how ill-fitting the path is.
func TestResolveAnchorNeverReturnsInvalid(t *testing.T) {
	f := buildAnchorFixture(t)

	paths := [][]solver.PathElement{
		{solver.Member(), solver.Member(), solver.Member()},
		{solver.OptionalPayload(), solver.ApplyArgument(3)},
		{solver.TupleElement(9)},
		{solver.UnresolvedMember()},
		{solver.FunctionResult(), solver.ApplyArgument(0)},
		{solver.KeyPathComponent(2)},
	}
	anchors := []ast.ExprID{f.call, f.member, f.tuple, f.unary, f.paren, f.root}

	for _, raw := range anchors {
		for _, path := range paths {
			loc := solver.At(raw, path...)
			anchor, _ := resolveAnchor(f.snap, loc)
			if !anchor.IsValid() {
				t.Fatalf("resolveAnchor(%s) produced an invalid anchor", loc)
			}
			if f.snap.Exprs.Get(anchor) == nil {
				t.Fatalf("resolveAnchor(%s) = %d, not in the arena", loc, anchor)
			}
		}
	}
}

func TestResolveAnchorStripsParensBeforeNarrowing(t *testing.T) {
	f := buildAnchorFixture(t)

	// The raw anchor is a double paren around p.q; the member rule must see
	// through it.
	anchor, complex := resolveAnchor(f.snap, solver.At(f.paren, solver.Member()))
	if anchor != f.memBase {
		t.Fatalf("anchor = %d, want member base %d", anchor, f.memBase)
	}
	if complex {
		t.Fatal("paren stripping must not mark the anchor complex")
	}

	// With no path at all the paren itself resolves to its semantic inner.
	anchor, _ = resolveAnchor(f.snap, solver.At(f.paren))
	if anchor != f.member {
		t.Fatalf("anchor = %d, want inner member %d", anchor, f.member)
	}
}
