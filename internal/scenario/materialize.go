package scenario

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diagnose"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// Materialized is the runnable form of a scenario: everything one call to
// diagnose.Diagnose needs. Each Materialize call builds fresh stores, so two
// materializations of the same document never share state.
type Materialized struct {
	Name     string
	Snapshot *solver.Snapshot
	Failure  diagnose.Failure
	Root     ast.ExprID
	Files    *source.FileSet
	File     source.FileID
	AsNote   bool
}

// env carries the symbolic-ID indexes built up while materializing.
type env struct {
	doc   *Document
	scope *typeScope

	files  *source.FileSet
	file   source.FileID
	names  *source.Interner
	ti     *types.Interner
	exprs  *ast.Exprs
	decls  *symbols.Table
	gens   *symbols.Generics
	snap   *solver.Snapshot
	parent *ast.Parents

	exprIDs      map[string]ast.ExprID
	declIDs      map[string]symbols.DeclID
	conformances []symbols.ConformanceID
}

// Materialize builds the semantic stores and the failure instance the
// document describes.
func (d *Document) Materialize() (*Materialized, error) {
	e := &env{
		doc:     d,
		files:   source.NewFileSet(),
		names:   source.NewInterner(),
		exprIDs: make(map[string]ast.ExprID, len(d.Exprs)),
		declIDs: make(map[string]symbols.DeclID, len(d.Decls)),
	}
	e.file = e.files.AddVirtual(d.Name+".toml", []byte(d.Source))
	e.ti = types.NewInterner(e.names)
	e.exprs = ast.NewExprs(uint(len(d.Exprs)))
	e.decls = symbols.NewTable(e.names)
	e.gens = symbols.NewGenerics()

	e.scope = newTypeScope(e.ti)
	for _, p := range d.Protocols {
		e.scope.protocols[p] = true
	}
	for _, g := range d.GenericParams {
		e.scope.genericParams[g] = true
	}
	for _, decl := range d.Decls {
		if decl.Kind == "protocol" {
			e.scope.protocols[decl.Name] = true
		}
	}
	for alias, target := range d.Aliases {
		canonical, err := e.scope.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", alias, err)
		}
		e.scope.aliases[alias] = e.ti.DefineAlias(alias, canonical)
	}

	if err := e.buildDecls(); err != nil {
		return nil, err
	}
	if err := e.buildConformances(); err != nil {
		return nil, err
	}
	if err := e.buildExprs(); err != nil {
		return nil, err
	}

	root, err := e.expr(d.Root)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	e.parent = ast.BuildParents(e.exprs, root)

	if err := e.buildSnapshot(); err != nil {
		return nil, err
	}

	failure, err := e.buildFailure()
	if err != nil {
		return nil, err
	}

	return &Materialized{
		Name:     d.Name,
		Snapshot: e.snap,
		Failure:  failure,
		Root:     root,
		Files:    e.files,
		File:     e.file,
		AsNote:   d.Failure.AsNote,
	}, nil
}

// Lookup helpers --------------------------------------------------------------

func (e *env) expr(id string) (ast.ExprID, error) {
	got, ok := e.exprIDs[id]
	if !ok {
		return ast.NoExprID, fmt.Errorf("unknown expression %q", id)
	}
	return got, nil
}

func (e *env) optionalExpr(id string) (ast.ExprID, error) {
	if id == "" {
		return ast.NoExprID, nil
	}
	return e.expr(id)
}

func (e *env) decl(id string) (symbols.DeclID, error) {
	got, ok := e.declIDs[id]
	if !ok {
		return symbols.NoDeclID, fmt.Errorf("unknown declaration %q", id)
	}
	return got, nil
}

func (e *env) typ(spelling string) (types.TypeID, error) {
	return e.scope.Parse(spelling)
}

func (e *env) optionalType(spelling string) (types.TypeID, error) {
	if spelling == "" {
		return types.NoTypeID, nil
	}
	return e.scope.Parse(spelling)
}

func (e *env) span(raw []uint32) (source.Span, error) {
	if len(raw) != 2 {
		return source.Span{}, fmt.Errorf("span needs [start, end], got %v", raw)
	}
	if raw[0] > raw[1] || int(raw[1]) > len(e.doc.Source) {
		return source.Span{}, fmt.Errorf("span [%d, %d] outside source (len %d)", raw[0], raw[1], len(e.doc.Source))
	}
	return source.Span{File: e.file, Start: raw[0], End: raw[1]}, nil
}

// Declarations ----------------------------------------------------------------

func (e *env) buildDecls() error {
	for i, entry := range e.doc.Decls {
		id := entry.ID
		if id == "" {
			id = entry.Name
		}
		if id == "" {
			return fmt.Errorf("decls[%d]: missing id and name", i)
		}
		if _, dup := e.declIDs[id]; dup {
			return fmt.Errorf("decls[%d]: duplicate id %q", i, id)
		}

		kind, err := parseDeclKind(entry.Kind)
		if err != nil {
			return fmt.Errorf("decl %q: %w", id, err)
		}
		access, err := parseAccess(entry.Access)
		if err != nil {
			return fmt.Errorf("decl %q: %w", id, err)
		}
		flags, err := parseDeclFlags(entry.Flags)
		if err != nil {
			return fmt.Errorf("decl %q: %w", id, err)
		}

		// Generic parameters scope over the declaration's own type and
		// requirement spellings, then stay visible for the rest of the
		// document: other entries reference them by the same names.
		for _, g := range entry.GenericParams {
			e.scope.genericParams[g] = true
		}

		declType, err := e.optionalType(entry.Type)
		if err != nil {
			return fmt.Errorf("decl %q: %w", id, err)
		}
		owner, err := e.optionalType(entry.Owner)
		if err != nil {
			return fmt.Errorf("decl %q owner: %w", id, err)
		}

		sig := symbols.NoSignatureID
		if len(entry.GenericParams) > 0 || len(entry.Requirements) > 0 {
			reqs, err := e.parseRequirements(entry.Requirements)
			if err != nil {
				return fmt.Errorf("decl %q: %w", id, err)
			}
			params := make([]types.TypeID, len(entry.GenericParams))
			for j, g := range entry.GenericParams {
				params[j] = e.ti.GenericParam(g)
			}
			sig = e.gens.AddSignature(symbols.GenericSignature{
				Params:       params,
				Requirements: reqs,
			})
		}

		e.declIDs[id] = e.decls.Add(symbols.Decl{
			Name:      e.names.Intern(entry.Name),
			Kind:      kind,
			Access:    access,
			Flags:     flags,
			Owner:     owner,
			Type:      declType,
			Signature: sig,
		})
	}
	return nil
}

func (e *env) parseRequirements(entries []RequirementEntry) ([]symbols.Requirement, error) {
	reqs := make([]symbols.Requirement, 0, len(entries))
	for _, r := range entries {
		kind, err := parseRequirementKind(r.Kind)
		if err != nil {
			return nil, err
		}
		lhs, err := e.typ(r.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := e.typ(r.RHS)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, symbols.Requirement{Kind: kind, LHS: lhs, RHS: rhs})
	}
	return reqs, nil
}

func (e *env) buildConformances() error {
	for i, entry := range e.doc.Conformances {
		typ, err := e.typ(entry.Type)
		if err != nil {
			return fmt.Errorf("conformances[%d]: %w", i, err)
		}
		proto, err := e.typ(entry.Protocol)
		if err != nil {
			return fmt.Errorf("conformances[%d]: %w", i, err)
		}
		where, err := e.parseRequirements(entry.Where)
		if err != nil {
			return fmt.Errorf("conformances[%d]: %w", i, err)
		}
		id := e.gens.AddConformance(symbols.Conformance{
			Type:        typ,
			Protocol:    proto,
			Conditional: where,
		})
		e.conformances = append(e.conformances, id)
	}
	return nil
}

func parseDeclKind(s string) (symbols.DeclKind, error) {
	switch s {
	case "function", "":
		return symbols.DeclFunc, nil
	case "method":
		return symbols.DeclMethod, nil
	case "initializer":
		return symbols.DeclInitializer, nil
	case "subscript":
		return symbols.DeclSubscript, nil
	case "var":
		return symbols.DeclVar, nil
	case "let":
		return symbols.DeclLet, nil
	case "enum-case":
		return symbols.DeclEnumCase, nil
	case "struct":
		return symbols.DeclStruct, nil
	case "class":
		return symbols.DeclClass, nil
	case "enum":
		return symbols.DeclEnum, nil
	case "protocol":
		return symbols.DeclProtocol, nil
	case "type-alias":
		return symbols.DeclTypeAlias, nil
	default:
		return symbols.DeclInvalid, fmt.Errorf("unknown decl kind %q", s)
	}
}

func parseAccess(s string) (symbols.Access, error) {
	switch s {
	case "private":
		return symbols.AccessPrivate, nil
	case "fileprivate":
		return symbols.AccessFilePrivate, nil
	case "internal", "":
		return symbols.AccessInternal, nil
	case "public":
		return symbols.AccessPublic, nil
	default:
		return symbols.AccessInternal, fmt.Errorf("unknown access level %q", s)
	}
}

func parseDeclFlags(flags []string) (symbols.DeclFlags, error) {
	var out symbols.DeclFlags
	for _, f := range flags {
		switch f {
		case "static":
			out |= symbols.FlagStatic
		case "mutating":
			out |= symbols.FlagMutating
		case "mutating-getter":
			out |= symbols.FlagMutatingGetter
		case "required":
			out |= symbols.FlagRequired
		case "final":
			out |= symbols.FlagFinal
		case "operator":
			out |= symbols.FlagOperator
		case "let-property":
			out |= symbols.FlagLetProperty
		case "computed-read-only":
			out |= symbols.FlagComputedReadOnly
		default:
			return 0, fmt.Errorf("unknown decl flag %q", f)
		}
	}
	return out, nil
}

// Expressions -----------------------------------------------------------------

func (e *env) buildExprs() error {
	for _, entry := range e.doc.Exprs {
		id, err := e.buildExpr(entry)
		if err != nil {
			return fmt.Errorf("expr %q: %w", entry.ID, err)
		}
		e.exprIDs[entry.ID] = id
	}
	return nil
}

func (e *env) buildExpr(entry ExprEntry) (ast.ExprID, error) {
	sp, err := e.span(entry.Span)
	if err != nil {
		return ast.NoExprID, err
	}

	switch entry.Kind {
	case "ident":
		return e.exprs.NewIdent(sp, e.names.Intern(entry.Name)), nil

	case "literal":
		return e.exprs.NewLiteral(sp, e.names.Intern(entry.Value)), nil

	case "call":
		target, err := e.expr(entry.Target)
		if err != nil {
			return ast.NoExprID, err
		}
		args, err := e.callArgs(entry.Args)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewCall(sp, target, args, entry.Trailing), nil

	case "member":
		base, err := e.expr(entry.Base)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewMember(sp, base, e.names.Intern(entry.Name)), nil

	case "unresolved-member":
		return e.exprs.NewUnresolvedMember(sp, e.names.Intern(entry.Name)), nil

	case "subscript":
		base, err := e.expr(entry.Base)
		if err != nil {
			return ast.NoExprID, err
		}
		indices, err := e.callArgs(entry.Args)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewSubscript(sp, base, indices), nil

	case "unary":
		operand, err := e.expr(entry.Operand)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewUnary(sp, e.names.Intern(entry.Op), operand, entry.Postfix), nil

	case "binary":
		left, err := e.expr(entry.Left)
		if err != nil {
			return ast.NoExprID, err
		}
		right, err := e.expr(entry.Right)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewBinary(sp, e.names.Intern(entry.Op), left, right), nil

	case "assign":
		dest, err := e.expr(entry.Dest)
		if err != nil {
			return ast.NoExprID, err
		}
		src, err := e.expr(entry.Value)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewAssign(sp, dest, src), nil

	case "closure":
		params := make([]ast.ClosureParam, 0, len(entry.Params))
		for _, p := range entry.Params {
			psp, err := e.span(p.Span)
			if err != nil {
				return ast.NoExprID, err
			}
			params = append(params, ast.ClosureParam{Name: e.names.Intern(p.Name), Span: psp})
		}
		body, err := e.optionalExpr(entry.Body)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewClosure(sp, params, body), nil

	case "keypath":
		components := make([]ast.KeyPathComponent, 0, len(entry.Components))
		for _, c := range entry.Components {
			comp, err := e.keyPathComponent(c)
			if err != nil {
				return ast.NoExprID, err
			}
			components = append(components, comp)
		}
		root := source.NoStringID
		if entry.RootType != "" {
			root = e.names.Intern(entry.RootType)
		}
		return e.exprs.NewKeyPath(sp, root, components), nil

	case "optional-chain":
		base, err := e.expr(entry.Base)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewOptionalChain(sp, base), nil

	case "force-unwrap":
		base, err := e.expr(entry.Base)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewForceUnwrap(sp, base), nil

	case "address-of":
		operand, err := e.expr(entry.Operand)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewAddressOf(sp, operand), nil

	case "paren":
		inner, err := e.expr(entry.Inner)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewParen(sp, inner), nil

	case "tuple", "array-literal":
		elems := make([]ast.ExprID, 0, len(entry.Elems))
		for _, el := range entry.Elems {
			id, err := e.expr(el)
			if err != nil {
				return ast.NoExprID, err
			}
			elems = append(elems, id)
		}
		if entry.Kind == "tuple" {
			return e.exprs.NewTuple(sp, elems), nil
		}
		return e.exprs.NewArrayLit(sp, elems), nil

	case "type-ref":
		return e.exprs.NewTypeRef(sp, e.names.Intern(entry.Name)), nil

	case "coerce":
		value, err := e.expr(entry.Value)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewCoerce(sp, value, e.names.Intern(entry.TypeName), entry.Forced), nil

	case "return":
		value, err := e.optionalExpr(entry.Value)
		if err != nil {
			return ast.NoExprID, err
		}
		return e.exprs.NewReturn(sp, value), nil

	default:
		return ast.NoExprID, fmt.Errorf("unknown expression kind %q", entry.Kind)
	}
}

func (e *env) callArgs(entries []ArgEntry) ([]ast.CallArg, error) {
	args := make([]ast.CallArg, 0, len(entries))
	for _, a := range entries {
		value, err := e.expr(a.Value)
		if err != nil {
			return nil, err
		}
		label := source.NoStringID
		if a.Label != "" && a.Label != "_" {
			label = e.names.Intern(a.Label)
		}
		args = append(args, ast.CallArg{Label: label, Value: value})
	}
	return args, nil
}

func (e *env) keyPathComponent(entry KeyPathComponentEntry) (ast.KeyPathComponent, error) {
	sp, err := e.span(entry.Span)
	if err != nil {
		return ast.KeyPathComponent{}, err
	}
	var kind ast.KeyPathComponentKind
	switch entry.Kind {
	case "property", "":
		kind = ast.KeyPathProperty
	case "subscript":
		kind = ast.KeyPathSubscript
	case "optional-chain":
		kind = ast.KeyPathOptionalChain
	case "optional-force":
		kind = ast.KeyPathOptionalForce
	default:
		return ast.KeyPathComponent{}, fmt.Errorf("unknown key path component kind %q", entry.Kind)
	}
	indices, err := e.callArgs(entry.Indices)
	if err != nil {
		return ast.KeyPathComponent{}, err
	}
	return ast.KeyPathComponent{
		Kind:    kind,
		Name:    e.names.Intern(entry.Name),
		Indices: indices,
		Span:    sp,
	}, nil
}

// Solver state ----------------------------------------------------------------

func (e *env) buildSnapshot() error {
	e.snap = solver.NewSnapshot(e.exprs, e.parent, e.ti, e.decls, e.gens)
	e.snap.Files = e.files

	for exprID, spelling := range e.doc.Solver.ExprTypes {
		id, err := e.expr(exprID)
		if err != nil {
			return fmt.Errorf("solver.expr_types: %w", err)
		}
		t, err := e.typ(spelling)
		if err != nil {
			return fmt.Errorf("solver.expr_types[%s]: %w", exprID, err)
		}
		e.snap.SetExprType(id, t)
	}

	for tvSpelling, spelling := range e.doc.Solver.Bindings {
		tv, err := e.typ(tvSpelling)
		if err != nil {
			return fmt.Errorf("solver.bindings: %w", err)
		}
		if e.ti.Kind(tv) != types.KindTypeVar {
			return fmt.Errorf("solver.bindings: %q is not a type variable", tvSpelling)
		}
		bound, err := e.typ(spelling)
		if err != nil {
			return fmt.Errorf("solver.bindings[%s]: %w", tvSpelling, err)
		}
		e.snap.Bind(tv, bound)
	}

	for i, o := range e.doc.Solver.Overloads {
		loc, err := e.locator(LocatorEntry{Anchor: o.Anchor, Path: o.Path})
		if err != nil {
			return fmt.Errorf("solver.overloads[%d]: %w", i, err)
		}
		decl, err := e.decl(o.Decl)
		if err != nil {
			return fmt.Errorf("solver.overloads[%d]: %w", i, err)
		}
		opened := types.NoTypeID
		if o.OpenedType != "" {
			opened, err = e.typ(o.OpenedType)
			if err != nil {
				return fmt.Errorf("solver.overloads[%d]: %w", i, err)
			}
		} else if d := e.decls.Get(decl); d != nil {
			opened = d.Type
		}
		e.snap.RecordOverload(loc, solver.OverloadChoice{Decl: decl, OpenedType: opened})
	}

	for i, r := range e.doc.Solver.Restrictions {
		src, err := e.typ(r.Source)
		if err != nil {
			return fmt.Errorf("solver.restrictions[%d]: %w", i, err)
		}
		dst, err := e.typ(r.Target)
		if err != nil {
			return fmt.Errorf("solver.restrictions[%d]: %w", i, err)
		}
		kind, err := parseRestrictionKind(r.Kind)
		if err != nil {
			return fmt.Errorf("solver.restrictions[%d]: %w", i, err)
		}
		e.snap.RecordRestriction(src, dst, kind)
	}

	if e.doc.Solver.ContextualType != "" {
		t, err := e.typ(e.doc.Solver.ContextualType)
		if err != nil {
			return fmt.Errorf("solver.contextual_type: %w", err)
		}
		e.snap.ContextualType = t
	}
	purpose, err := parsePurpose(e.doc.Solver.ContextualPurpose)
	if err != nil {
		return err
	}
	e.snap.ContextualPurpose = purpose
	return nil
}

func (e *env) locator(entry LocatorEntry) (solver.Locator, error) {
	anchor, err := e.expr(entry.Anchor)
	if err != nil {
		return solver.Locator{}, err
	}
	path, err := parsePath(entry.Path)
	if err != nil {
		return solver.Locator{}, err
	}
	return solver.At(anchor, path...), nil
}

func parseRestrictionKind(s string) (solver.RestrictionKind, error) {
	switch s {
	case "value-to-optional":
		return solver.RestrictValueToOptional, nil
	case "optional-to-optional":
		return solver.RestrictOptionalToOptional, nil
	case "existential":
		return solver.RestrictExistential, nil
	case "superclass":
		return solver.RestrictSuperclass, nil
	case "array-upcast":
		return solver.RestrictArrayUpcast, nil
	case "deep-equality":
		return solver.RestrictDeepEquality, nil
	default:
		return solver.RestrictNone, fmt.Errorf("unknown restriction kind %q", s)
	}
}

func parsePurpose(s string) (solver.ContextualPurpose, error) {
	switch s {
	case "", "none":
		return solver.PurposeNone, nil
	case "initialization":
		return solver.PurposeInitialization, nil
	case "assignment":
		return solver.PurposeAssignment, nil
	case "return":
		return solver.PurposeReturn, nil
	case "call-argument":
		return solver.PurposeCallArgument, nil
	case "condition":
		return solver.PurposeCondition, nil
	case "collection-element":
		return solver.PurposeCollectionElement, nil
	case "coercion":
		return solver.PurposeCoercion, nil
	default:
		return solver.PurposeNone, fmt.Errorf("unknown contextual purpose %q", s)
	}
}
