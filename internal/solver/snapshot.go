package solver

import (
	"cinder/internal/ast"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// RestrictionKind names the implicit conversion the solver applied to make a
// constraint succeed. Diagnosis consults these to phrase mismatches.
type RestrictionKind uint8

const (
	RestrictNone RestrictionKind = iota
	// RestrictValueToOptional injects T into T?.
	RestrictValueToOptional
	// RestrictOptionalToOptional converts T? across payload conversions.
	RestrictOptionalToOptional
	// RestrictExistential erases a concrete type to a protocol type.
	RestrictExistential
	// RestrictSuperclass upcasts to a superclass.
	RestrictSuperclass
	// RestrictArrayUpcast converts [T] to [U] element-wise.
	RestrictArrayUpcast
	// RestrictDeepEquality requires element types to match exactly.
	RestrictDeepEquality
)

func (k RestrictionKind) String() string {
	switch k {
	case RestrictValueToOptional:
		return "value-to-optional"
	case RestrictOptionalToOptional:
		return "optional-to-optional"
	case RestrictExistential:
		return "existential"
	case RestrictSuperclass:
		return "superclass"
	case RestrictArrayUpcast:
		return "array-upcast"
	case RestrictDeepEquality:
		return "deep-equality"
	default:
		return "none"
	}
}

// Restriction records one applied conversion restriction keyed by the source
// type it fired on.
type Restriction struct {
	Source types.TypeID
	Target types.TypeID
	Kind   RestrictionKind
}

// OverloadChoice is one candidate the solver considered for a reference.
type OverloadChoice struct {
	Decl symbols.DeclID
	// OpenedType is the candidate's type with generic parameters replaced by
	// fresh type variables for this solve.
	OpenedType types.TypeID
}

// ResolvedOverload is one node of the newest-first resolution chain. Lookup
// walks the chain and takes the first exact locator match, so a later
// re-resolution of the same locator shadows the earlier one.
type ResolvedOverload struct {
	Locator Locator
	Choice  OverloadChoice
	Prev    *ResolvedOverload
}

// ContextualPurpose says what role the contextual type plays at the failing
// expression.
type ContextualPurpose uint8

const (
	PurposeNone ContextualPurpose = iota
	PurposeInitialization
	PurposeAssignment
	PurposeReturn
	PurposeCallArgument
	PurposeCondition
	PurposeCollectionElement
	PurposeCoercion
)

func (p ContextualPurpose) String() string {
	switch p {
	case PurposeInitialization:
		return "initialization"
	case PurposeAssignment:
		return "assignment"
	case PurposeReturn:
		return "return"
	case PurposeCallArgument:
		return "call-argument"
	case PurposeCondition:
		return "condition"
	case PurposeCollectionElement:
		return "collection-element"
	case PurposeCoercion:
		return "coercion"
	default:
		return "none"
	}
}

// Snapshot is the immutable view of a finished (failed) solve. The diagnosis
// layer reads it; nothing here mutates after construction except the overload
// chain head, which the solver pushes to while solving.
type Snapshot struct {
	Exprs    *ast.Exprs
	Parents  *ast.Parents
	Types    *types.Interner
	Decls    *symbols.Table
	Generics *symbols.Generics

	// Files is optional; when present, diagnosis can quote source text in
	// fix-it edits.
	Files *source.FileSet

	// ExprTypes maps each visited expression to its solved (possibly still
	// type-variable-laden) type.
	ExprTypes map[ast.ExprID]types.TypeID

	// Bindings maps type variables to their fixed types. Chains are legal:
	// $T0 -> $T1 -> Int.
	Bindings map[types.TypeID]types.TypeID

	overloads    *ResolvedOverload
	restrictions []Restriction

	ContextualType    types.TypeID
	ContextualPurpose ContextualPurpose
}

// NewSnapshot wires a snapshot over the given semantic stores.
func NewSnapshot(exprs *ast.Exprs, parents *ast.Parents, ti *types.Interner, decls *symbols.Table, gens *symbols.Generics) *Snapshot {
	return &Snapshot{
		Exprs:     exprs,
		Parents:   parents,
		Types:     ti,
		Decls:     decls,
		Generics:  gens,
		ExprTypes: make(map[ast.ExprID]types.TypeID),
		Bindings:  make(map[types.TypeID]types.TypeID),
	}
}

// SetExprType records the solved type for an expression.
func (s *Snapshot) SetExprType(e ast.ExprID, t types.TypeID) {
	s.ExprTypes[e] = t
}

// Bind fixes a type variable to a type.
func (s *Snapshot) Bind(tv, t types.TypeID) {
	s.Bindings[tv] = t
}

// RecordOverload pushes a resolved overload onto the chain head.
func (s *Snapshot) RecordOverload(loc Locator, choice OverloadChoice) {
	s.overloads = &ResolvedOverload{Locator: loc, Choice: choice, Prev: s.overloads}
}

// RecordRestriction notes an applied conversion restriction.
func (s *Snapshot) RecordRestriction(source, target types.TypeID, kind RestrictionKind) {
	s.restrictions = append(s.restrictions, Restriction{Source: source, Target: target, Kind: kind})
}

// OverloadChain returns the head of the newest-first resolution chain.
func (s *Snapshot) OverloadChain() *ResolvedOverload {
	return s.overloads
}

// ResolvedOverloadFor walks the chain newest-first and returns the choice for
// the first exact locator match.
func (s *Snapshot) ResolvedOverloadFor(loc Locator) (OverloadChoice, bool) {
	for node := s.overloads; node != nil; node = node.Prev {
		if node.Locator.Equal(loc) {
			return node.Choice, true
		}
	}
	return OverloadChoice{}, false
}

// RestrictionFor returns the restriction recorded against a source type.
func (s *Snapshot) RestrictionFor(source types.TypeID) (Restriction, bool) {
	for _, r := range s.restrictions {
		if r.Source == source {
			return r, true
		}
	}
	return Restriction{}, false
}

// TypeOf returns the simplified solved type for an expression. The boolean is
// false when the solver never visited the expression.
func (s *Snapshot) TypeOf(e ast.ExprID) (types.TypeID, bool) {
	t, ok := s.ExprTypes[e]
	if !ok {
		return types.NoTypeID, false
	}
	return s.SimplifyType(t), true
}

// RawTypeOf returns the recorded type without resolving type variables.
func (s *Snapshot) RawTypeOf(e ast.ExprID) (types.TypeID, bool) {
	t, ok := s.ExprTypes[e]
	return t, ok
}

// SimplifyType substitutes bound type variables structurally and then
// reconstitutes sugar so diagnostics print the names the user wrote.
func (s *Snapshot) SimplifyType(t types.TypeID) types.TypeID {
	resolved := s.Types.Substitute(t, s.Bindings)
	return s.Types.Reconstitute(resolved)
}

// HasFreeTypeVars reports whether simplification still leaves unresolved type
// variables in t.
func (s *Snapshot) HasFreeTypeVars(t types.TypeID) bool {
	return s.Types.HasTypeVars(s.SimplifyType(t))
}
