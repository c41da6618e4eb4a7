package diagnose

import (
	"fmt"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/solver"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// RequirementSite carries the construction context shared by the requirement
// family: which declaration's requirement failed, the conformance the
// requirement came from when it is conditional, and the apply expression the
// reference sits in, when any.
type RequirementSite struct {
	Affected    symbols.DeclID
	Conformance *symbols.Conformance
	Signature   *symbols.GenericSignature
	Apply       ast.ExprID
}

// RequirementFailure is the shared state for the three requirement failure
// kinds. Exactly one of conformance and signature is set: conformance for
// requirements derived from a conditional conformance, signature otherwise.
type RequirementFailure struct {
	loc  solver.Locator
	kind symbols.RequirementKind
	lhs  types.TypeID
	rhs  types.TypeID

	affected    symbols.DeclID
	conformance *symbols.Conformance
	signature   *symbols.GenericSignature
	apply       ast.ExprID
}

func newRequirementFailure(loc solver.Locator, kind symbols.RequirementKind, lhs, rhs types.TypeID, site RequirementSite) (*RequirementFailure, error) {
	last, ok := loc.Last()
	if !ok || !(last.IsTypeParameterRequirement() || last.IsConditionalRequirement()) || last.RequirementKind() != kind {
		return nil, malformedLocator(kind.String()+" requirement failure", loc)
	}
	f := &RequirementFailure{
		loc:      loc,
		kind:     kind,
		lhs:      lhs,
		rhs:      rhs,
		affected: site.Affected,
		apply:    site.Apply,
	}
	if last.IsConditionalRequirement() {
		if site.Conformance == nil {
			return nil, malformedLocator("conditional requirement without conformance", loc)
		}
		f.conformance = site.Conformance
	} else {
		if site.Signature == nil {
			return nil, malformedLocator("requirement without generic signature", loc)
		}
		f.signature = site.Signature
	}
	return f, nil
}

// MissingConformance builds a conformance-requirement failure: lhs was
// required to conform to the protocol rhs and does not.
func MissingConformance(loc solver.Locator, lhs, rhs types.TypeID, site RequirementSite) (*RequirementFailure, error) {
	return newRequirementFailure(loc, symbols.RequirementConformance, lhs, rhs, site)
}

// SameTypeRequirement builds a same-type-requirement failure: lhs and rhs
// were required to be equal and are not.
func SameTypeRequirement(loc solver.Locator, lhs, rhs types.TypeID, site RequirementSite) (*RequirementFailure, error) {
	return newRequirementFailure(loc, symbols.RequirementSameType, lhs, rhs, site)
}

// SuperclassRequirement builds a superclass-requirement failure: lhs was
// required to inherit from rhs and does not.
func SuperclassRequirement(loc solver.Locator, lhs, rhs types.TypeID, site RequirementSite) (*RequirementFailure, error) {
	return newRequirementFailure(loc, symbols.RequirementSuperclass, lhs, rhs, site)
}

func (f *RequirementFailure) Locator() solver.Locator { return f.loc }

// Kind returns the requirement kind the failure was built for.
func (f *RequirementFailure) Kind() symbols.RequirementKind { return f.kind }

// IsConditional reports whether the failed requirement comes from a
// conditional conformance.
func (f *RequirementFailure) IsConditional() bool { return f.conformance != nil }

// RequirementIndex returns the failed requirement's position inside its
// signature or conditional where-clause.
func (f *RequirementFailure) RequirementIndex() int {
	last, ok := f.loc.Last()
	if !ok {
		return -1
	}
	return int(last.Value)
}

// Requirement resolves the failed requirement record.
func (f *RequirementFailure) Requirement() (symbols.Requirement, bool) {
	i := f.RequirementIndex()
	if f.conformance != nil {
		return f.conformance.RequirementAt(i)
	}
	return f.signature.RequirementAt(i)
}

// canDiagnoseFailure decides whether this failure should render at all, or
// defer to a more specific diagnostic expected from another path.
//
// Conditional requirements always render: their provenance is precise.
// Unresolved-member anchors render only when the locator's first element is
// itself the unresolved-member step, which keeps a generic declaration whose
// signature gets opened twice for one expression (once via contextual type,
// once via member lookup) from being reported twice. Note this checks only
// the first path element; it is a narrow heuristic, not a general invariant.
// Failures inside operator applications and on bare type references defer to
// the argument-mismatch path.
func (f *RequirementFailure) canDiagnoseFailure(cx *Context) bool {
	if f.IsConditional() {
		return true
	}

	if cx.Snap.Exprs.Kind(cx.RawAnchor) == ast.ExprUnresolvedMember {
		first, ok := f.loc.First()
		if !ok || first.Kind != solver.ElemUnresolvedMember {
			return false
		}
	}

	apply := f.apply
	if !apply.IsValid() && cx.Snap.Exprs.IsApply(cx.RawAnchor) {
		apply = cx.RawAnchor
	}
	if apply.IsValid() && cx.Snap.Exprs.IsOperatorApply(apply) {
		return false
	}
	if cx.Snap.Exprs.Kind(cx.RawAnchor) == ast.ExprTypeRef {
		return false
	}
	return true
}

// requirement message templates --------------------------------------------

type reqPlacement uint8

const (
	placeOnDecl reqPlacement = iota
	placeInReference
	placeAsNote
)

type reqMessageKey struct {
	Kind  symbols.RequirementKind
	Place reqPlacement
}

// requirementMessages maps (kind, placement) to a message template. The
// onDecl and asNote forms take (lhs, rhs); the inReference form additionally
// takes (declKind, declName).
var requirementMessages = map[reqMessageKey]string{
	{symbols.RequirementConformance, placeOnDecl}:      "type '%s' does not conform to protocol '%s'",
	{symbols.RequirementConformance, placeInReference}: "type '%s' does not conform to protocol '%s' in reference to %s '%s'",
	{symbols.RequirementConformance, placeAsNote}:      "candidate requires that '%s' conform to '%s'",

	{symbols.RequirementSameType, placeOnDecl}:      "types '%s' and '%s' must be equivalent",
	{symbols.RequirementSameType, placeInReference}: "types '%s' and '%s' must be equivalent in reference to %s '%s'",
	{symbols.RequirementSameType, placeAsNote}:      "candidate requires that the types '%s' and '%s' be equivalent",

	{symbols.RequirementSuperclass, placeOnDecl}:      "type '%s' must inherit from '%s'",
	{symbols.RequirementSuperclass, placeInReference}: "type '%s' must inherit from '%s' in reference to %s '%s'",
	{symbols.RequirementSuperclass, placeAsNote}:      "candidate requires that '%s' inherit from '%s'",
}

var requirementCodes = map[symbols.RequirementKind]diag.Code{
	symbols.RequirementConformance: diag.TckConformanceRequirement,
	symbols.RequirementSameType:    diag.TckSameTypeRequirement,
	symbols.RequirementSuperclass:  diag.TckSuperclassRequirement,
}

// placement picks the message shape: a failure attributed directly to the
// affected declaration, or one hit while resolving a reference to a different
// declaration.
func (f *RequirementFailure) placement(cx *Context) reqPlacement {
	if !f.apply.IsValid() {
		return placeOnDecl
	}
	callee := f.apply
	if data, ok := cx.Snap.Exprs.Call(f.apply); ok {
		callee = cx.Snap.Exprs.SemanticsProviding(data.Target)
	}
	if choice, ok := cx.ChoiceFor(callee); ok && choice.Decl.IsValid() && choice.Decl != f.affected {
		return placeInReference
	}
	return placeOnDecl
}

func (f *RequirementFailure) DiagnoseAsError(cx *Context) bool {
	if !f.canDiagnoseFailure(cx) {
		return false
	}

	lhs := cx.TypeName(f.lhs)
	rhs := cx.TypeName(f.rhs)
	code := requirementCodes[f.kind]

	var msg string
	switch place := f.placement(cx); place {
	case placeInReference:
		decl := cx.Decl(f.affected)
		kind, name := "declaration", cx.DeclName(f.affected)
		if decl != nil {
			kind = decl.Kind.String()
		}
		msg = fmt.Sprintf(requirementMessages[reqMessageKey{f.kind, place}], lhs, rhs, kind, name)
	default:
		msg = fmt.Sprintf(requirementMessages[reqMessageKey{f.kind, placeOnDecl}], lhs, rhs)
	}

	b := cx.Error(code, cx.SpanOf(cx.Anchor), "%s", msg)
	if f.conformance != nil {
		b.WithNote(cx.SpanOf(cx.RawAnchor),
			fmt.Sprintf("requirement from conditional conformance of '%s' to '%s'",
				cx.TypeName(f.conformance.Type), cx.TypeName(f.conformance.Protocol)))
	} else if req, ok := f.Requirement(); ok {
		b.WithNote(cx.SpanOf(cx.RawAnchor),
			fmt.Sprintf("where '%s' %s '%s'",
				cx.TypeName(req.LHS), requirementVerb(req.Kind), cx.TypeName(req.RHS)))
	}
	b.Emit()
	return true
}

func (f *RequirementFailure) DiagnoseAsNote(cx *Context) bool {
	msg := fmt.Sprintf(requirementMessages[reqMessageKey{f.kind, placeAsNote}],
		cx.TypeName(f.lhs), cx.TypeName(f.rhs))
	cx.Note(diag.TckCandidateNote, cx.SpanOf(cx.Anchor), "%s", msg).Emit()
	return true
}

func requirementVerb(k symbols.RequirementKind) string {
	switch k {
	case symbols.RequirementConformance:
		return "conforms to"
	case symbols.RequirementSameType:
		return "=="
	case symbols.RequirementSuperclass:
		return "inherits from"
	default:
		return "satisfies"
	}
}

// GenericArgumentsMismatchFailure fires when two generic applications of the
// same nominal type disagree at specific argument positions.
type GenericArgumentsMismatchFailure struct {
	noNote
	loc      solver.Locator
	actual   types.TypeID
	required types.TypeID
	// mismatches are the disagreeing argument positions, ascending.
	mismatches []int
}

// GenericArgumentsMismatch builds the positional generic-argument failure.
// At least one mismatch position is required.
func GenericArgumentsMismatch(loc solver.Locator, actual, required types.TypeID, mismatches []int) (*GenericArgumentsMismatchFailure, error) {
	if len(mismatches) == 0 {
		return nil, malformedLocator("generic arguments mismatch without positions", loc)
	}
	return &GenericArgumentsMismatchFailure{
		loc:        loc,
		actual:     actual,
		required:   required,
		mismatches: append([]int(nil), mismatches...),
	}, nil
}

func (f *GenericArgumentsMismatchFailure) Locator() solver.Locator { return f.loc }

func (f *GenericArgumentsMismatchFailure) DiagnoseAsError(cx *Context) bool {
	b := cx.ErrorAtAnchor(diag.TckGenericArgumentsMismatch,
		"cannot convert value of type '%s' to expected type '%s'",
		cx.TypeName(f.actual), cx.TypeName(f.required))

	actualArgs := genericArgs(cx, f.actual)
	requiredArgs := genericArgs(cx, f.required)
	for _, i := range f.mismatches {
		if i < 0 || i >= len(actualArgs) || i >= len(requiredArgs) {
			continue
		}
		b.WithNote(cx.SpanOf(cx.Anchor),
			fmt.Sprintf("generic argument %d: '%s' is not '%s'",
				i, cx.TypeName(actualArgs[i]), cx.TypeName(requiredArgs[i])))
	}
	b.Emit()
	return true
}

func genericArgs(cx *Context, t types.TypeID) []types.TypeID {
	resolved, ok := cx.Snap.Types.Lookup(cx.Snap.Types.Desugar(cx.ResolveType(t, false)))
	if !ok {
		return nil
	}
	return resolved.Args
}
