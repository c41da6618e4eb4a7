// Package solver exposes the read-only view of one constraint solve that the
// diagnosis layer consumes: per-expression solved types, type-variable
// bindings, the resolved-overload chain, conversion restrictions, and the
// locators that explain where each constraint came from.
//
// Everything here is borrowed state. A Snapshot is valid for the duration of
// one diagnosis attempt and must not be retained afterward.
package solver

import (
	"fmt"
	"strings"

	"cinder/internal/ast"
	"cinder/internal/symbols"
)

// PathElementKind discriminates locator path elements.
type PathElementKind uint8

const (
	ElemInvalid PathElementKind = iota
	// ElemApplyArgument narrows to the i-th call-site argument.
	ElemApplyArgument
	// ElemMember narrows to the base of a member access.
	ElemMember
	// ElemUnresolvedMember marks provenance through leading-dot member lookup.
	ElemUnresolvedMember
	// ElemSubscriptIndex narrows to the i-th subscript index.
	ElemSubscriptIndex
	// ElemTupleElement narrows to the i-th tuple element.
	ElemTupleElement
	// ElemOptionalPayload narrows to the operand being unwrapped.
	ElemOptionalPayload
	// ElemGenericArgument points at the i-th generic argument.
	ElemGenericArgument
	// ElemTypeParamRequirement points at requirement i of a generic signature.
	ElemTypeParamRequirement
	// ElemConditionalRequirement points at requirement i of a conformance's
	// where-clause.
	ElemConditionalRequirement
	// ElemKeyPathComponent points at the i-th key path component.
	ElemKeyPathComponent
	// ElemContextualType marks provenance through the contextual type.
	ElemContextualType
	// ElemFunctionResult points at the result of a function type.
	ElemFunctionResult
)

func (k PathElementKind) String() string {
	switch k {
	case ElemApplyArgument:
		return "apply-argument"
	case ElemMember:
		return "member"
	case ElemUnresolvedMember:
		return "unresolved-member"
	case ElemSubscriptIndex:
		return "subscript-index"
	case ElemTupleElement:
		return "tuple-element"
	case ElemOptionalPayload:
		return "optional-payload"
	case ElemGenericArgument:
		return "generic-argument"
	case ElemTypeParamRequirement:
		return "type-param-requirement"
	case ElemConditionalRequirement:
		return "conditional-requirement"
	case ElemKeyPathComponent:
		return "key-path-component"
	case ElemContextualType:
		return "contextual-type"
	case ElemFunctionResult:
		return "function-result"
	default:
		return "invalid"
	}
}

// PathElement is one step of a locator path. Value carries the element's
// index payload; Value2 carries the encoded RequirementKind for requirement
// elements.
type PathElement struct {
	Kind   PathElementKind
	Value  uint32
	Value2 uint32
}

// IsTypeParameterRequirement reports a generic-signature requirement element.
func (e PathElement) IsTypeParameterRequirement() bool {
	return e.Kind == ElemTypeParamRequirement
}

// IsConditionalRequirement reports a conformance where-clause element.
func (e PathElement) IsConditionalRequirement() bool {
	return e.Kind == ElemConditionalRequirement
}

// RequirementKind decodes the requirement kind for requirement elements.
func (e PathElement) RequirementKind() symbols.RequirementKind {
	return symbols.RequirementKind(e.Value2)
}

// Element constructors, so call sites read like the path they build.

func ApplyArgument(index int) PathElement {
	return PathElement{Kind: ElemApplyArgument, Value: uint32(index)}
}

func Member() PathElement {
	return PathElement{Kind: ElemMember}
}

func UnresolvedMember() PathElement {
	return PathElement{Kind: ElemUnresolvedMember}
}

func SubscriptIndex(index int) PathElement {
	return PathElement{Kind: ElemSubscriptIndex, Value: uint32(index)}
}

func TupleElement(index int) PathElement {
	return PathElement{Kind: ElemTupleElement, Value: uint32(index)}
}

func OptionalPayload() PathElement {
	return PathElement{Kind: ElemOptionalPayload}
}

func GenericArgument(index int) PathElement {
	return PathElement{Kind: ElemGenericArgument, Value: uint32(index)}
}

func TypeParamRequirement(index int, kind symbols.RequirementKind) PathElement {
	return PathElement{Kind: ElemTypeParamRequirement, Value: uint32(index), Value2: uint32(kind)}
}

func ConditionalRequirement(index int, kind symbols.RequirementKind) PathElement {
	return PathElement{Kind: ElemConditionalRequirement, Value: uint32(index), Value2: uint32(kind)}
}

func KeyPathComponent(index int) PathElement {
	return PathElement{Kind: ElemKeyPathComponent, Value: uint32(index)}
}

func ContextualType() PathElement {
	return PathElement{Kind: ElemContextualType}
}

func FunctionResult() PathElement {
	return PathElement{Kind: ElemFunctionResult}
}

// Locator is an anchor expression plus the ordered derivation path that
// explains why and where a constraint was generated.
type Locator struct {
	Anchor ast.ExprID
	Path   []PathElement
}

// At builds a locator rooted at anchor with the given path.
func At(anchor ast.ExprID, path ...PathElement) Locator {
	return Locator{Anchor: anchor, Path: path}
}

// First returns the first path element; ok=false for empty paths.
func (l Locator) First() (PathElement, bool) {
	if len(l.Path) == 0 {
		return PathElement{}, false
	}
	return l.Path[0], true
}

// Last returns the final path element; ok=false for empty paths.
func (l Locator) Last() (PathElement, bool) {
	if len(l.Path) == 0 {
		return PathElement{}, false
	}
	return l.Path[len(l.Path)-1], true
}

// Equal reports exact locator equality: same anchor, same path.
func (l Locator) Equal(other Locator) bool {
	if l.Anchor != other.Anchor || len(l.Path) != len(other.Path) {
		return false
	}
	for i := range l.Path {
		if l.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

// IsKeyPathComponent reports whether the locator points into a key path
// literal.
func (l Locator) IsKeyPathComponent() bool {
	last, ok := l.Last()
	return ok && last.Kind == ElemKeyPathComponent
}

// IsForRequirement reports whether the locator terminates in a generic
// requirement element (type-param or conditional).
func (l Locator) IsForRequirement() bool {
	last, ok := l.Last()
	return ok && (last.IsTypeParameterRequirement() || last.IsConditionalRequirement())
}

func (l Locator) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "expr%d", l.Anchor)
	for _, el := range l.Path {
		b.WriteString(" -> ")
		b.WriteString(el.Kind.String())
		switch el.Kind {
		case ElemApplyArgument, ElemSubscriptIndex, ElemTupleElement,
			ElemGenericArgument, ElemKeyPathComponent:
			fmt.Fprintf(&b, "(%d)", el.Value)
		case ElemTypeParamRequirement, ElemConditionalRequirement:
			fmt.Fprintf(&b, "(%d, %s)", el.Value, symbols.RequirementKind(el.Value2))
		}
	}
	return b.String()
}
