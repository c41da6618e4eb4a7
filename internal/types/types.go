package types

import (
	"fmt"

	"cinder/internal/source"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	// KindAny is the unconstrained dynamic type.
	KindAny
	// KindAnyRef is the reference-constrained dynamic type; it is the only
	// valid dynamic root for key paths and triggers its own diagnostics.
	KindAnyRef
	KindOptional
	KindArray
	KindTuple
	KindFunc
	// KindNominal covers structs, classes and enums; with Args it is a
	// bound generic type.
	KindNominal
	KindProtocol
	KindMetatype
	// KindTypeVar is a solver-introduced variable, resolved via bindings.
	KindTypeVar
	// KindGenericParam is a user-written generic parameter such as T.
	KindGenericParam
	// KindAlias is display sugar over another type.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindAny:
		return "any"
	case KindAnyRef:
		return "anyref"
	case KindOptional:
		return "optional"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindFunc:
		return "func"
	case KindNominal:
		return "nominal"
	case KindProtocol:
		return "protocol"
	case KindMetatype:
		return "metatype"
	case KindTypeVar:
		return "typevar"
	case KindGenericParam:
		return "genericparam"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParamFlags captures per-parameter modifiers of function types.
type ParamFlags uint8

const (
	ParamInOut ParamFlags = 1 << iota
	ParamNoEscape
	ParamAutoClosure
	ParamVariadic
	// ParamDefaulted marks a parameter with a default value; calls may omit it.
	ParamDefaulted
)

// Param is a single function-type parameter.
type Param struct {
	Label source.StringID // NoStringID for unlabeled parameters
	Type  TypeID
	Flags ParamFlags
}

// Type is a structural descriptor for any supported type.
// Exactly the fields relevant to Kind are populated.
type Type struct {
	Kind    Kind
	Name    source.StringID // nominal, protocol, generic param, alias
	Elem    TypeID          // optional/array payload, metatype instance, alias target
	Elems   []TypeID        // tuple elements
	Args    []TypeID        // nominal type arguments
	Params  []Param         // function parameters
	Result  TypeID          // function result
	Ordinal uint32          // type variable ordinal
	// ProtocolMetatype distinguishes P.Type from concrete metatypes.
	ProtocolMetatype bool
}

// Descriptor helpers ---------------------------------------------------------

func MakeOptional(elem TypeID) Type {
	return Type{Kind: KindOptional, Elem: elem}
}

func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}

func MakeTuple(elems ...TypeID) Type {
	return Type{Kind: KindTuple, Elems: elems}
}

func MakeFunc(params []Param, result TypeID) Type {
	return Type{Kind: KindFunc, Params: params, Result: result}
}

func MakeNominal(name source.StringID, args ...TypeID) Type {
	return Type{Kind: KindNominal, Name: name, Args: args}
}

func MakeProtocol(name source.StringID) Type {
	return Type{Kind: KindProtocol, Name: name}
}

func MakeMetatype(instance TypeID, protocol bool) Type {
	return Type{Kind: KindMetatype, Elem: instance, ProtocolMetatype: protocol}
}

func MakeTypeVar(ordinal uint32) Type {
	return Type{Kind: KindTypeVar, Ordinal: ordinal}
}

func MakeGenericParam(name source.StringID) Type {
	return Type{Kind: KindGenericParam, Name: name}
}
