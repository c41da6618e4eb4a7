package ast

import (
	"cinder/internal/source"
)

// ExprKind discriminates the expression shapes the diagnosis layer inspects.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIdent
	ExprLit
	ExprCall
	ExprMember
	// ExprUnresolvedMember is the leading-dot member sugar `.case` whose
	// base is inferred from context.
	ExprUnresolvedMember
	ExprSubscript
	ExprUnary
	ExprBinary
	ExprAssign
	ExprClosure
	ExprKeyPath
	// ExprOptionalChain is the postfix `?.` chaining operator.
	ExprOptionalChain
	// ExprForceUnwrap is the postfix `!` operator.
	ExprForceUnwrap
	// ExprAddressOf is the prefix `&` used for inout arguments.
	ExprAddressOf
	ExprParen
	ExprTuple
	ExprArrayLit
	// ExprTypeRef is a bare reference to a type, e.g. `S` in `S(42)`.
	ExprTypeRef
	// ExprCoerce is an explicit conversion `x as T` / `x as! T`.
	ExprCoerce
	ExprReturn
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprLit:
		return "literal"
	case ExprCall:
		return "call"
	case ExprMember:
		return "member"
	case ExprUnresolvedMember:
		return "unresolved-member"
	case ExprSubscript:
		return "subscript"
	case ExprUnary:
		return "unary"
	case ExprBinary:
		return "binary"
	case ExprAssign:
		return "assign"
	case ExprClosure:
		return "closure"
	case ExprKeyPath:
		return "keypath"
	case ExprOptionalChain:
		return "optional-chain"
	case ExprForceUnwrap:
		return "force-unwrap"
	case ExprAddressOf:
		return "address-of"
	case ExprParen:
		return "paren"
	case ExprTuple:
		return "tuple"
	case ExprArrayLit:
		return "array-literal"
	case ExprTypeRef:
		return "type-ref"
	case ExprCoerce:
		return "coerce"
	case ExprReturn:
		return "return"
	default:
		return "invalid"
	}
}

// Expr is the arena header for every expression.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// Per-kind payloads ----------------------------------------------------------

type ExprIdentData struct {
	Name source.StringID
}

type ExprLiteralData struct {
	Value source.StringID
}

// CallArg is one call-site argument with its optional label.
type CallArg struct {
	Label source.StringID
	Value ExprID
}

type ExprCallData struct {
	Target          ExprID
	Args            []CallArg
	TrailingClosure bool
}

type ExprMemberData struct {
	Base ExprID
	Name source.StringID
}

type ExprUnresolvedMemberData struct {
	Name source.StringID
}

type ExprSubscriptData struct {
	Base    ExprID
	Indices []CallArg
}

type ExprUnaryData struct {
	Op      source.StringID
	Operand ExprID
	Postfix bool
}

type ExprBinaryData struct {
	Op    source.StringID
	Left  ExprID
	Right ExprID
}

type ExprAssignData struct {
	Dest   ExprID
	Source ExprID
}

// ClosureParam is one declared closure parameter.
type ClosureParam struct {
	Name source.StringID
	Span source.Span
}

type ExprClosureData struct {
	Params []ClosureParam
	Body   ExprID
}

// KeyPathComponentKind discriminates key path components.
type KeyPathComponentKind uint8

const (
	KeyPathProperty KeyPathComponentKind = iota
	KeyPathSubscript
	KeyPathOptionalChain
	KeyPathOptionalForce
)

// KeyPathComponent is one component of a key path literal.
type KeyPathComponent struct {
	Kind    KeyPathComponentKind
	Name    source.StringID
	Indices []CallArg
	Span    source.Span
}

type ExprKeyPathData struct {
	// Root is the written root type name, NoStringID for contextual roots.
	Root       source.StringID
	Components []KeyPathComponent
}

type ExprOptionalChainData struct {
	Base ExprID
}

type ExprForceUnwrapData struct {
	Base ExprID
}

type ExprAddressOfData struct {
	Operand ExprID
}

type ExprParenData struct {
	Inner ExprID
}

type ExprTupleData struct {
	Elems []ExprID
}

type ExprArrayLitData struct {
	Elems []ExprID
}

type ExprTypeRefData struct {
	Name source.StringID
}

type ExprCoerceData struct {
	Value    ExprID
	TypeName source.StringID
	Forced   bool
}

type ExprReturnData struct {
	Value ExprID // NoExprID for bare `return`
}
