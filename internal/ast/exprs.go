package ast

import (
	"cinder/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena             *Arena[Expr]
	Idents            *Arena[ExprIdentData]
	Literals          *Arena[ExprLiteralData]
	Calls             *Arena[ExprCallData]
	Members           *Arena[ExprMemberData]
	UnresolvedMembers *Arena[ExprUnresolvedMemberData]
	Subscripts        *Arena[ExprSubscriptData]
	Unaries           *Arena[ExprUnaryData]
	Binaries          *Arena[ExprBinaryData]
	Assigns           *Arena[ExprAssignData]
	Closures          *Arena[ExprClosureData]
	KeyPaths          *Arena[ExprKeyPathData]
	OptionalChains    *Arena[ExprOptionalChainData]
	ForceUnwraps      *Arena[ExprForceUnwrapData]
	AddressOfs        *Arena[ExprAddressOfData]
	Parens            *Arena[ExprParenData]
	Tuples            *Arena[ExprTupleData]
	ArrayLits         *Arena[ExprArrayLitData]
	TypeRefs          *Arena[ExprTypeRefData]
	Coerces           *Arena[ExprCoerceData]
	Returns           *Arena[ExprReturnData]
}

// NewExprs creates an Exprs with per-kind arenas preallocated to capHint.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Exprs{
		Arena:             NewArena[Expr](capHint),
		Idents:            NewArena[ExprIdentData](capHint),
		Literals:          NewArena[ExprLiteralData](capHint),
		Calls:             NewArena[ExprCallData](capHint),
		Members:           NewArena[ExprMemberData](capHint),
		UnresolvedMembers: NewArena[ExprUnresolvedMemberData](capHint),
		Subscripts:        NewArena[ExprSubscriptData](capHint),
		Unaries:           NewArena[ExprUnaryData](capHint),
		Binaries:          NewArena[ExprBinaryData](capHint),
		Assigns:           NewArena[ExprAssignData](capHint),
		Closures:          NewArena[ExprClosureData](capHint),
		KeyPaths:          NewArena[ExprKeyPathData](capHint),
		OptionalChains:    NewArena[ExprOptionalChainData](capHint),
		ForceUnwraps:      NewArena[ExprForceUnwrapData](capHint),
		AddressOfs:        NewArena[ExprAddressOfData](capHint),
		Parens:            NewArena[ExprParenData](capHint),
		Tuples:            NewArena[ExprTupleData](capHint),
		ArrayLits:         NewArena[ExprArrayLitData](capHint),
		TypeRefs:          NewArena[ExprTypeRefData](capHint),
		Coerces:           NewArena[ExprCoerceData](capHint),
		Returns:           NewArena[ExprReturnData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// Kind returns the expression kind, ExprInvalid for absent IDs.
func (e *Exprs) Kind(id ExprID) ExprKind {
	expr := e.Get(id)
	if expr == nil {
		return ExprInvalid
	}
	return expr.Kind
}

// Span returns the expression span; the zero span for absent IDs.
func (e *Exprs) Span(id ExprID) source.Span {
	expr := e.Get(id)
	if expr == nil {
		return source.Span{}
	}
	return expr.Span
}

// NewIdent creates an identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	payload := e.Idents.Allocate(ExprIdentData{Name: name})
	return e.new(ExprIdent, span, PayloadID(payload))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

// NewLiteral creates a literal expression.
func (e *Exprs) NewLiteral(span source.Span, value source.StringID) ExprID {
	payload := e.Literals.Allocate(ExprLiteralData{Value: value})
	return e.new(ExprLit, span, PayloadID(payload))
}

// Literal returns the literal data for the given expression ID.
func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil, false
	}
	return e.Literals.Get(uint32(expr.Payload)), true
}

// NewCall creates a call expression.
func (e *Exprs) NewCall(span source.Span, target ExprID, args []CallArg, trailing bool) ExprID {
	payload := e.Calls.Allocate(ExprCallData{
		Target:          target,
		Args:            append([]CallArg(nil), args...),
		TrailingClosure: trailing,
	})
	return e.new(ExprCall, span, PayloadID(payload))
}

// Call returns the call data for the given expression ID.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

// NewMember creates a member access expression.
func (e *Exprs) NewMember(span source.Span, base ExprID, name source.StringID) ExprID {
	payload := e.Members.Allocate(ExprMemberData{Base: base, Name: name})
	return e.new(ExprMember, span, PayloadID(payload))
}

// Member returns the member data for the given expression ID.
func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMember {
		return nil, false
	}
	return e.Members.Get(uint32(expr.Payload)), true
}

// NewUnresolvedMember creates a leading-dot member expression.
func (e *Exprs) NewUnresolvedMember(span source.Span, name source.StringID) ExprID {
	payload := e.UnresolvedMembers.Allocate(ExprUnresolvedMemberData{Name: name})
	return e.new(ExprUnresolvedMember, span, PayloadID(payload))
}

// UnresolvedMember returns the unresolved-member data.
func (e *Exprs) UnresolvedMember(id ExprID) (*ExprUnresolvedMemberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnresolvedMember {
		return nil, false
	}
	return e.UnresolvedMembers.Get(uint32(expr.Payload)), true
}

// NewSubscript creates a subscript expression.
func (e *Exprs) NewSubscript(span source.Span, base ExprID, indices []CallArg) ExprID {
	payload := e.Subscripts.Allocate(ExprSubscriptData{
		Base:    base,
		Indices: append([]CallArg(nil), indices...),
	})
	return e.new(ExprSubscript, span, PayloadID(payload))
}

// Subscript returns the subscript data for the given expression ID.
func (e *Exprs) Subscript(id ExprID) (*ExprSubscriptData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSubscript {
		return nil, false
	}
	return e.Subscripts.Get(uint32(expr.Payload)), true
}

// NewUnary creates a prefix or postfix unary operator expression.
func (e *Exprs) NewUnary(span source.Span, op source.StringID, operand ExprID, postfix bool) ExprID {
	payload := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand, Postfix: postfix})
	return e.new(ExprUnary, span, PayloadID(payload))
}

// Unary returns the unary data for the given expression ID.
func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnary {
		return nil, false
	}
	return e.Unaries.Get(uint32(expr.Payload)), true
}

// NewBinary creates a binary operator expression.
func (e *Exprs) NewBinary(span source.Span, op source.StringID, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(payload))
}

// Binary returns the binary data for the given expression ID.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}

// NewAssign creates an assignment expression.
func (e *Exprs) NewAssign(span source.Span, dest, src ExprID) ExprID {
	payload := e.Assigns.Allocate(ExprAssignData{Dest: dest, Source: src})
	return e.new(ExprAssign, span, PayloadID(payload))
}

// Assign returns the assignment data for the given expression ID.
func (e *Exprs) Assign(id ExprID) (*ExprAssignData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAssign {
		return nil, false
	}
	return e.Assigns.Get(uint32(expr.Payload)), true
}

// NewClosure creates a closure expression.
func (e *Exprs) NewClosure(span source.Span, params []ClosureParam, body ExprID) ExprID {
	payload := e.Closures.Allocate(ExprClosureData{
		Params: append([]ClosureParam(nil), params...),
		Body:   body,
	})
	return e.new(ExprClosure, span, PayloadID(payload))
}

// Closure returns the closure data for the given expression ID.
func (e *Exprs) Closure(id ExprID) (*ExprClosureData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprClosure {
		return nil, false
	}
	return e.Closures.Get(uint32(expr.Payload)), true
}

// NewKeyPath creates a key path literal expression.
func (e *Exprs) NewKeyPath(span source.Span, root source.StringID, components []KeyPathComponent) ExprID {
	payload := e.KeyPaths.Allocate(ExprKeyPathData{
		Root:       root,
		Components: append([]KeyPathComponent(nil), components...),
	})
	return e.new(ExprKeyPath, span, PayloadID(payload))
}

// KeyPath returns the key path data for the given expression ID.
func (e *Exprs) KeyPath(id ExprID) (*ExprKeyPathData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprKeyPath {
		return nil, false
	}
	return e.KeyPaths.Get(uint32(expr.Payload)), true
}

// NewOptionalChain creates a `?.`-style chaining expression.
func (e *Exprs) NewOptionalChain(span source.Span, base ExprID) ExprID {
	payload := e.OptionalChains.Allocate(ExprOptionalChainData{Base: base})
	return e.new(ExprOptionalChain, span, PayloadID(payload))
}

// OptionalChain returns the optional-chain data.
func (e *Exprs) OptionalChain(id ExprID) (*ExprOptionalChainData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprOptionalChain {
		return nil, false
	}
	return e.OptionalChains.Get(uint32(expr.Payload)), true
}

// NewForceUnwrap creates a postfix `!` expression.
func (e *Exprs) NewForceUnwrap(span source.Span, base ExprID) ExprID {
	payload := e.ForceUnwraps.Allocate(ExprForceUnwrapData{Base: base})
	return e.new(ExprForceUnwrap, span, PayloadID(payload))
}

// ForceUnwrap returns the force-unwrap data.
func (e *Exprs) ForceUnwrap(id ExprID) (*ExprForceUnwrapData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprForceUnwrap {
		return nil, false
	}
	return e.ForceUnwraps.Get(uint32(expr.Payload)), true
}

// NewAddressOf creates a prefix `&` expression.
func (e *Exprs) NewAddressOf(span source.Span, operand ExprID) ExprID {
	payload := e.AddressOfs.Allocate(ExprAddressOfData{Operand: operand})
	return e.new(ExprAddressOf, span, PayloadID(payload))
}

// AddressOf returns the address-of data.
func (e *Exprs) AddressOf(id ExprID) (*ExprAddressOfData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAddressOf {
		return nil, false
	}
	return e.AddressOfs.Get(uint32(expr.Payload)), true
}

// NewParen creates a parenthesized expression.
func (e *Exprs) NewParen(span source.Span, inner ExprID) ExprID {
	payload := e.Parens.Allocate(ExprParenData{Inner: inner})
	return e.new(ExprParen, span, PayloadID(payload))
}

// Paren returns the paren data for the given expression ID.
func (e *Exprs) Paren(id ExprID) (*ExprParenData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprParen {
		return nil, false
	}
	return e.Parens.Get(uint32(expr.Payload)), true
}

// NewTuple creates a tuple expression.
func (e *Exprs) NewTuple(span source.Span, elems []ExprID) ExprID {
	payload := e.Tuples.Allocate(ExprTupleData{Elems: append([]ExprID(nil), elems...)})
	return e.new(ExprTuple, span, PayloadID(payload))
}

// Tuple returns the tuple data for the given expression ID.
func (e *Exprs) Tuple(id ExprID) (*ExprTupleData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTuple {
		return nil, false
	}
	return e.Tuples.Get(uint32(expr.Payload)), true
}

// NewArrayLit creates an array literal expression.
func (e *Exprs) NewArrayLit(span source.Span, elems []ExprID) ExprID {
	payload := e.ArrayLits.Allocate(ExprArrayLitData{Elems: append([]ExprID(nil), elems...)})
	return e.new(ExprArrayLit, span, PayloadID(payload))
}

// ArrayLit returns the array literal data for the given expression ID.
func (e *Exprs) ArrayLit(id ExprID) (*ExprArrayLitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprArrayLit {
		return nil, false
	}
	return e.ArrayLits.Get(uint32(expr.Payload)), true
}

// NewTypeRef creates a bare type reference expression.
func (e *Exprs) NewTypeRef(span source.Span, name source.StringID) ExprID {
	payload := e.TypeRefs.Allocate(ExprTypeRefData{Name: name})
	return e.new(ExprTypeRef, span, PayloadID(payload))
}

// TypeRef returns the type reference data.
func (e *Exprs) TypeRef(id ExprID) (*ExprTypeRefData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprTypeRef {
		return nil, false
	}
	return e.TypeRefs.Get(uint32(expr.Payload)), true
}

// NewCoerce creates an explicit conversion expression.
func (e *Exprs) NewCoerce(span source.Span, value ExprID, typeName source.StringID, forced bool) ExprID {
	payload := e.Coerces.Allocate(ExprCoerceData{Value: value, TypeName: typeName, Forced: forced})
	return e.new(ExprCoerce, span, PayloadID(payload))
}

// Coerce returns the coercion data for the given expression ID.
func (e *Exprs) Coerce(id ExprID) (*ExprCoerceData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCoerce {
		return nil, false
	}
	return e.Coerces.Get(uint32(expr.Payload)), true
}

// NewReturn creates a return expression.
func (e *Exprs) NewReturn(span source.Span, value ExprID) ExprID {
	payload := e.Returns.Allocate(ExprReturnData{Value: value})
	return e.new(ExprReturn, span, PayloadID(payload))
}

// Return returns the return data for the given expression ID.
func (e *Exprs) Return(id ExprID) (*ExprReturnData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprReturn {
		return nil, false
	}
	return e.Returns.Get(uint32(expr.Payload)), true
}
