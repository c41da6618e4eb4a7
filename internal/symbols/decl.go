package symbols

import (
	"cinder/internal/source"
	"cinder/internal/types"
)

// DeclID identifies a declaration inside the table.
type DeclID uint32

// NoDeclID marks the absence of a declaration reference.
const NoDeclID DeclID = 0

// IsValid reports whether the ID refers to an allocated declaration.
func (id DeclID) IsValid() bool { return id != NoDeclID }

// DeclKind describes what a declaration introduces.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclFunc
	DeclMethod
	DeclInitializer
	DeclSubscript
	DeclVar
	DeclLet
	DeclEnumCase
	DeclStruct
	DeclClass
	DeclEnum
	DeclProtocol
	DeclTypeAlias
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunc:
		return "function"
	case DeclMethod:
		return "method"
	case DeclInitializer:
		return "initializer"
	case DeclSubscript:
		return "subscript"
	case DeclVar:
		return "var"
	case DeclLet:
		return "let"
	case DeclEnumCase:
		return "enum case"
	case DeclStruct:
		return "struct"
	case DeclClass:
		return "class"
	case DeclEnum:
		return "enum"
	case DeclProtocol:
		return "protocol"
	case DeclTypeAlias:
		return "type alias"
	default:
		return "declaration"
	}
}

// Access is a declaration's access level.
type Access uint8

const (
	AccessPrivate Access = iota
	AccessFilePrivate
	AccessInternal
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessFilePrivate:
		return "fileprivate"
	case AccessInternal:
		return "internal"
	case AccessPublic:
		return "public"
	default:
		return "internal"
	}
}

// DeclFlags carry the boolean properties diagnosis cares about.
type DeclFlags uint16

const (
	// FlagStatic marks type members accessed on the metatype.
	FlagStatic DeclFlags = 1 << iota
	// FlagMutating marks mutating methods.
	FlagMutating
	// FlagMutatingGetter marks properties/subscripts whose getter mutates.
	FlagMutatingGetter
	// FlagRequired marks initializers that every subclass must provide.
	FlagRequired
	// FlagFinal marks declarations that cannot be overridden.
	FlagFinal
	// FlagOperator marks operator functions.
	FlagOperator
	// FlagLetProperty marks immutable stored properties.
	FlagLetProperty
	// FlagComputedReadOnly marks get-only computed properties.
	FlagComputedReadOnly
)

// Decl is a single declaration record. The diagnosis layer only reads these;
// population is the front end's job.
type Decl struct {
	Name   source.StringID
	Kind   DeclKind
	Access Access
	Flags  DeclFlags

	// Owner is the nominal type the member belongs to, NoTypeID for
	// top-level declarations.
	Owner types.TypeID
	// Type is the declared interface type (function type for callables).
	Type types.TypeID
	// Signature is the generic signature introduced by this declaration,
	// NoSignatureID when the declaration is not generic.
	Signature SignatureID
	// Context is the enclosing generic declaration, if any. A method's
	// context is its generic owner type declaration.
	Context DeclID
}

func (d *Decl) Has(f DeclFlags) bool { return d.Flags&f != 0 }

// IsStaticOrInstanceMember reports whether the declaration is a property or
// method hanging off a type, excluding operators.
func (d *Decl) IsStaticOrInstanceMember() bool {
	if d.Has(FlagOperator) {
		return false
	}
	switch d.Kind {
	case DeclMethod, DeclVar, DeclLet, DeclSubscript, DeclEnumCase, DeclInitializer:
		return d.Owner != types.NoTypeID
	default:
		return false
	}
}

// Table is an arena of declarations with NoDeclID reserved.
type Table struct {
	decls []Decl
	names *source.Interner
}

// NewTable creates an empty declaration table sharing the name interner.
func NewTable(names *source.Interner) *Table {
	return &Table{
		decls: make([]Decl, 1), // reserve 0 as invalid sentinel
		names: names,
	}
}

// Add allocates a declaration and returns its ID.
func (t *Table) Add(d Decl) DeclID {
	id := DeclID(len(t.decls))
	t.decls = append(t.decls, d)
	return id
}

// Get returns the declaration for an ID, nil for NoDeclID or out of range.
func (t *Table) Get(id DeclID) *Decl {
	if id == NoDeclID || int(id) >= len(t.decls) {
		return nil
	}
	return &t.decls[id]
}

// NameOf renders a declaration's name, "" when unavailable.
func (t *Table) NameOf(id DeclID) string {
	d := t.Get(id)
	if d == nil || t.names == nil {
		return ""
	}
	s, _ := t.names.Lookup(d.Name)
	return s
}
