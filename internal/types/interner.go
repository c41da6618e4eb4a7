package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cinder/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
	Any     TypeID
	AnyRef  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// TypeID equality is structural equality.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	names    *source.Interner
	builtins Builtins
	// sugar maps a canonical type to a display alias registered for it.
	sugar map[TypeID]TypeID
}

// NewInterner constructs an interner seeded with built-in primitives.
// The name interner is shared with the rest of the front end.
func NewInterner(names *source.Interner) *Interner {
	in := &Interner{
		index: make(map[string]TypeID, 64),
		names: names,
		sugar: make(map[TypeID]TypeID),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Any = in.Intern(Type{Kind: KindAny})
	in.builtins.AnyRef = in.Intern(Type{Kind: KindAnyRef})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Names returns the shared name interner.
func (in *Interner) Names() *source.Interner {
	return in.names
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup returns the descriptor for a TypeID and panics on invalid IDs.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("invalid type ID %d", id))
	}
	return t
}

// Kind returns the kind of the identified type; KindInvalid for bad IDs.
func (in *Interner) Kind(id TypeID) Kind {
	t, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return t.Kind
}

// typeKey encodes a descriptor into a compact structural key.
// Slices in Type keep the descriptor itself from being a map key.
func typeKey(t Type) string {
	var b strings.Builder
	appendKey(&b, t)
	return b.String()
}

func appendKey(b *strings.Builder, t Type) {
	b.WriteByte(byte('A' + t.Kind))
	b.WriteString(strconv.FormatUint(uint64(t.Name), 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(uint64(t.Elem), 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(uint64(t.Result), 10))
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(uint64(t.Ordinal), 10))
	if t.ProtocolMetatype {
		b.WriteByte('!')
	}
	b.WriteByte('[')
	for _, e := range t.Elems {
		b.WriteString(strconv.FormatUint(uint64(e), 10))
		b.WriteByte(',')
	}
	b.WriteByte(']')
	b.WriteByte('(')
	for _, a := range t.Args {
		b.WriteString(strconv.FormatUint(uint64(a), 10))
		b.WriteByte(',')
	}
	b.WriteByte(')')
	b.WriteByte('{')
	for _, p := range t.Params {
		b.WriteString(strconv.FormatUint(uint64(p.Label), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(p.Type), 10))
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(p.Flags), 10))
		b.WriteByte(',')
	}
	b.WriteByte('}')
}

// Convenience constructors ----------------------------------------------------

func (in *Interner) Optional(elem TypeID) TypeID {
	return in.Intern(MakeOptional(elem))
}

func (in *Interner) Array(elem TypeID) TypeID {
	return in.Intern(MakeArray(elem))
}

func (in *Interner) Tuple(elems ...TypeID) TypeID {
	return in.Intern(MakeTuple(elems...))
}

func (in *Interner) Func(params []Param, result TypeID) TypeID {
	return in.Intern(MakeFunc(params, result))
}

func (in *Interner) Nominal(name string, args ...TypeID) TypeID {
	return in.Intern(MakeNominal(in.names.Intern(name), args...))
}

func (in *Interner) Protocol(name string) TypeID {
	return in.Intern(MakeProtocol(in.names.Intern(name)))
}

func (in *Interner) Metatype(instance TypeID) TypeID {
	prot := in.Kind(instance) == KindProtocol
	return in.Intern(MakeMetatype(instance, prot))
}

func (in *Interner) TypeVar(ordinal uint32) TypeID {
	return in.Intern(MakeTypeVar(ordinal))
}

func (in *Interner) GenericParam(name string) TypeID {
	return in.Intern(MakeGenericParam(in.names.Intern(name)))
}

// DefineAlias registers display sugar for a canonical type and returns the
// alias TypeID. Subsequent Reconstitute calls for the canonical type yield
// the alias.
func (in *Interner) DefineAlias(name string, target TypeID) TypeID {
	alias := in.Intern(Type{Kind: KindAlias, Name: in.names.Intern(name), Elem: target})
	in.sugar[target] = alias
	return alias
}

// Reconstitute restores the registered display alias for a canonical type,
// if any; otherwise the type is returned unchanged.
func (in *Interner) Reconstitute(id TypeID) TypeID {
	if alias, ok := in.sugar[id]; ok {
		return alias
	}
	return id
}

// Desugar strips alias sugar down to the canonical type.
func (in *Interner) Desugar(id TypeID) TypeID {
	for {
		t, ok := in.Lookup(id)
		if !ok || t.Kind != KindAlias {
			return id
		}
		id = t.Elem
	}
}

// Substitute rewrites every type variable through subst, re-interning
// composite types along the way. Unbound variables are left intact.
func (in *Interner) Substitute(id TypeID, subst map[TypeID]TypeID) TypeID {
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}

	switch t.Kind {
	case KindTypeVar:
		if bound, ok := subst[id]; ok && bound != id {
			// chained bindings: a variable may be bound to another variable
			return in.Substitute(bound, subst)
		}
		return id

	case KindOptional, KindArray, KindMetatype, KindAlias:
		elem := in.Substitute(t.Elem, subst)
		if elem == t.Elem {
			return id
		}
		t.Elem = elem
		return in.Intern(t)

	case KindTuple:
		return in.substituteList(id, t, subst)

	case KindNominal:
		changed := false
		args := make([]TypeID, len(t.Args))
		for i, a := range t.Args {
			args[i] = in.Substitute(a, subst)
			changed = changed || args[i] != a
		}
		if !changed {
			return id
		}
		t.Args = args
		return in.Intern(t)

	case KindFunc:
		changed := false
		params := make([]Param, len(t.Params))
		for i, p := range t.Params {
			p.Type = in.Substitute(p.Type, subst)
			changed = changed || p.Type != t.Params[i].Type
			params[i] = p
		}
		result := in.Substitute(t.Result, subst)
		changed = changed || result != t.Result
		if !changed {
			return id
		}
		t.Params = params
		t.Result = result
		return in.Intern(t)

	default:
		return id
	}
}

func (in *Interner) substituteList(id TypeID, t Type, subst map[TypeID]TypeID) TypeID {
	changed := false
	elems := make([]TypeID, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = in.Substitute(e, subst)
		changed = changed || elems[i] != e
	}
	if !changed {
		return id
	}
	t.Elems = elems
	return in.Intern(t)
}

// HasTypeVars reports whether the type mentions any unresolved variable.
func (in *Interner) HasTypeVars(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindTypeVar:
		return true
	case KindOptional, KindArray, KindMetatype, KindAlias:
		return in.HasTypeVars(t.Elem)
	case KindTuple:
		for _, e := range t.Elems {
			if in.HasTypeVars(e) {
				return true
			}
		}
	case KindNominal:
		for _, a := range t.Args {
			if in.HasTypeVars(a) {
				return true
			}
		}
	case KindFunc:
		for _, p := range t.Params {
			if in.HasTypeVars(p.Type) {
				return true
			}
		}
		return in.HasTypeVars(t.Result)
	}
	return false
}
