package types

import (
	"fmt"
	"strings"

	"cinder/internal/source"
)

// String renders the user-facing spelling of a type.
func (in *Interner) String(id TypeID) string {
	var b strings.Builder
	in.write(&b, id, 0)
	return b.String()
}

const maxDisplayDepth = 32

func (in *Interner) write(b *strings.Builder, id TypeID, depth int) {
	if depth > maxDisplayDepth {
		b.WriteString("...")
		return
	}

	t, ok := in.Lookup(id)
	if !ok {
		b.WriteString("<invalid>")
		return
	}

	switch t.Kind {
	case KindInvalid:
		b.WriteString("<invalid>")
	case KindUnit:
		b.WriteString("()")
	case KindBool:
		b.WriteString("Bool")
	case KindInt:
		b.WriteString("Int")
	case KindFloat:
		b.WriteString("Float")
	case KindString:
		b.WriteString("String")
	case KindAny:
		b.WriteString("Any")
	case KindAnyRef:
		b.WriteString("AnyRef")

	case KindOptional:
		if in.needsParens(t.Elem) {
			b.WriteByte('(')
			in.write(b, t.Elem, depth+1)
			b.WriteByte(')')
		} else {
			in.write(b, t.Elem, depth+1)
		}
		b.WriteByte('?')

	case KindArray:
		b.WriteByte('[')
		in.write(b, t.Elem, depth+1)
		b.WriteByte(']')

	case KindTuple:
		b.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			in.write(b, e, depth+1)
		}
		b.WriteByte(')')

	case KindFunc:
		b.WriteByte('(')
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			in.writeParam(b, p, depth+1)
		}
		b.WriteString(") -> ")
		in.write(b, t.Result, depth+1)

	case KindNominal, KindProtocol, KindGenericParam:
		b.WriteString(in.name(t.Name))
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				in.write(b, a, depth+1)
			}
			b.WriteByte('>')
		}

	case KindMetatype:
		if in.needsParens(t.Elem) {
			b.WriteByte('(')
			in.write(b, t.Elem, depth+1)
			b.WriteByte(')')
		} else {
			in.write(b, t.Elem, depth+1)
		}
		b.WriteString(".Type")

	case KindTypeVar:
		fmt.Fprintf(b, "$T%d", t.Ordinal)

	case KindAlias:
		b.WriteString(in.name(t.Name))

	default:
		fmt.Fprintf(b, "<%s>", t.Kind)
	}
}

func (in *Interner) writeParam(b *strings.Builder, p Param, depth int) {
	if p.Label != source.NoStringID {
		b.WriteString(in.name(p.Label))
		b.WriteString(": ")
	}
	if p.Flags&ParamInOut != 0 {
		b.WriteString("inout ")
	}
	if p.Flags&ParamAutoClosure != 0 {
		b.WriteString("@autoclosure ")
	}
	if p.Flags&ParamNoEscape != 0 {
		b.WriteString("@noescape ")
	}
	in.write(b, p.Type, depth)
	if p.Flags&ParamVariadic != 0 {
		b.WriteString("...")
	}
}

func (in *Interner) name(id source.StringID) string {
	if in.names == nil {
		return fmt.Sprintf("#%d", id)
	}
	s, ok := in.names.Lookup(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	return s
}

// needsParens reports whether a postfix spelling (? or .Type) requires
// parentheses around the inner type.
func (in *Interner) needsParens(id TypeID) bool {
	switch in.Kind(id) {
	case KindFunc:
		return true
	default:
		return false
	}
}

// Predicates -------------------------------------------------------------

func (in *Interner) IsOptional(id TypeID) bool {
	return in.Kind(in.Desugar(id)) == KindOptional
}

// OptionalPayload unwraps one optional layer; returns (payload, true) or
// (id, false) when the type is not optional.
func (in *Interner) OptionalPayload(id TypeID) (TypeID, bool) {
	t, ok := in.Lookup(in.Desugar(id))
	if !ok || t.Kind != KindOptional {
		return id, false
	}
	return t.Elem, true
}

func (in *Interner) IsFunc(id TypeID) bool {
	return in.Kind(in.Desugar(id)) == KindFunc
}

func (in *Interner) IsProtocol(id TypeID) bool {
	return in.Kind(in.Desugar(id)) == KindProtocol
}

func (in *Interner) IsMetatype(id TypeID) bool {
	return in.Kind(in.Desugar(id)) == KindMetatype
}

func (in *Interner) IsTypeVar(id TypeID) bool {
	return in.Kind(id) == KindTypeVar
}

// NominalName returns the declared name of a nominal/protocol/generic-param
// type, or "" otherwise.
func (in *Interner) NominalName(id TypeID) string {
	t, ok := in.Lookup(in.Desugar(id))
	if !ok {
		return ""
	}
	switch t.Kind {
	case KindNominal, KindProtocol, KindGenericParam, KindAlias:
		return in.name(t.Name)
	default:
		return ""
	}
}

// FuncOf returns the function descriptor behind id, looking through sugar.
func (in *Interner) FuncOf(id TypeID) (Type, bool) {
	t, ok := in.Lookup(in.Desugar(id))
	if !ok || t.Kind != KindFunc {
		return Type{}, false
	}
	return t, true
}
