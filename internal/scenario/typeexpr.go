package scenario

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"cinder/internal/types"
)

// typeScope resolves bare names while parsing type spellings: which names are
// protocols, which are generic parameters, and which are registered aliases.
type typeScope struct {
	types         *types.Interner
	protocols     map[string]bool
	genericParams map[string]bool
	aliases       map[string]types.TypeID
}

func newTypeScope(ti *types.Interner) *typeScope {
	return &typeScope{
		types:         ti,
		protocols:     make(map[string]bool),
		genericParams: make(map[string]bool),
		aliases:       make(map[string]types.TypeID),
	}
}

// Parse interns the type a spelling describes.
//
// The grammar covers exactly what scenarios need:
//
//	type    := primary suffix*
//	suffix  := '?' | '.' 'Type' | '...'
//	primary := '[' type ']'
//	         | '(' params ')' ( '->' type )?
//	         | name ( '<' type (',' type)* '>' )?
//	param   := '@autoclosure'? '@noescape'? '@default'? 'inout'? (label ':')? type
//	name    := builtin | '$T' digits | identifier
func (sc *typeScope) Parse(spelling string) (types.TypeID, error) {
	p := &typeParser{scope: sc, input: spelling}
	id, err := p.parseType()
	if err != nil {
		return types.NoTypeID, fmt.Errorf("type %q: %w", spelling, err)
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return types.NoTypeID, fmt.Errorf("type %q: trailing input at offset %d", spelling, p.pos)
	}
	return id, nil
}

type typeParser struct {
	scope *typeScope
	input string
	pos   int
}

func (p *typeParser) parseType() (types.TypeID, error) {
	id, err := p.parsePrimary()
	if err != nil {
		return types.NoTypeID, err
	}
	for {
		p.skipSpace()
		switch {
		case p.eat("?"):
			id = p.scope.types.Optional(id)
		case p.eat(".Type"):
			id = p.scope.types.Metatype(id)
		default:
			return id, nil
		}
	}
}

func (p *typeParser) parsePrimary() (types.TypeID, error) {
	p.skipSpace()
	switch {
	case p.eat("["):
		elem, err := p.parseType()
		if err != nil {
			return types.NoTypeID, err
		}
		if !p.eat("]") {
			return types.NoTypeID, fmt.Errorf("missing ']' at offset %d", p.pos)
		}
		return p.scope.types.Array(elem), nil

	case p.eat("("):
		return p.parseParenthesized()

	default:
		return p.parseName()
	}
}

// parseParenthesized handles tuples, grouped types and function types. The
// opening '(' has been consumed.
func (p *typeParser) parseParenthesized() (types.TypeID, error) {
	var params []types.Param
	labeled := false

	p.skipSpace()
	if !p.eat(")") {
		for {
			param, hasLabel, err := p.parseParam()
			if err != nil {
				return types.NoTypeID, err
			}
			labeled = labeled || hasLabel || param.Flags != 0
			params = append(params, param)
			p.skipSpace()
			if p.eat(",") {
				continue
			}
			if !p.eat(")") {
				return types.NoTypeID, fmt.Errorf("missing ')' at offset %d", p.pos)
			}
			break
		}
	}

	p.skipSpace()
	if p.eat("->") {
		result, err := p.parseType()
		if err != nil {
			return types.NoTypeID, err
		}
		return p.scope.types.Func(params, result), nil
	}

	if labeled {
		return types.NoTypeID, fmt.Errorf("labeled parameters need '->' at offset %d", p.pos)
	}
	switch len(params) {
	case 0:
		return p.scope.types.Builtins().Unit, nil
	case 1:
		return params[0].Type, nil
	default:
		elems := make([]types.TypeID, len(params))
		for i, prm := range params {
			elems[i] = prm.Type
		}
		return p.scope.types.Tuple(elems...), nil
	}
}

func (p *typeParser) parseParam() (types.Param, bool, error) {
	var param types.Param
attrs:
	for {
		p.skipSpace()
		switch {
		case p.eat("@autoclosure"):
			param.Flags |= types.ParamAutoClosure
		case p.eat("@noescape"):
			param.Flags |= types.ParamNoEscape
		case p.eat("@default"):
			param.Flags |= types.ParamDefaulted
		case p.eatWord("inout"):
			param.Flags |= types.ParamInOut
		default:
			break attrs
		}
	}

	hasLabel := false
	if name, ok := p.peekLabel(); ok {
		param.Label = p.scope.types.Names().Intern(name)
		hasLabel = true
	}

	t, err := p.parseType()
	if err != nil {
		return types.Param{}, false, err
	}
	p.skipSpace()
	if p.eat("...") {
		param.Flags |= types.ParamVariadic
	}
	param.Type = t
	return param, hasLabel, nil
}

// peekLabel consumes "ident:" when the colon is not part of a nested type.
func (p *typeParser) peekLabel() (string, bool) {
	save := p.pos
	name := p.ident()
	if name == "" {
		p.pos = save
		return "", false
	}
	p.skipSpace()
	if !p.eat(":") {
		p.pos = save
		return "", false
	}
	return name, true
}

func (p *typeParser) parseName() (types.TypeID, error) {
	name := p.ident()
	if name == "" {
		return types.NoTypeID, fmt.Errorf("expected type at offset %d", p.pos)
	}

	if strings.HasPrefix(name, "$T") {
		ordinal, err := strconv.ParseUint(name[2:], 10, 32)
		if err != nil {
			return types.NoTypeID, fmt.Errorf("bad type variable %q", name)
		}
		return p.scope.types.TypeVar(uint32(ordinal)), nil
	}

	b := p.scope.types.Builtins()
	switch name {
	case "Unit", "Void":
		return b.Unit, nil
	case "Bool":
		return b.Bool, nil
	case "Int":
		return b.Int, nil
	case "Float":
		return b.Float, nil
	case "String":
		return b.String, nil
	case "Any":
		return b.Any, nil
	case "AnyRef", "AnyObject":
		return b.AnyRef, nil
	}

	if alias, ok := p.scope.aliases[name]; ok {
		return alias, nil
	}
	if p.scope.genericParams[name] {
		return p.scope.types.GenericParam(name), nil
	}
	if p.scope.protocols[name] {
		return p.scope.types.Protocol(name), nil
	}

	p.skipSpace()
	if p.eat("<") {
		var args []types.TypeID
		for {
			arg, err := p.parseType()
			if err != nil {
				return types.NoTypeID, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.eat(",") {
				continue
			}
			if !p.eat(">") {
				return types.NoTypeID, fmt.Errorf("missing '>' at offset %d", p.pos)
			}
			break
		}
		return p.scope.types.Nominal(name, args...), nil
	}
	return p.scope.types.Nominal(name), nil
}

// Token helpers --------------------------------------------------------------

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) eat(lit string) bool {
	if strings.HasPrefix(p.input[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

// eatWord consumes lit only when it is not a prefix of a longer identifier.
func (p *typeParser) eatWord(lit string) bool {
	if !strings.HasPrefix(p.input[p.pos:], lit) {
		return false
	}
	rest := p.input[p.pos+len(lit):]
	if rest != "" && isIdentByte(rest[0]) {
		return false
	}
	p.pos += len(lit)
	return true
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.input) && p.input[p.pos] == '$' {
		p.pos++
	}
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isIdentByte(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}
