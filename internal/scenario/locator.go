package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"cinder/internal/solver"
	"cinder/internal/symbols"
)

// parsePathElement turns one rendered path element back into its structured
// form. The syntax mirrors Locator.String: a kind name, optionally followed
// by parenthesized arguments, e.g.
//
//	member
//	apply-argument(0)
//	type-param-requirement(1, same-type)
func parsePathElement(s string) (solver.PathElement, error) {
	name := strings.TrimSpace(s)
	var args []string
	if open := strings.IndexByte(name, '('); open >= 0 {
		if !strings.HasSuffix(name, ")") {
			return solver.PathElement{}, fmt.Errorf("path element %q: missing ')'", s)
		}
		for _, a := range strings.Split(name[open+1:len(name)-1], ",") {
			args = append(args, strings.TrimSpace(a))
		}
		name = name[:open]
	}

	index := func() (int, error) {
		if len(args) < 1 {
			return 0, fmt.Errorf("path element %q: missing index", s)
		}
		return strconv.Atoi(args[0])
	}

	switch name {
	case "apply-argument":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		return solver.ApplyArgument(i), nil
	case "member":
		return solver.Member(), nil
	case "unresolved-member":
		return solver.UnresolvedMember(), nil
	case "subscript-index":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		return solver.SubscriptIndex(i), nil
	case "tuple-element":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		return solver.TupleElement(i), nil
	case "optional-payload":
		return solver.OptionalPayload(), nil
	case "generic-argument":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		return solver.GenericArgument(i), nil
	case "type-param-requirement", "conditional-requirement":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		if len(args) < 2 {
			return solver.PathElement{}, fmt.Errorf("path element %q: missing requirement kind", s)
		}
		kind, err := parseRequirementKind(args[1])
		if err != nil {
			return solver.PathElement{}, fmt.Errorf("path element %q: %w", s, err)
		}
		if name == "conditional-requirement" {
			return solver.ConditionalRequirement(i, kind), nil
		}
		return solver.TypeParamRequirement(i, kind), nil
	case "key-path-component":
		i, err := index()
		if err != nil {
			return solver.PathElement{}, err
		}
		return solver.KeyPathComponent(i), nil
	case "contextual-type":
		return solver.ContextualType(), nil
	case "function-result":
		return solver.FunctionResult(), nil
	default:
		return solver.PathElement{}, fmt.Errorf("unknown path element kind %q", name)
	}
}

func parseRequirementKind(s string) (symbols.RequirementKind, error) {
	switch s {
	case "conformance":
		return symbols.RequirementConformance, nil
	case "same-type":
		return symbols.RequirementSameType, nil
	case "superclass":
		return symbols.RequirementSuperclass, nil
	default:
		return 0, fmt.Errorf("unknown requirement kind %q", s)
	}
}

func parsePath(elems []string) ([]solver.PathElement, error) {
	path := make([]solver.PathElement, 0, len(elems))
	for _, e := range elems {
		el, err := parsePathElement(e)
		if err != nil {
			return nil, err
		}
		path = append(path, el)
	}
	return path, nil
}
