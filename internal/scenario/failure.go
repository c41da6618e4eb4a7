package scenario

import (
	"fmt"

	"cinder/internal/diagnose"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// buildFailure constructs the failure instance the [failure] table names.
// Every variant the diagnosis layer knows has a case here; the scenario
// corpus is how the catalog stays exercised.
func (e *env) buildFailure() (diagnose.Failure, error) {
	f := e.doc.Failure
	loc, err := e.locator(f.Locator)
	if err != nil {
		return nil, fmt.Errorf("failure locator: %w", err)
	}

	switch f.Variant {
	// Requirement family.
	case "missing-conformance":
		site, lhs, rhs, err := e.requirementPayload(f)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingConformance(loc, lhs, rhs, site)
	case "same-type-requirement":
		site, lhs, rhs, err := e.requirementPayload(f)
		if err != nil {
			return nil, err
		}
		return diagnose.SameTypeRequirement(loc, lhs, rhs, site)
	case "superclass-requirement":
		site, lhs, rhs, err := e.requirementPayload(f)
		if err != nil {
			return nil, err
		}
		return diagnose.SuperclassRequirement(loc, lhs, rhs, site)
	case "generic-arguments-mismatch":
		actual, err := e.typ(f.Actual)
		if err != nil {
			return nil, err
		}
		required, err := e.typ(f.Required)
		if err != nil {
			return nil, err
		}
		return diagnose.GenericArgumentsMismatch(loc, actual, required, f.Mismatches)

	// Argument shape.
	case "argument-labeling":
		correct := make([]source.StringID, len(f.Correct))
		for i, label := range f.Correct {
			if label != "" && label != "_" {
				correct[i] = e.names.Intern(label)
			}
		}
		return diagnose.ArgumentLabeling(loc, correct), nil
	case "missing-arguments":
		funcType, err := e.typ(f.FuncType)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingArguments(loc, funcType, f.Missing)
	case "out-of-order-argument":
		return diagnose.OutOfOrderArgument(loc, f.ArgIdx, f.PrevArgIdx)
	case "closure-param-destructuring":
		contextual, err := e.typ(f.Contextual)
		if err != nil {
			return nil, err
		}
		return diagnose.ClosureParamDestructuring(loc, contextual), nil

	// Optionality.
	case "missing-optional-unwrap":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		unwrapped, err := e.typ(f.Unwrapped)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingOptionalUnwrap(loc, base, unwrapped), nil
	case "non-optional-unwrap":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		return diagnose.NonOptionalUnwrap(loc, base), nil
	case "member-on-optional-base":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		return diagnose.MemberAccessOnOptionalBase(loc, e.names.Intern(f.MemberName), base, f.ResultOptional), nil

	// Conversions and contextual mismatches.
	case "contextual-mismatch":
		from, to, err := e.typePair(f.From, f.To)
		if err != nil {
			return nil, err
		}
		return diagnose.ContextualMismatch(loc, from, to), nil
	case "collection-element-mismatch":
		from, to, err := e.typePair(f.From, f.To)
		if err != nil {
			return nil, err
		}
		return diagnose.CollectionElementMismatch(loc, from, to), nil
	case "missing-explicit-conversion":
		from, to, err := e.typePair(f.From, f.To)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingExplicitConversion(loc, from, to), nil
	case "noescape-func-conversion":
		target, err := e.optionalType(f.Target)
		if err != nil {
			return nil, err
		}
		return diagnose.NoEscapeFuncToTypeConversion(loc, target), nil
	case "missing-forced-downcast":
		from, to, err := e.typePair(f.From, f.To)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingForcedDowncast(loc, from, to), nil
	case "missing-contextual-conformance":
		from, err := e.typ(f.From)
		if err != nil {
			return nil, err
		}
		protocol, err := e.typ(f.Protocol)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingContextualConformance(loc, from, protocol), nil

	// Mutability.
	case "rvalue-as-lvalue":
		return diagnose.RValueTreatedAsLValue(loc), nil
	case "immutable-assignment":
		dest, err := e.expr(f.Dest)
		if err != nil {
			return nil, err
		}
		return diagnose.ImmutableAssignment(loc, dest), nil
	case "invalid-address-of":
		return diagnose.InvalidUseOfAddressOf(loc), nil
	case "missing-address-of":
		argument, err := e.typ(f.Argument)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingAddressOf(loc, argument), nil

	// Member lookup.
	case "inaccessible-member":
		member, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.InaccessibleMember(loc, member), nil
	case "type-or-instance-member":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		member, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.TypeOrInstanceMember(loc, base, member, e.names.Intern(f.MemberName)), nil
	case "missing-member":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		return diagnose.MissingMember(loc, base, e.names.Intern(f.MemberName)), nil
	case "partial-application":
		kind, err := parsePartialApplicationKind(f.Kind)
		if err != nil {
			return nil, err
		}
		return diagnose.PartialApplication(loc, kind, f.CompatWarning), nil
	case "init-on-metatype":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		init, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.InitOnMetatype(loc, base, init), nil
	case "init-on-protocol-metatype":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		return diagnose.InitOnProtocolMetatype(loc, base, f.StaticallyDerived), nil
	case "implicit-init-on-non-const-metatype":
		base, err := e.typ(f.Base)
		if err != nil {
			return nil, err
		}
		return diagnose.ImplicitInitOnNonConstMetatype(loc, base), nil
	case "missing-call":
		return diagnose.MissingCall(loc), nil
	case "subscript-misuse":
		return diagnose.SubscriptMisuse(loc), nil
	case "autoclosure-forwarding":
		return diagnose.AutoClosureForwarding(loc), nil
	case "extraneous-return":
		return diagnose.ExtraneousReturn(loc), nil

	// Key paths.
	case "anyobject-keypath-root":
		return diagnose.AnyObjectKeyPathRoot(loc), nil
	case "keypath-subscript-index-hashable":
		index, err := e.typ(f.Index)
		if err != nil {
			return nil, err
		}
		return diagnose.KeyPathSubscriptIndexHashable(loc, index)
	case "keypath-static-member":
		member, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.StaticMemberInKeyPath(loc, member)
	case "keypath-mutating-getter":
		member, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.MutatingGetterInKeyPath(loc, member)
	case "keypath-method":
		member, err := e.decl(f.Member)
		if err != nil {
			return nil, err
		}
		return diagnose.MethodInKeyPath(loc, member)

	// Ambiguity.
	case "trailing-closure-ambiguity":
		choices := make([]solver.OverloadChoice, 0, len(f.Choices))
		for _, id := range f.Choices {
			decl, err := e.decl(id)
			if err != nil {
				return nil, err
			}
			opened := e.decls.Get(decl).Type
			choices = append(choices, solver.OverloadChoice{Decl: decl, OpenedType: opened})
		}
		return diagnose.TrailingClosureAmbiguity(loc, choices), nil

	default:
		return nil, fmt.Errorf("unknown failure variant %q", f.Variant)
	}
}

func (e *env) typePair(from, to string) (fromID, toID types.TypeID, err error) {
	fromID, err = e.typ(from)
	if err != nil {
		return 0, 0, err
	}
	toID, err = e.typ(to)
	if err != nil {
		return 0, 0, err
	}
	return fromID, toID, nil
}

// requirementPayload assembles the shared requirement-family construction
// context: the failed types, the affected declaration, and either the
// conditional conformance or the affected declaration's generic signature.
func (e *env) requirementPayload(f FailureEntry) (diagnose.RequirementSite, types.TypeID, types.TypeID, error) {
	lhs, err := e.typ(f.LHS)
	if err != nil {
		return diagnose.RequirementSite{}, 0, 0, err
	}
	rhs, err := e.typ(f.RHS)
	if err != nil {
		return diagnose.RequirementSite{}, 0, 0, err
	}

	var site diagnose.RequirementSite
	if f.Affected != "" {
		site.Affected, err = e.decl(f.Affected)
		if err != nil {
			return diagnose.RequirementSite{}, 0, 0, err
		}
	}
	site.Apply, err = e.optionalExpr(f.Apply)
	if err != nil {
		return diagnose.RequirementSite{}, 0, 0, err
	}

	if f.Conformance != nil {
		idx := *f.Conformance
		if idx < 0 || idx >= len(e.conformances) {
			return diagnose.RequirementSite{}, 0, 0, fmt.Errorf("failure conformance index %d out of range", idx)
		}
		site.Conformance = e.gens.Conformance(e.conformances[idx])
	} else if site.Affected != symbols.NoDeclID {
		if d := e.decls.Get(site.Affected); d != nil {
			site.Signature = e.gens.Signature(d.Signature)
		}
	}
	return site, lhs, rhs, nil
}

func parsePartialApplicationKind(s string) (diagnose.PartialApplicationKind, error) {
	switch s {
	case "mutating-method", "":
		return diagnose.PartialMutatingMethod, nil
	case "super-init":
		return diagnose.PartialSuperInit, nil
	case "self-init":
		return diagnose.PartialSelfInit, nil
	default:
		return diagnose.PartialMutatingMethod, fmt.Errorf("unknown partial application kind %q", s)
	}
}
