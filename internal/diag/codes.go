package diag

import (
	"fmt"
)

// Code is a compact stable identifier for a diagnostic kind.
type Code uint16

const (
	// UnknownCode is the fallback for unclassified diagnostics.
	UnknownCode Code = 0

	// Type-check failure catalog. One code per failure shape the
	// diagnosis layer can produce.
	TckInfo Code = 3000

	// Generic requirements
	TckConformanceRequirement    Code = 3001
	TckSameTypeRequirement       Code = 3002
	TckSuperclassRequirement     Code = 3003
	TckGenericArgumentsMismatch  Code = 3004
	TckGenericArgumentNote       Code = 3005
	TckRequirementIntroducedNote Code = 3006

	// Argument shape
	TckArgumentLabels            Code = 3010
	TckMissingArguments          Code = 3011
	TckOutOfOrderArgument        Code = 3012
	TckClosureParamDestructuring Code = 3013

	// Optionality
	TckMissingOptionalUnwrap    Code = 3020
	TckNonOptionalUnwrap        Code = 3021
	TckOptionalBaseMemberAccess Code = 3022

	// Conversions
	TckContextualMismatch        Code = 3030
	TckCollectionElementMismatch Code = 3031
	TckMissingExplicitConversion Code = 3032
	TckNoEscapeToEscaping        Code = 3033
	TckMissingForcedDowncast     Code = 3034
	TckContextualConformance     Code = 3035
	TckMissingCallForConversion  Code = 3036

	// References and mutability
	TckRValueTreatedAsLValue  Code = 3040
	TckImmutableAssignment    Code = 3041
	TckInvalidUseOfAddressOf  Code = 3042
	TckMissingAddressOf       Code = 3043

	// Member and initializer misuse
	TckInaccessibleMember             Code = 3050
	TckTypeOrInstanceMember           Code = 3051
	TckMissingMember                  Code = 3052
	TckPartialApplication             Code = 3053
	TckInitOnMetatype                 Code = 3054
	TckInitOnProtocolMetatype         Code = 3055
	TckImplicitInitOnNonConstMetatype Code = 3056
	TckMissingCall                    Code = 3057
	TckSubscriptMisuse                Code = 3058
	TckAutoClosureForwarding          Code = 3059
	TckExtraneousReturn               Code = 3060

	// Key paths
	TckKeyPathDynamicRoot             Code = 3070
	TckKeyPathSubscriptIndexHashable  Code = 3071
	TckKeyPathStaticMember            Code = 3072
	TckKeyPathMutatingGetter          Code = 3073
	TckKeyPathMethod                  Code = 3074

	// Ambiguity
	TckAmbiguousTrailingClosure Code = 3080
	TckCandidateNote            Code = 3081

	// Driver/tooling
	IoInfo          Code = 4000
	IoScenarioRead  Code = 4001
	IoScenarioParse Code = 4002
	IoCacheRead     Code = 4003
	IoCacheWrite    Code = 4004
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown diagnostic",

	TckInfo:                      "Type check information",
	TckConformanceRequirement:    "Type does not conform to required protocol",
	TckSameTypeRequirement:       "Types are required to be equal",
	TckSuperclassRequirement:     "Type does not inherit from required class",
	TckGenericArgumentsMismatch:  "Generic arguments do not match",
	TckGenericArgumentNote:       "Mismatched generic argument",
	TckRequirementIntroducedNote: "Requirement introduced here",

	TckArgumentLabels:            "Incorrect argument labels",
	TckMissingArguments:          "Missing arguments in call",
	TckOutOfOrderArgument:        "Argument out of order",
	TckClosureParamDestructuring: "Closure tuple parameter destructuring",

	TckMissingOptionalUnwrap:    "Optional value not unwrapped",
	TckNonOptionalUnwrap:        "Cannot unwrap non-optional value",
	TckOptionalBaseMemberAccess: "Member access on optional base",

	TckContextualMismatch:        "Type does not match expected contextual type",
	TckCollectionElementMismatch: "Collection element type mismatch",
	TckMissingExplicitConversion: "Implicit conversion requires explicit cast",
	TckNoEscapeToEscaping:        "Non-escaping function used in escaping position",
	TckMissingForcedDowncast:     "Downcast requires forced cast",
	TckContextualConformance:     "Value does not conform to expected protocol",
	TckMissingCallForConversion:  "Function value used where its result is expected",

	TckRValueTreatedAsLValue: "Cannot pass immutable value as mutable reference",
	TckImmutableAssignment:   "Cannot assign to immutable expression",
	TckInvalidUseOfAddressOf: "'&' may only be used for mutable parameters",
	TckMissingAddressOf:      "Passing value to mutable parameter requires '&'",

	TckInaccessibleMember:             "Member is inaccessible due to access control",
	TckTypeOrInstanceMember:           "Incorrect use of type or instance member",
	TckMissingMember:                  "Value has no such member",
	TckPartialApplication:             "Partial application is not allowed",
	TckInitOnMetatype:                 "Initializer on metatype requires required initializer",
	TckInitOnProtocolMetatype:         "Initializer on protocol metatype",
	TckImplicitInitOnNonConstMetatype: "Initializing from a metatype value requires '.init'",
	TckMissingCall:                    "Function value must be called",
	TckSubscriptMisuse:                "Subscript called like a method",
	TckAutoClosureForwarding:          "Autoclosure argument must be called when forwarded",
	TckExtraneousReturn:               "Unexpected return value in void function",

	TckKeyPathDynamicRoot:            "Key path cannot be rooted in a dynamic reference type",
	TckKeyPathSubscriptIndexHashable: "Key path subscript index must be Hashable",
	TckKeyPathStaticMember:           "Key path cannot refer to static member",
	TckKeyPathMutatingGetter:         "Key path cannot refer to member with mutating getter",
	TckKeyPathMethod:                 "Key path cannot refer to method",

	TckAmbiguousTrailingClosure: "Trailing closure matches multiple overloads",
	TckCandidateNote:            "Overload candidate",

	IoInfo:          "Driver information",
	IoScenarioRead:  "Failed to read scenario file",
	IoScenarioParse: "Failed to parse scenario file",
	IoCacheRead:     "Failed to read diagnostic cache",
	IoCacheWrite:    "Failed to write diagnostic cache",
}

// ID returns the banded, stable textual identifier, e.g. "TCK3002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("TCK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

// Title returns the short human description registered for the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
