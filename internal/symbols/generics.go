package symbols

import (
	"cinder/internal/types"
)

// SignatureID identifies a generic signature inside the table.
type SignatureID uint32

// NoSignatureID marks the absence of a generic signature.
const NoSignatureID SignatureID = 0

// IsValid reports whether the ID refers to an allocated signature.
func (id SignatureID) IsValid() bool { return id != NoSignatureID }

// RequirementKind tags the three generic requirement shapes.
type RequirementKind uint8

const (
	RequirementConformance RequirementKind = iota
	RequirementSameType
	RequirementSuperclass
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementConformance:
		return "conformance"
	case RequirementSameType:
		return "same-type"
	case RequirementSuperclass:
		return "superclass"
	default:
		return "requirement"
	}
}

// Requirement is one generic constraint attached to a signature:
// LHS conforms-to RHS, LHS == RHS, or LHS inherits-from RHS.
type Requirement struct {
	Kind RequirementKind
	LHS  types.TypeID
	RHS  types.TypeID
}

// GenericSignature is the requirement list a generic declaration introduces.
type GenericSignature struct {
	// Params are the generic parameter types, in declaration order.
	Params []types.TypeID
	// Requirements hold the signature's where-clause, in source order.
	Requirements []Requirement
}

// RequirementAt returns the i-th requirement; ok=false when out of range.
func (s *GenericSignature) RequirementAt(i int) (Requirement, bool) {
	if s == nil || i < 0 || i >= len(s.Requirements) {
		return Requirement{}, false
	}
	return s.Requirements[i], true
}

// ConformanceID identifies a recorded conformance.
type ConformanceID uint32

// NoConformanceID marks the absence of a conformance record.
const NoConformanceID ConformanceID = 0

// IsValid reports whether the ID refers to an allocated conformance.
func (id ConformanceID) IsValid() bool { return id != NoConformanceID }

// Conformance records that a type conforms to a protocol, possibly only
// under conditional requirements from the extension's where-clause.
type Conformance struct {
	Type     types.TypeID
	Protocol types.TypeID
	// Conditional holds the conformance's own where-clause; a requirement
	// failure whose provenance ends in a conditional-requirement element
	// points into this list.
	Conditional []Requirement
}

// IsConditional reports whether the conformance carries a where-clause.
func (c *Conformance) IsConditional() bool {
	return c != nil && len(c.Conditional) > 0
}

// RequirementAt returns the i-th conditional requirement.
func (c *Conformance) RequirementAt(i int) (Requirement, bool) {
	if c == nil || i < 0 || i >= len(c.Conditional) {
		return Requirement{}, false
	}
	return c.Conditional[i], true
}

// Generics stores signatures and conformances side by side with the decls.
type Generics struct {
	signatures   []GenericSignature
	conformances []Conformance
}

// NewGenerics creates empty storage with the zero IDs reserved.
func NewGenerics() *Generics {
	return &Generics{
		signatures:   make([]GenericSignature, 1),
		conformances: make([]Conformance, 1),
	}
}

// AddSignature allocates a signature and returns its ID.
func (g *Generics) AddSignature(s GenericSignature) SignatureID {
	id := SignatureID(len(g.signatures))
	g.signatures = append(g.signatures, s)
	return id
}

// Signature returns the signature for an ID, nil when invalid.
func (g *Generics) Signature(id SignatureID) *GenericSignature {
	if id == NoSignatureID || int(id) >= len(g.signatures) {
		return nil
	}
	return &g.signatures[id]
}

// AddConformance allocates a conformance record and returns its ID.
func (g *Generics) AddConformance(c Conformance) ConformanceID {
	id := ConformanceID(len(g.conformances))
	g.conformances = append(g.conformances, c)
	return id
}

// Conformance returns the record for an ID, nil when invalid.
func (g *Generics) Conformance(id ConformanceID) *Conformance {
	if id == NoConformanceID || int(id) >= len(g.conformances) {
		return nil
	}
	return &g.conformances[id]
}
