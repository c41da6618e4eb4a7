// Package scenario loads failure scenarios from TOML files and materializes
// them into the semantic stores diagnosis runs against: a source file, an
// expression tree, declarations with generic signatures, a solver snapshot,
// and the failure instance itself.
//
// A scenario is the replayable input of one diagnosis attempt. The driver and
// the test suites both consume this package, so the TOML schema is the
// authoritative description of what a failure case needs.
package scenario

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Document is the decoded form of one scenario TOML file.
type Document struct {
	// Name identifies the scenario; it doubles as the virtual file name.
	Name string `toml:"name"`
	// Source is the program text spans index into.
	Source string `toml:"source"`
	// Root is the symbolic ID of the root expression of the failed solve.
	Root string `toml:"root"`

	// Protocols declares which bare names parse as protocol types.
	Protocols []string `toml:"protocols"`
	// GenericParams declares which bare names parse as generic parameters.
	GenericParams []string `toml:"generic_params"`
	// Aliases registers display sugar: alias name to canonical spelling.
	Aliases map[string]string `toml:"aliases"`

	Decls        []DeclEntry        `toml:"decls"`
	Conformances []ConformanceEntry `toml:"conformances"`
	Exprs        []ExprEntry        `toml:"exprs"`

	Solver  SolverEntry  `toml:"solver"`
	Failure FailureEntry `toml:"failure"`
}

// DeclEntry describes one declaration. ID defaults to Name when omitted.
type DeclEntry struct {
	ID     string   `toml:"id"`
	Name   string   `toml:"name"`
	Kind   string   `toml:"kind"`
	Type   string   `toml:"type"`
	Owner  string   `toml:"owner"`
	Access string   `toml:"access"`
	Flags  []string `toml:"flags"`

	// GenericParams and Requirements together form the declaration's
	// generic signature.
	GenericParams []string           `toml:"generic_params"`
	Requirements  []RequirementEntry `toml:"requirements"`
}

// RequirementEntry is one structured generic requirement.
type RequirementEntry struct {
	Kind string `toml:"kind"` // conformance | same-type | superclass
	LHS  string `toml:"lhs"`
	RHS  string `toml:"rhs"`
}

// ConformanceEntry records a (possibly conditional) conformance.
type ConformanceEntry struct {
	Type     string             `toml:"type"`
	Protocol string             `toml:"protocol"`
	Where    []RequirementEntry `toml:"where"`
}

// ArgEntry is one labeled call or subscript argument.
type ArgEntry struct {
	Label string `toml:"label"`
	Value string `toml:"value"`
}

// ClosureParamEntry is one declared closure parameter.
type ClosureParamEntry struct {
	Name string   `toml:"name"`
	Span []uint32 `toml:"span"`
}

// KeyPathComponentEntry is one key path component.
type KeyPathComponentEntry struct {
	Kind    string     `toml:"kind"` // property | subscript | optional-chain | optional-force
	Name    string     `toml:"name"`
	Indices []ArgEntry `toml:"indices"`
	Span    []uint32   `toml:"span"`
}

// ExprEntry describes one expression. Kind selects which of the remaining
// fields are read; operand references must name expressions defined earlier
// in the file.
type ExprEntry struct {
	ID   string   `toml:"id"`
	Kind string   `toml:"kind"`
	Span []uint32 `toml:"span"`

	Name     string     `toml:"name"`  // ident, member, unresolved-member, type-ref
	Value    string     `toml:"value"` // literal text, assign source, coerce value, return value
	Target   string     `toml:"target"`
	Base     string     `toml:"base"`
	Args     []ArgEntry `toml:"args"`
	Op       string     `toml:"op"`
	Operand  string     `toml:"operand"`
	Postfix  bool       `toml:"postfix"`
	Left     string     `toml:"left"`
	Right    string     `toml:"right"`
	Dest     string     `toml:"dest"`
	Inner    string     `toml:"inner"`
	Elems    []string   `toml:"elems"`
	Body     string     `toml:"body"`
	Trailing bool       `toml:"trailing"`
	Forced   bool       `toml:"forced"`
	TypeName string     `toml:"type_name"`

	Params     []ClosureParamEntry     `toml:"params"`
	RootType   string                  `toml:"root_type"`
	Components []KeyPathComponentEntry `toml:"components"`
}

// LocatorEntry is an anchor plus rendered path elements, e.g.
// ["apply-argument(0)", "type-param-requirement(1, same-type)"].
type LocatorEntry struct {
	Anchor string   `toml:"anchor"`
	Path   []string `toml:"path"`
}

// OverloadEntry is one resolved overload to push onto the snapshot chain.
// Entries are recorded in file order, so later entries shadow earlier ones
// for the same locator.
type OverloadEntry struct {
	Anchor     string   `toml:"anchor"`
	Path       []string `toml:"path"`
	Decl       string   `toml:"decl"`
	OpenedType string   `toml:"opened_type"`
}

// RestrictionEntry is one applied conversion restriction.
type RestrictionEntry struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
	Kind   string `toml:"kind"`
}

// SolverEntry is the recorded end state of the failed solve.
type SolverEntry struct {
	// ExprTypes maps expression IDs to type spellings; spellings may
	// mention type variables.
	ExprTypes map[string]string `toml:"expr_types"`
	// Bindings maps type variable spellings ($T0) to type spellings.
	Bindings map[string]string `toml:"bindings"`

	Overloads    []OverloadEntry    `toml:"overloads"`
	Restrictions []RestrictionEntry `toml:"restrictions"`

	ContextualType    string `toml:"contextual_type"`
	ContextualPurpose string `toml:"contextual_purpose"`
}

// FailureEntry names the failure variant to construct and carries the union
// of the variant payloads. Which fields are read depends on Variant.
type FailureEntry struct {
	Variant string       `toml:"variant"`
	Locator LocatorEntry `toml:"locator"`
	AsNote  bool         `toml:"as_note"`

	// Type spellings.
	LHS        string `toml:"lhs"`
	RHS        string `toml:"rhs"`
	From       string `toml:"from"`
	To         string `toml:"to"`
	Base       string `toml:"base"`
	Target     string `toml:"target"`
	Index      string `toml:"index"`
	Contextual string `toml:"contextual"`
	FuncType   string `toml:"func_type"`
	Unwrapped  string `toml:"unwrapped"`
	Protocol   string `toml:"protocol"`
	Argument   string `toml:"argument"`
	Actual     string `toml:"actual"`
	Required   string `toml:"required"`

	// Declaration and expression references.
	Affected    string `toml:"affected"`
	Apply       string `toml:"apply"`
	Member      string `toml:"member"`
	Dest        string `toml:"dest"`
	Conformance *int   `toml:"conformance"` // index into [[conformances]]

	// Names and scalars.
	MemberName        string   `toml:"member_name"`
	Kind              string   `toml:"kind"`
	ResultOptional    bool     `toml:"result_optional"`
	StaticallyDerived bool     `toml:"statically_derived"`
	CompatWarning     bool     `toml:"compat_warning"`
	Correct           []string `toml:"correct"` // "_" for an unlabeled position
	Missing           []int    `toml:"missing"`
	Mismatches        []int    `toml:"mismatches"`
	ArgIdx            int      `toml:"arg_idx"`
	PrevArgIdx        int      `toml:"prev_arg_idx"`
	Choices           []string `toml:"choices"` // decl IDs for ambiguity candidates
}

// Load reads and decodes a scenario file.
func Load(path string) (*Document, error) {
	var doc Document
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := doc.validate(meta); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &doc, nil
}

// Parse decodes a scenario from in-memory TOML text.
func Parse(data string) (*Document, error) {
	var doc Document
	meta, err := toml.Decode(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := doc.validate(meta); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate(meta toml.MetaData) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("missing scenario name")
	}
	if !meta.IsDefined("failure") {
		return fmt.Errorf("missing [failure]")
	}
	if strings.TrimSpace(d.Failure.Variant) == "" {
		return fmt.Errorf("missing [failure].variant")
	}
	if strings.TrimSpace(d.Root) == "" {
		return fmt.Errorf("missing root expression")
	}
	if len(d.Exprs) == 0 {
		return fmt.Errorf("scenario declares no expressions")
	}
	seen := make(map[string]bool, len(d.Exprs))
	for i, e := range d.Exprs {
		id := e.ID
		if id == "" {
			return fmt.Errorf("exprs[%d]: missing id", i)
		}
		if seen[id] {
			return fmt.Errorf("exprs[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
	}
	return nil
}
