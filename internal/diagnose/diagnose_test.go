package diagnose_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/diagnose"
	"cinder/internal/scenario"
	"cinder/internal/solver"
)

func mustMaterialize(t *testing.T, doc string) *scenario.Materialized {
	t.Helper()
	d, err := scenario.Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := d.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	return m
}

// runDiagnose executes one diagnosis attempt and enforces the dispatch
// contract on every run: a successful error-form diagnosis emits exactly one
// error, a declined one emits nothing at all.
func runDiagnose(t *testing.T, m *scenario.Materialized) (*diag.Bag, bool) {
	t.Helper()
	bag := diag.NewBag(16)
	counting := &diag.CountingReporter{Next: diag.BagReporter{Bag: bag}}
	ok := diagnose.Diagnose(m.Snapshot, counting, m.Root, m.Failure, m.AsNote)
	switch {
	case ok && !m.AsNote:
		if counting.Errors != 1 || counting.Notes != 0 || counting.Other != 0 {
			t.Fatalf("diagnosis emitted %d errors, %d notes, %d other diagnostics; want exactly one error",
				counting.Errors, counting.Notes, counting.Other)
		}
	case ok && m.AsNote:
		if counting.Notes != 1 || counting.Errors != 0 || counting.Other != 0 {
			t.Fatalf("note-form diagnosis emitted %d errors, %d notes, %d other; want exactly one note",
				counting.Errors, counting.Notes, counting.Other)
		}
	default:
		if counting.Total() != 0 {
			t.Fatalf("declined diagnosis still emitted %d diagnostics", counting.Total())
		}
	}
	return bag, ok
}

func single(t *testing.T, bag *diag.Bag) diag.Diagnostic {
	t.Helper()
	if bag.Len() != 1 {
		t.Fatalf("bag holds %d diagnostics, want 1", bag.Len())
	}
	return bag.Items()[0]
}

const sameTypeOnCall = `
name = "same-type-on-call"
source = "decode(data)"
root = "call"
generic_params = ["T"]

[[decls]]
id = "decode"
name = "decode"
kind = "function"
type = "(x: T) -> T"
generic_params = ["T"]

  [[decls.requirements]]
  kind = "same-type"
  lhs = "T"
  rhs = "Int"

[[exprs]]
id = "callee"
kind = "ident"
name = "decode"
span = [0, 6]

[[exprs]]
id = "arg"
kind = "ident"
name = "data"
span = [7, 11]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 12]

  [[exprs.args]]
  value = "arg"

[failure]
variant = "same-type-requirement"
lhs = "String"
rhs = "Int"
affected = "decode"

  [failure.locator]
  anchor = "call"
  path = ["type-param-requirement(0, same-type)"]
`

func TestSameTypeRequirementOnCall(t *testing.T) {
	m := mustMaterialize(t, sameTypeOnCall)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	if d.Code != diag.TckSameTypeRequirement {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckSameTypeRequirement.ID())
	}
	if want := "types 'String' and 'Int' must be equivalent"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if d.Primary.Start != 0 || d.Primary.End != 12 {
		t.Fatalf("primary span = [%d, %d), want the whole call", d.Primary.Start, d.Primary.End)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "where 'T' == 'Int'" {
		t.Fatalf("notes = %v, want the requirement provenance note", d.Notes)
	}

	rf, okCast := m.Failure.(*diagnose.RequirementFailure)
	if !okCast {
		t.Fatalf("failure has type %T, want *RequirementFailure", m.Failure)
	}
	if rf.IsConditional() {
		t.Fatal("signature requirement reported as conditional")
	}
	if rf.RequirementIndex() != 0 {
		t.Fatalf("RequirementIndex = %d, want 0", rf.RequirementIndex())
	}
}

const operatorApplyTemplate = `
name = "requirement-in-operator"
source = "a == b"
root = "cmp"
protocols = ["Equatable"]
generic_params = ["T"]

[[decls]]
id = "eq"
name = "=="
kind = "function"
flags = ["operator"]
generic_params = ["T"]

  [[decls.requirements]]
  kind = "same-type"
  lhs = "T"
  rhs = "Int"

[[conformances]]
type = "Array<T>"
protocol = "Equatable"

  [[conformances.where]]
  kind = "conformance"
  lhs = "T"
  rhs = "Equatable"

[[exprs]]
id = "a"
kind = "ident"
name = "a"
span = [0, 1]

[[exprs]]
id = "b"
kind = "ident"
name = "b"
span = [5, 6]

[[exprs]]
id = "cmp"
kind = "binary"
op = "=="
left = "a"
right = "b"
span = [0, 6]

%s
`

func TestRequirementInsideOperatorApplyDefers(t *testing.T) {
	doc := fmt.Sprintf(operatorApplyTemplate, `
[failure]
variant = "same-type-requirement"
lhs = "String"
rhs = "Int"
affected = "eq"

  [failure.locator]
  anchor = "cmp"
  path = ["type-param-requirement(0, same-type)"]
`)
	m := mustMaterialize(t, doc)
	bag, ok := runDiagnose(t, m)
	if ok {
		t.Fatal("requirement inside an operator apply must defer to the argument-mismatch path")
	}
	if bag.Len() != 0 {
		t.Fatalf("bag holds %d diagnostics, want none", bag.Len())
	}
}

func TestConditionalRequirementAlwaysRenders(t *testing.T) {
	// Same operator apply, but the requirement comes from a conditional
	// conformance; provenance is precise, so it renders anyway.
	doc := fmt.Sprintf(operatorApplyTemplate, `
[failure]
variant = "missing-conformance"
lhs = "String"
rhs = "Equatable"
affected = "eq"
conformance = 0

  [failure.locator]
  anchor = "cmp"
  path = ["conditional-requirement(0, conformance)"]
`)
	m := mustMaterialize(t, doc)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("conditional requirement declined to render")
	}

	d := single(t, bag)
	if d.Code != diag.TckConformanceRequirement {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckConformanceRequirement.ID())
	}
	if want := "type 'String' does not conform to protocol 'Equatable'"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("notes = %v, want exactly one", d.Notes)
	}
	if want := "requirement from conditional conformance of 'Array<T>' to 'Equatable'"; d.Notes[0].Msg != want {
		t.Fatalf("note = %q, want %q", d.Notes[0].Msg, want)
	}

	rf := m.Failure.(*diagnose.RequirementFailure)
	if !rf.IsConditional() {
		t.Fatal("conditional-requirement locator did not mark the failure conditional")
	}
	req, okReq := rf.Requirement()
	if !okReq {
		t.Fatal("Requirement() failed to resolve the where-clause entry")
	}
	if req.Kind != rf.Kind() {
		t.Fatalf("requirement kind = %v, want %v", req.Kind, rf.Kind())
	}
}

const requirementInReference = `
name = "requirement-in-reference"
source = "box.sort()"
root = "call"
protocols = ["Comparable"]
generic_params = ["T"]

[[decls]]
id = "Box"
name = "Box"
kind = "struct"
generic_params = ["T"]

  [[decls.requirements]]
  kind = "conformance"
  lhs = "T"
  rhs = "Comparable"

[[decls]]
id = "sort"
name = "sort"
kind = "method"
owner = "Box<T>"
type = "() -> ()"

[[exprs]]
id = "base"
kind = "ident"
name = "box"
span = [0, 3]

[[exprs]]
id = "callee"
kind = "member"
base = "base"
name = "sort"
span = [0, 8]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 10]

[[solver.overloads]]
anchor = "callee"
decl = "sort"

[failure]
variant = "missing-conformance"
lhs = "Task"
rhs = "Comparable"
affected = "Box"
apply = "call"

  [failure.locator]
  anchor = "call"
  path = ["type-param-requirement(0, conformance)"]
`

func TestRequirementInReferenceToOtherDecl(t *testing.T) {
	m := mustMaterialize(t, requirementInReference)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	want := "type 'Task' does not conform to protocol 'Comparable' in reference to struct 'Box'"
	if d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "where 'T' conforms to 'Comparable'" {
		t.Fatalf("notes = %v, want the where-clause note", d.Notes)
	}
}

const superclassOnCall = `
name = "superclass-on-call"
source = "render(view)"
root = "call"
generic_params = ["T"]

[[decls]]
id = "render"
name = "render"
kind = "function"
type = "(v: T) -> T"
generic_params = ["T"]

  [[decls.requirements]]
  kind = "superclass"
  lhs = "T"
  rhs = "Widget"

[[exprs]]
id = "callee"
kind = "ident"
name = "render"
span = [0, 6]

[[exprs]]
id = "arg"
kind = "ident"
name = "view"
span = [7, 11]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 12]

  [[exprs.args]]
  value = "arg"

[failure]
variant = "superclass-requirement"
lhs = "Label"
rhs = "Widget"
affected = "render"

  [failure.locator]
  anchor = "call"
  path = ["type-param-requirement(0, superclass)"]
`

func TestSuperclassRequirementOnCall(t *testing.T) {
	m := mustMaterialize(t, superclassOnCall)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	if d.Code != diag.TckSuperclassRequirement {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckSuperclassRequirement.ID())
	}
	if want := "type 'Label' must inherit from 'Widget'"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "where 'T' inherits from 'Widget'" {
		t.Fatalf("notes = %v, want the requirement provenance note", d.Notes)
	}
}

func TestSuperclassRequirementCandidateNote(t *testing.T) {
	doc := strings.Replace(superclassOnCall,
		`variant = "superclass-requirement"`,
		"variant = \"superclass-requirement\"\nas_note = true", 1)
	m := mustMaterialize(t, doc)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("note form declined")
	}
	d := single(t, bag)
	if want := "candidate requires that 'Label' inherit from 'Widget'"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
}

const missingArgumentsTemplate = `
name = "missing-arguments"
source = "pad(s)"
root = "call"

[[exprs]]
id = "callee"
kind = "ident"
name = "pad"
span = [0, 3]

[[exprs]]
id = "s"
kind = "ident"
name = "s"
span = [4, 5]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 6]

  [[exprs.args]]
  value = "s"

[failure]
variant = "missing-arguments"
func_type = "%s"
missing = %s

  [failure.locator]
  anchor = "call"
`

func TestMissingArgumentsMessages(t *testing.T) {
	tests := []struct {
		name        string
		funcType    string
		missing     string
		wantSynth   int
		wantMessage string
	}{
		{
			name:        "single labeled parameter",
			funcType:    "(s: String, count: Int) -> String",
			missing:     "[1]",
			wantSynth:   1,
			wantMessage: "missing argument for parameter 'count' in call",
		},
		{
			name:        "several parameters in declaration order",
			funcType:    "(s: String, count: Int, with: String) -> String",
			missing:     "[2, 1]",
			wantSynth:   2,
			wantMessage: "missing arguments for parameters 'count', 'with' in call",
		},
		{
			name:        "unlabeled parameters fall back to positions",
			funcType:    "(String, Int) -> String",
			missing:     "[1]",
			wantSynth:   1,
			wantMessage: "missing argument for parameter #2 in call",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fmt.Sprintf(missingArgumentsTemplate, tt.funcType, tt.missing)
			m := mustMaterialize(t, doc)
			bag, ok := runDiagnose(t, m)
			if !ok {
				t.Fatal("diagnosis declined")
			}
			d := single(t, bag)
			if d.Code != diag.TckMissingArguments {
				t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckMissingArguments.ID())
			}
			if d.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", d.Message, tt.wantMessage)
			}
			mf := m.Failure.(*diagnose.MissingArgumentsFailure)
			if mf.NumSynthesized() != tt.wantSynth {
				t.Fatalf("NumSynthesized = %d, want %d", mf.NumSynthesized(), tt.wantSynth)
			}
		})
	}
}

const outOfOrderArgument = `
name = "out-of-order-argument"
source = "move(dy: 2, dx: 1)"
root = "call"

[[exprs]]
id = "callee"
kind = "ident"
name = "move"
span = [0, 4]

[[exprs]]
id = "two"
kind = "literal"
value = "2"
span = [9, 10]

[[exprs]]
id = "one"
kind = "literal"
value = "1"
span = [16, 17]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 18]

  [[exprs.args]]
  label = "dy"
  value = "two"

  [[exprs.args]]
  label = "dx"
  value = "one"

[failure]
variant = "out-of-order-argument"
arg_idx = 1
prev_arg_idx = 0

  [failure.locator]
  anchor = "call"
  path = ["apply-argument(1)"]
`

func TestOutOfOrderArgumentSwapFix(t *testing.T) {
	m := mustMaterialize(t, outOfOrderArgument)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	if want := "argument 'dx' must precede argument 'dy'"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if d.Primary.Start != 16 || d.Primary.End != 17 {
		t.Fatalf("primary span = [%d, %d), want the misplaced argument value", d.Primary.Start, d.Primary.End)
	}
	if len(d.Fixes) != 1 {
		t.Fatalf("fixes = %d, want 1", len(d.Fixes))
	}

	f := d.Fixes[0]
	if !f.IsPreferred {
		t.Fatal("swap fix is not marked preferred")
	}
	if len(f.Edits) != 2 {
		t.Fatalf("swap fix has %d edits, want 2", len(f.Edits))
	}
	first, second := f.Edits[0], f.Edits[1]
	if first.Span.Start != 9 || first.Span.End != 10 || first.NewText != "1" || first.OldText != "2" {
		t.Fatalf("first edit = %+v, want 2 -> 1 at [9, 10)", first)
	}
	if second.Span.Start != 16 || second.Span.End != 17 || second.NewText != "2" || second.OldText != "1" {
		t.Fatalf("second edit = %+v, want 1 -> 2 at [16, 17)", second)
	}
}

const argumentLabeling = `
name = "argument-labeling"
source = "f(1, to: 2)"
root = "call"

[[exprs]]
id = "callee"
kind = "ident"
name = "f"
span = [0, 1]

[[exprs]]
id = "one"
kind = "literal"
value = "1"
span = [2, 3]

[[exprs]]
id = "two"
kind = "literal"
value = "2"
span = [9, 10]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 11]

  [[exprs.args]]
  value = "one"

  [[exprs.args]]
  label = "to"
  value = "two"

[failure]
variant = "argument-labeling"
correct = ["from", "to"]

  [failure.locator]
  anchor = "call"
  path = ["apply-argument(0)"]
`

func TestArgumentLabelingInsertsMissingLabel(t *testing.T) {
	m := mustMaterialize(t, argumentLabeling)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	want := "incorrect argument label in call (have '_:to:', expected 'from:to:')"
	if d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Fixes) != 1 {
		t.Fatalf("fixes = %d, want one label insertion", len(d.Fixes))
	}
	edit := d.Fixes[0].Edits[0]
	if edit.Span.Start != 2 || edit.Span.End != 2 {
		t.Fatalf("insertion span = [%d, %d), want a point at the argument start", edit.Span.Start, edit.Span.End)
	}
	if edit.NewText != "from: " {
		t.Fatalf("insertion text = %q, want %q", edit.NewText, "from: ")
	}
}

const genericArgumentsMismatch = `
name = "generic-arguments-mismatch"
source = "make()"
root = "call"

[[exprs]]
id = "callee"
kind = "ident"
name = "make"
span = [0, 4]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 6]

[failure]
variant = "generic-arguments-mismatch"
actual = "Pair<String, Int>"
required = "Pair<String, String>"
mismatches = [1]

  [failure.locator]
  anchor = "call"
  path = ["generic-argument(1)"]
`

func TestGenericArgumentsMismatchNotes(t *testing.T) {
	m := mustMaterialize(t, genericArgumentsMismatch)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	want := "cannot convert value of type 'Pair<String, Int>' to expected type 'Pair<String, String>'"
	if d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("notes = %d, want one per mismatching position", len(d.Notes))
	}
	if wantNote := "generic argument 1: 'Int' is not 'String'"; d.Notes[0].Msg != wantNote {
		t.Fatalf("note = %q, want %q", d.Notes[0].Msg, wantNote)
	}
}

func TestRequirementCandidateNote(t *testing.T) {
	doc := strings.Replace(sameTypeOnCall,
		`variant = "same-type-requirement"`,
		"variant = \"same-type-requirement\"\nas_note = true", 1)
	m := mustMaterialize(t, doc)
	if !m.AsNote {
		t.Fatal("as_note did not survive materialization")
	}

	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("note form declined")
	}
	d := single(t, bag)
	if d.Severity != diag.SevNote {
		t.Fatalf("severity = %s, want NOTE", d.Severity)
	}
	if d.Code != diag.TckCandidateNote {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckCandidateNote.ID())
	}
	if want := "candidate requires that the types 'String' and 'Int' be equivalent"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
}

const unresolvedMemberTemplate = `
name = "unresolved-member-requirement"
source = ".pi"
root = "um"
generic_params = ["T"]

[[decls]]
id = "pi"
name = "pi"
kind = "var"
generic_params = ["T"]

  [[decls.requirements]]
  kind = "same-type"
  lhs = "T"
  rhs = "Double"

[[exprs]]
id = "um"
kind = "unresolved-member"
name = "pi"
span = [0, 3]

[failure]
variant = "same-type-requirement"
lhs = "Int"
rhs = "Double"
affected = "pi"

  [failure.locator]
  anchor = "um"
  path = [%s]
`

func TestUnresolvedMemberAnchorSuppression(t *testing.T) {
	t.Run("foreign path is suppressed", func(t *testing.T) {
		doc := fmt.Sprintf(unresolvedMemberTemplate, `"type-param-requirement(0, same-type)"`)
		m := mustMaterialize(t, doc)
		if _, ok := runDiagnose(t, m); ok {
			t.Fatal("requirement opened through another path must not render on an unresolved member")
		}
	})

	t.Run("own member lookup renders", func(t *testing.T) {
		doc := fmt.Sprintf(unresolvedMemberTemplate,
			`"unresolved-member", "type-param-requirement(0, same-type)"`)
		m := mustMaterialize(t, doc)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		if want := "types 'Int' and 'Double' must be equivalent"; d.Message != want {
			t.Fatalf("message = %q, want %q", d.Message, want)
		}
	})
}

const closureDestructuring = `
name = "closure-param-destructuring"
source = "{ p in p.0 + p.1 }"
root = "closure"

[[exprs]]
id = "closure"
kind = "closure"
span = [0, 18]

  [[exprs.params]]
  name = "p"
  span = [2, 3]

[failure]
variant = "closure-param-destructuring"
contextual = "((Int, Int)) -> Int"

  [failure.locator]
  anchor = "closure"
`

func TestClosureParamDestructuring(t *testing.T) {
	m := mustMaterialize(t, closureDestructuring)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}
	d := single(t, bag)
	if want := "closure tuple parameter '(Int, Int)' does not support destructuring"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
}

func TestClosureParamDestructuringNeedsClosureAnchor(t *testing.T) {
	doc := strings.Replace(closureDestructuring, `kind = "closure"`, `kind = "ident"
name = "g"`, 1)
	m := mustMaterialize(t, doc)
	if _, ok := runDiagnose(t, m); ok {
		t.Fatal("destructuring failure rendered on a non-closure anchor")
	}
}

// Two materializations of one document must behave identically: the stores
// are rebuilt from scratch, so nothing can leak between runs.
func TestMaterializedFailuresAreIndependent(t *testing.T) {
	d, err := scenario.Parse(outOfOrderArgument)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	render := func() string {
		m, err := d.Materialize()
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		return diag.FormatGolden(bag.Items(), m.Files, true)
	}

	first := render()
	second := render()
	if first == "" {
		t.Fatal("golden rendering is empty")
	}
	if first != second {
		t.Fatalf("renderings diverged:\n%s\nvs\n%s", first, second)
	}
}

func TestMalformedLocatorConstruction(t *testing.T) {
	doc := strings.Replace(sameTypeOnCall,
		`path = ["type-param-requirement(0, same-type)"]`,
		`path = ["member"]`, 1)
	d, err := scenario.Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := d.Materialize(); !errors.Is(err, diagnose.ErrMalformedLocator) {
		t.Fatalf("Materialize error = %v, want ErrMalformedLocator", err)
	}
}

func TestStrictInvariantsPanics(t *testing.T) {
	diagnose.StrictInvariants = true
	defer func() {
		diagnose.StrictInvariants = false
		if recover() == nil {
			t.Fatal("strict mode did not panic on a malformed locator")
		}
	}()
	_, _ = diagnose.SameTypeRequirement(solver.At(ast.ExprID(1)), 0, 0, diagnose.RequirementSite{})
}
