package diagnose_test

import (
	"fmt"
	"strings"
	"testing"

	"cinder/internal/diag"
)

const contextualMismatchTemplate = `
name = "contextual-mismatch"
source = "value"
root = "v"

[[exprs]]
id = "v"
kind = "ident"
name = "value"
span = [0, 5]

[solver]
contextual_purpose = "%s"

[failure]
variant = "contextual-mismatch"
from = "Int"
to = "String"

  [failure.locator]
  anchor = "v"
`

func TestContextualMismatchPurposeMessages(t *testing.T) {
	tests := []struct {
		purpose string
		want    string
	}{
		{"return", "cannot convert return expression of type 'Int' to return type 'String'"},
		{"initialization", "cannot convert value of type 'Int' to specified type 'String'"},
		{"assignment", "cannot convert value of type 'Int' to specified type 'String'"},
		{"call-argument", "cannot convert value of type 'Int' to expected argument type 'String'"},
		{"coercion", "cannot convert value of type 'Int' to type 'String' in coercion"},
		{"condition", "cannot convert value of type 'Int' to expected type 'String'"},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			m := mustMaterialize(t, fmt.Sprintf(contextualMismatchTemplate, tt.purpose))
			bag, ok := runDiagnose(t, m)
			if !ok {
				t.Fatal("diagnosis declined")
			}
			d := single(t, bag)
			if d.Code != diag.TckContextualMismatch {
				t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckContextualMismatch.ID())
			}
			if d.Message != tt.want {
				t.Fatalf("message = %q, want %q", d.Message, tt.want)
			}
		})
	}
}

func TestContextualMismatchSuggestsMissingCall(t *testing.T) {
	doc := strings.Replace(fmt.Sprintf(contextualMismatchTemplate, "return"),
		`from = "Int"`, `from = "() -> String"`, 1)
	m := mustMaterialize(t, doc)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}
	d := single(t, bag)
	if d.Code != diag.TckMissingCallForConversion {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckMissingCallForConversion.ID())
	}
	want := "function produces expected type 'String'; did you mean to call it with '()'?"
	if d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Fixes) != 1 || !d.Fixes[0].IsPreferred {
		t.Fatalf("fixes = %v, want one preferred insertion", d.Fixes)
	}
	if edit := d.Fixes[0].Edits[0]; edit.Span.Start != 5 || edit.Span.End != 5 || edit.NewText != "()" {
		t.Fatalf("edit = %+v, want '()' at the anchor end", edit)
	}
}

const collectionElementMismatch = `
name = "collection-element-mismatch"
source = "[1, label]"
root = "bad"

[[exprs]]
id = "bad"
kind = "ident"
name = "label"
span = [4, 9]

[failure]
variant = "collection-element-mismatch"
from = "String"
to = "Int"

  [failure.locator]
  anchor = "bad"
`

func TestCollectionElementMismatch(t *testing.T) {
	m := mustMaterialize(t, collectionElementMismatch)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}
	d := single(t, bag)
	if d.Code != diag.TckCollectionElementMismatch {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckCollectionElementMismatch.ID())
	}
	if want := "cannot convert value of type 'String' to expected element type 'Int'"; d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
}

const missingExplicitConversion = `
name = "missing-explicit-conversion"
source = "width"
root = "w"

[[exprs]]
id = "w"
kind = "ident"
name = "width"
span = [0, 5]

[failure]
variant = "missing-explicit-conversion"
from = "Int"
to = "Double"

  [failure.locator]
  anchor = "w"
`

const missingExplicitConversionOnOperator = `
name = "missing-explicit-conversion-operator"
source = "a + b"
root = "sum"

[[exprs]]
id = "a"
kind = "ident"
name = "a"
span = [0, 1]

[[exprs]]
id = "b"
kind = "ident"
name = "b"
span = [4, 5]

[[exprs]]
id = "sum"
kind = "binary"
op = "+"
left = "a"
right = "b"
span = [0, 5]

[failure]
variant = "missing-explicit-conversion"
from = "Int"
to = "Double"

  [failure.locator]
  anchor = "sum"
`

func TestMissingExplicitConversion(t *testing.T) {
	t.Run("appends 'as' after a simple operand", func(t *testing.T) {
		m := mustMaterialize(t, missingExplicitConversion)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		want := "'Int' is not implicitly convertible to 'Double'; did you mean to use 'as' to explicitly convert?"
		if d.Message != want {
			t.Fatalf("message = %q, want %q", d.Message, want)
		}
		if len(d.Fixes) != 1 || !d.Fixes[0].IsPreferred {
			t.Fatalf("fixes = %v, want one preferred insertion", d.Fixes)
		}
		if edit := d.Fixes[0].Edits[0]; edit.Span.Start != 5 || edit.NewText != " as Double" {
			t.Fatalf("edit = %+v, want ' as Double' at the anchor end", edit)
		}
	})

	t.Run("parenthesizes operator operands", func(t *testing.T) {
		m := mustMaterialize(t, missingExplicitConversionOnOperator)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		if len(d.Fixes) != 1 {
			t.Fatalf("fixes = %d, want 1", len(d.Fixes))
		}
		f := d.Fixes[0]
		if len(f.Edits) != 2 {
			t.Fatalf("wrap fix has %d edits, want 2", len(f.Edits))
		}
		opening, closing := f.Edits[0], f.Edits[1]
		if opening.Span.Start != 0 || opening.Span.End != 0 || opening.NewText != "(" {
			t.Fatalf("opening edit = %+v, want '(' at the expression start", opening)
		}
		if closing.Span.Start != 5 || closing.Span.End != 5 || closing.NewText != ") as Double" {
			t.Fatalf("closing edit = %+v, want ') as Double' at the expression end", closing)
		}
	})
}

const noescapeFuncConversion = `
name = "noescape-func-conversion"
source = "callback"
root = "cb"

[[exprs]]
id = "cb"
kind = "ident"
name = "callback"
span = [0, 8]

[failure]
variant = "noescape-func-conversion"
target = "Handler"

  [failure.locator]
  anchor = "cb"
`

func TestNoEscapeFuncConversion(t *testing.T) {
	t.Run("named escaping destination", func(t *testing.T) {
		m := mustMaterialize(t, noescapeFuncConversion)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		if d.Code != diag.TckNoEscapeToEscaping {
			t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckNoEscapeToEscaping.ID())
		}
		if want := "converting non-escaping value to 'Handler' may allow it to escape"; d.Message != want {
			t.Fatalf("message = %q, want %q", d.Message, want)
		}
	})

	t.Run("generic destination names the parameter", func(t *testing.T) {
		doc := strings.Replace(noescapeFuncConversion, `target = "Handler"`, "", 1)
		m := mustMaterialize(t, doc)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		want := "converting non-escaping parameter 'callback' to generic parameter may allow it to escape"
		if d.Message != want {
			t.Fatalf("message = %q, want %q", d.Message, want)
		}
	})

	t.Run("generic destination without a name", func(t *testing.T) {
		doc := strings.NewReplacer(
			`target = "Handler"`, "",
			`kind = "ident"`, `kind = "literal"`,
		).Replace(noescapeFuncConversion)
		m := mustMaterialize(t, doc)
		bag, ok := runDiagnose(t, m)
		if !ok {
			t.Fatal("diagnosis declined")
		}
		d := single(t, bag)
		want := "converting non-escaping value to generic parameter may allow it to escape"
		if d.Message != want {
			t.Fatalf("message = %q, want %q", d.Message, want)
		}
	})
}

const missingForcedDowncast = `
name = "missing-forced-downcast"
source = "pet as Dog"
root = "cast"

[[exprs]]
id = "pet"
kind = "ident"
name = "pet"
span = [0, 3]

[[exprs]]
id = "cast"
kind = "coerce"
value = "pet"
type_name = "Dog"
span = [0, 10]

[failure]
variant = "missing-forced-downcast"
from = "Animal"
to = "Dog"

  [failure.locator]
  anchor = "cast"
`

func TestMissingForcedDowncastReplacesKeyword(t *testing.T) {
	m := mustMaterialize(t, missingForcedDowncast)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}

	d := single(t, bag)
	if d.Code != diag.TckMissingForcedDowncast {
		t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckMissingForcedDowncast.ID())
	}
	want := "'Animal' is not convertible to 'Dog'; did you mean to use 'as!' to force downcast?"
	if d.Message != want {
		t.Fatalf("message = %q, want %q", d.Message, want)
	}
	if len(d.Fixes) != 1 {
		t.Fatalf("fixes = %d, want 1", len(d.Fixes))
	}
	f := d.Fixes[0]
	if f.Title != "use 'as!' to force downcast" || !f.IsPreferred {
		t.Fatalf("fix = %q preferred=%v", f.Title, f.IsPreferred)
	}
	edit := f.Edits[0]
	if edit.Span.Start != 4 || edit.Span.End != 6 || edit.NewText != "as!" || edit.OldText != "as" {
		t.Fatalf("edit = %+v, want 'as' -> 'as!' at [4, 6)", edit)
	}
}

func TestMissingForcedDowncastSkipsForcedCoercion(t *testing.T) {
	// An already-forced coercion gets the message but no keyword rewrite.
	doc := strings.Replace(missingForcedDowncast,
		`type_name = "Dog"`,
		"type_name = \"Dog\"\nforced = true", 1)
	m := mustMaterialize(t, doc)
	bag, ok := runDiagnose(t, m)
	if !ok {
		t.Fatal("diagnosis declined")
	}
	if d := single(t, bag); len(d.Fixes) != 0 {
		t.Fatalf("fixes = %v, want none for a forced coercion", d.Fixes)
	}
}

const contextualConformanceTemplate = `
name = "missing-contextual-conformance"
source = "task"
root = "v"
protocols = ["Hashable"]

[[exprs]]
id = "v"
kind = "ident"
name = "task"
span = [0, 4]

[solver]
contextual_purpose = "%s"

[failure]
variant = "missing-contextual-conformance"
from = "Task"
protocol = "Hashable"

  [failure.locator]
  anchor = "v"
`

func TestMissingContextualConformanceMessages(t *testing.T) {
	tests := []struct {
		purpose string
		want    string
	}{
		{"call-argument", "argument type 'Task' does not conform to expected type 'Hashable'"},
		{"coercion", "value of type 'Task' does not conform to 'Hashable' in coercion"},
		{"assignment", "value of type 'Task' does not conform to 'Hashable' in assignment"},
		{"none", "value of type 'Task' does not conform to specified type 'Hashable'"},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			m := mustMaterialize(t, fmt.Sprintf(contextualConformanceTemplate, tt.purpose))
			bag, ok := runDiagnose(t, m)
			if !ok {
				t.Fatal("diagnosis declined")
			}
			d := single(t, bag)
			if d.Code != diag.TckContextualConformance {
				t.Fatalf("code = %s, want %s", d.Code.ID(), diag.TckContextualConformance.ID())
			}
			if d.Message != tt.want {
				t.Fatalf("message = %q, want %q", d.Message, tt.want)
			}
		})
	}
}
