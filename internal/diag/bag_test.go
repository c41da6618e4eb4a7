package diag

import (
	"strings"
	"testing"

	"cinder/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	bag := NewBag(2)
	if bag.Cap() != 2 {
		t.Fatalf("Cap() = %d, want 2", bag.Cap())
	}
	if !bag.Add(Diagnostic{Message: "first"}) {
		t.Fatal("first Add dropped")
	}
	if !bag.Add(Diagnostic{Message: "second"}) {
		t.Fatal("second Add dropped")
	}
	if bag.Add(Diagnostic{Message: "third"}) {
		t.Fatal("Add over the limit should report the drop")
	}
	if bag.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bag.Len())
	}
}

func TestBagSeverityQueries(t *testing.T) {
	bag := NewBag(4)
	bag.Add(Diagnostic{Severity: SevNote})
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatal("notes alone should not count as warnings or errors")
	}
	bag.Add(Diagnostic{Severity: SevWarning})
	if bag.HasErrors() {
		t.Fatal("warnings should not count as errors")
	}
	if !bag.HasWarnings() {
		t.Fatal("HasWarnings missed a warning")
	}
	bag.Add(Diagnostic{Severity: SevError})
	if !bag.HasErrors() {
		t.Fatal("HasErrors missed an error")
	}
}

func TestBagSortOrdering(t *testing.T) {
	bag := NewBag(8)
	bag.Add(Diagnostic{Severity: SevError, Code: TckMissingMember, Primary: span(2, 0, 1), Message: "other file"})
	bag.Add(Diagnostic{Severity: SevNote, Code: TckCandidateNote, Primary: span(1, 5, 9), Message: "note at 5"})
	bag.Add(Diagnostic{Severity: SevError, Code: TckSameTypeRequirement, Primary: span(1, 5, 9), Message: "error at 5"})
	bag.Add(Diagnostic{Severity: SevError, Code: TckContextualMismatch, Primary: span(1, 0, 4), Message: "error at 0"})

	bag.Sort()

	got := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		got = append(got, d.Message)
	}
	want := []string{"error at 0", "error at 5", "note at 5", "other file"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(8)
	dup := Diagnostic{Severity: SevError, Code: TckMissingArguments, Primary: span(1, 0, 6), Message: "missing argument"}
	bag.Add(dup)
	bag.Add(dup)
	bag.Add(Diagnostic{Severity: SevError, Code: TckMissingArguments, Primary: span(1, 7, 9), Message: "missing argument"})

	bag.Dedup()
	if bag.Len() != 2 {
		t.Fatalf("Len() after Dedup = %d, want 2", bag.Len())
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(Diagnostic{Message: "a"})
	b := NewBag(2)
	b.Add(Diagnostic{Message: "b1"})
	b.Add(Diagnostic{Message: "b2"})

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("Len() after Merge = %d, want 3", a.Len())
	}
	// Merge raises max to the merged total but no further.
	if a.Add(Diagnostic{Message: "c"}) {
		t.Fatal("Add should be rejected once the merged limit is reached")
	}
}

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	counter := &CountingReporter{}
	r := NewDedupReporter(counter)

	d := Diagnostic{Severity: SevError, Code: TckArgumentLabels, Primary: span(1, 2, 3), Message: "incorrect argument labels"}
	r.Report(d)
	r.Report(d)
	if counter.Total() != 1 {
		t.Fatalf("forwarded %d, want 1", counter.Total())
	}

	changed := d
	changed.Message = "different wording"
	r.Report(changed)
	if counter.Total() != 2 {
		t.Fatalf("forwarded %d after distinct message, want 2", counter.Total())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	counter := &CountingReporter{}
	b := ReportError(counter, TckMissingMember, span(1, 0, 3), "value of type 'Int' has no member 'len'").
		WithNote(span(1, 0, 3), "did you mean 'count'?")
	b.Emit()
	b.Emit()
	if counter.Errors != 1 || counter.Total() != 1 {
		t.Fatalf("counter = %+v, want exactly one error", counter)
	}
	if got := b.Diagnostic(); len(got.Notes) != 1 || got.Notes[0].Msg != "did you mean 'count'?" {
		t.Fatalf("notes = %+v", got.Notes)
	}
}

func TestFormatGolden(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.toml", []byte("let x = 1\nlet y = x\n"))

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     TckSameTypeRequirement,
			Primary:  source.Span{File: id, Start: 14, End: 15},
			Message:  "types 'Int' and 'String' must be equivalent",
			Notes: []Note{
				{Span: source.Span{File: id, Start: 4, End: 5}, Msg: "where 'T' == 'String'"},
			},
		},
		{
			Severity: SevError,
			Code:     TckContextualMismatch,
			Primary:  source.Span{File: id, Start: 0, End: 3},
			Message:  "cannot convert value of type 'Int' to expected type 'String'",
		},
	}

	got := FormatGolden(diags, fs, true)
	want := strings.Join([]string{
		"demo.toml:1:1: ERROR TCK3030: cannot convert value of type 'Int' to expected type 'String'",
		"demo.toml:1:5: NOTE TCK3002: where 'T' == 'String'",
		"demo.toml:2:5: ERROR TCK3002: types 'Int' and 'String' must be equivalent",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("FormatGolden mismatch:\n got: %q\nwant: %q", got, want)
	}

	withoutNotes := FormatGolden(diags, fs, false)
	if strings.Contains(withoutNotes, "NOTE") {
		t.Fatalf("notes leaked into note-free output: %q", withoutNotes)
	}
	if FormatGolden(nil, fs, true) != "" {
		t.Fatal("empty input should render to the empty string")
	}
}

func TestCodeIdentity(t *testing.T) {
	if got := TckSameTypeRequirement.ID(); got != "TCK3002" {
		t.Fatalf("ID() = %q, want TCK3002", got)
	}
	if got := IoScenarioParse.ID(); got != "IO4002" {
		t.Fatalf("ID() = %q, want IO4002", got)
	}
	if got := UnknownCode.ID(); got != "E0000" {
		t.Fatalf("ID() = %q, want E0000", got)
	}
	if got := Code(9999).Title(); got != "Unknown diagnostic" {
		t.Fatalf("Title() fallback = %q", got)
	}
}
