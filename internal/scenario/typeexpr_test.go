package scenario

import (
	"strings"
	"testing"

	"cinder/internal/source"
	"cinder/internal/types"
)

func testScope() *typeScope {
	sc := newTypeScope(types.NewInterner(source.NewInterner()))
	sc.protocols["Equatable"] = true
	sc.genericParams["T"] = true
	return sc
}

func TestTypeSpellingRoundTrip(t *testing.T) {
	sc := testScope()

	tests := []struct {
		in   string
		want string
	}{
		{"Int", "Int"},
		{"Void", "()"},
		{"()", "()"},
		{"Int?", "Int?"},
		{"String??", "String??"},
		{"[Int]", "[Int]"},
		{"[[String]]", "[[String]]"},
		{"[Int]?", "[Int]?"},
		{"(Int)", "Int"},
		{"(Int, String)", "(Int, String)"},
		{"(Int) -> Int", "(Int) -> Int"},
		{"(x: Int, y: Int) -> Bool", "(x: Int, y: Int) -> Bool"},
		{"((Int) -> Int)?", "((Int) -> Int)?"},
		{"(inout Int) -> ()", "(inout Int) -> ()"},
		{"(values: Int...) -> Int", "(values: Int...) -> Int"},
		{"(@autoclosure () -> Bool) -> ()", "(@autoclosure () -> Bool) -> ()"},
		{"Int.Type", "Int.Type"},
		{"((Int) -> Int).Type", "((Int) -> Int).Type"},
		{"$T3", "$T3"},
		{"Array<Int>", "Array<Int>"},
		{"Dictionary<String, [Int]>", "Dictionary<String, [Int]>"},
		{"T", "T"},
		{"Equatable", "Equatable"},
		{"Array< Int >", "Array<Int>"},
		{"Int ?", "Int?"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := sc.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := sc.types.String(id); got != tt.want {
				t.Fatalf("Parse(%q) renders %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeSpellingClassification(t *testing.T) {
	sc := testScope()

	proto, err := sc.Parse("Equatable")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !sc.types.IsProtocol(proto) {
		t.Fatal("declared protocol name did not parse as a protocol type")
	}

	param, err := sc.Parse("T")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.types.Kind(param) != types.KindGenericParam {
		t.Fatalf("T parsed as %v, want a generic parameter", sc.types.Kind(param))
	}

	tv, err := sc.Parse("$T0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !sc.types.IsTypeVar(tv) {
		t.Fatal("$T0 did not parse as a type variable")
	}

	// An undeclared bare name falls back to a nominal type.
	nom, err := sc.Parse("Task")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.types.Kind(nom) != types.KindNominal {
		t.Fatalf("Task parsed as %v, want a nominal", sc.types.Kind(nom))
	}
}

func TestTypeSpellingInterning(t *testing.T) {
	sc := testScope()

	a, err := sc.Parse("Dictionary<String, [Int]?>")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := sc.Parse("Dictionary< String , [ Int ] ? >")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a != b {
		t.Fatalf("equal spellings interned to distinct IDs %d and %d", a, b)
	}
}

func TestTypeSpellingErrors(t *testing.T) {
	sc := testScope()

	tests := []struct {
		in      string
		wantErr string
	}{
		{"", "expected type"},
		{"Int Int", "trailing input"},
		{"[Int", "missing ']'"},
		{"Array<Int", "missing '>'"},
		{"(Int, String", "missing ')'"},
		{"(x: Int)", "labeled parameters need '->'"},
		{"$Tx", "bad type variable"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := sc.Parse(tt.in)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error containing %q", tt.in, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want substring %q", tt.in, err, tt.wantErr)
			}
		})
	}
}
