package solver

import (
	"testing"

	"cinder/internal/ast"
	"cinder/internal/symbols"
)

func TestLocatorPredicates(t *testing.T) {
	tests := []struct {
		name           string
		loc            Locator
		forRequirement bool
		keyPath        bool
	}{
		{
			name: "empty path",
			loc:  At(ast.ExprID(1)),
		},
		{
			name:           "type-param requirement",
			loc:            At(ast.ExprID(1), ApplyArgument(0), TypeParamRequirement(0, symbols.RequirementSuperclass)),
			forRequirement: true,
		},
		{
			name:           "conditional requirement",
			loc:            At(ast.ExprID(1), ConditionalRequirement(2, symbols.RequirementConformance)),
			forRequirement: true,
		},
		{
			name: "requirement not last",
			loc:  At(ast.ExprID(1), TypeParamRequirement(0, symbols.RequirementSameType), Member()),
		},
		{
			name:    "key path component",
			loc:     At(ast.ExprID(4), KeyPathComponent(1)),
			keyPath: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.IsForRequirement(); got != tt.forRequirement {
				t.Fatalf("IsForRequirement() = %v, want %v", got, tt.forRequirement)
			}
			if got := tt.loc.IsKeyPathComponent(); got != tt.keyPath {
				t.Fatalf("IsKeyPathComponent() = %v, want %v", got, tt.keyPath)
			}
		})
	}
}

func TestLocatorEqual(t *testing.T) {
	a := At(ast.ExprID(3), Member(), GenericArgument(1))
	if !a.Equal(At(ast.ExprID(3), Member(), GenericArgument(1))) {
		t.Fatal("identical locators compare unequal")
	}
	if a.Equal(At(ast.ExprID(4), Member(), GenericArgument(1))) {
		t.Fatal("different anchors compare equal")
	}
	if a.Equal(At(ast.ExprID(3), Member())) {
		t.Fatal("different path lengths compare equal")
	}
	if a.Equal(At(ast.ExprID(3), Member(), GenericArgument(2))) {
		t.Fatal("different indices compare equal")
	}
}

func TestLocatorString(t *testing.T) {
	loc := At(ast.ExprID(7),
		ApplyArgument(0),
		TypeParamRequirement(1, symbols.RequirementSameType),
	)
	want := "expr7 -> apply-argument(0) -> type-param-requirement(1, same-type)"
	if got := loc.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
