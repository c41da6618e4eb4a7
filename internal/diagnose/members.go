package diagnose

import (
	"cinder/internal/diag"
	"cinder/internal/fix"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// InaccessibleMemberFailure fires when overload resolution found only members
// hidden by access control.
type InaccessibleMemberFailure struct {
	noNote
	loc    solver.Locator
	member symbols.DeclID
}

// InaccessibleMember builds the failure for the inaccessible declaration.
func InaccessibleMember(loc solver.Locator, member symbols.DeclID) *InaccessibleMemberFailure {
	return &InaccessibleMemberFailure{loc: loc, member: member}
}

func (f *InaccessibleMemberFailure) Locator() solver.Locator { return f.loc }

func (f *InaccessibleMemberFailure) DiagnoseAsError(cx *Context) bool {
	decl := cx.Decl(f.member)
	if decl == nil {
		return false
	}
	cx.ErrorAtAnchor(diag.TckInaccessibleMember,
		"%s '%s' is inaccessible due to '%s' protection level",
		decl.Kind, cx.DeclName(f.member), decl.Access).Emit()
	return true
}

// AllowTypeOrInstanceMemberFailure fires when a static member is accessed on
// an instance or an instance member on a type.
type AllowTypeOrInstanceMemberFailure struct {
	noNote
	loc    solver.Locator
	base   types.TypeID
	member symbols.DeclID
	name   source.StringID
}

// TypeOrInstanceMember builds the failure from the base type and the member
// that was found on the wrong side.
func TypeOrInstanceMember(loc solver.Locator, base types.TypeID, member symbols.DeclID, name source.StringID) *AllowTypeOrInstanceMemberFailure {
	return &AllowTypeOrInstanceMemberFailure{loc: loc, base: base, member: member, name: name}
}

func (f *AllowTypeOrInstanceMemberFailure) Locator() solver.Locator { return f.loc }

func (f *AllowTypeOrInstanceMemberFailure) DiagnoseAsError(cx *Context) bool {
	decl := cx.Decl(f.member)
	if decl == nil {
		return false
	}
	base := cx.ResolveType(f.base, false)
	onType := cx.Snap.Types.IsMetatype(base)
	name := cx.Name(f.name)

	switch {
	case decl.Has(symbols.FlagStatic) && !onType:
		b := cx.ErrorAtAnchor(diag.TckTypeOrInstanceMember,
			"static member '%s' cannot be used on instance of type '%s'",
			name, cx.TypeName(f.base))
		if member, ok := cx.Snap.Exprs.Member(cx.RawAnchor); ok {
			if owner := cx.Snap.Types.NominalName(decl.Owner); owner != "" {
				b.WithFix(fix.ReplaceSpan("use '"+owner+"' instead",
					cx.SpanOf(member.Base), owner, cx.Snippet(cx.SpanOf(member.Base))))
			}
		}
		b.Emit()
		return true

	case !decl.Has(symbols.FlagStatic) && onType:
		instance, _ := cx.Snap.Types.Lookup(cx.Snap.Types.Desugar(base))
		cx.ErrorAtAnchor(diag.TckTypeOrInstanceMember,
			"instance member '%s' cannot be used on type '%s'",
			name, cx.TypeName(instance.Elem)).Emit()
		return true
	}
	return false
}

// MissingMemberFailure fires when a member lookup finds nothing at all.
type MissingMemberFailure struct {
	noNote
	loc  solver.Locator
	base types.TypeID
	name source.StringID
}

// MissingMember builds the failure from the base type and the missing name.
func MissingMember(loc solver.Locator, base types.TypeID, name source.StringID) *MissingMemberFailure {
	return &MissingMemberFailure{loc: loc, base: base, name: name}
}

func (f *MissingMemberFailure) Locator() solver.Locator { return f.loc }

func (f *MissingMemberFailure) DiagnoseAsError(cx *Context) bool {
	base := cx.ResolveType(f.base, false)
	if cx.Snap.Types.IsMetatype(base) {
		instance, _ := cx.Snap.Types.Lookup(cx.Snap.Types.Desugar(base))
		cx.ErrorAtAnchor(diag.TckMissingMember,
			"type '%s' has no member '%s'",
			cx.TypeName(instance.Elem), cx.Name(f.name)).Emit()
		return true
	}
	cx.ErrorAtAnchor(diag.TckMissingMember,
		"value of type '%s' has no member '%s'",
		cx.TypeName(f.base), cx.Name(f.name)).Emit()
	return true
}

// PartialApplicationKind says which unapplied reference was formed.
type PartialApplicationKind uint8

const (
	// PartialMutatingMethod is an unapplied reference to a mutating method.
	PartialMutatingMethod PartialApplicationKind = iota
	// PartialSuperInit is an unapplied 'super.init' chain.
	PartialSuperInit
	// PartialSelfInit is an unapplied 'self.init' delegation.
	PartialSelfInit
)

func (k PartialApplicationKind) String() string {
	switch k {
	case PartialSuperInit:
		return "'super.init' initializer chain"
	case PartialSelfInit:
		return "'self.init' initializer delegation"
	default:
		return "'mutating' method"
	}
}

// PartialApplicationFailure fires when a method or initializer reference is
// formed without applying it, in a position where that is not allowed.
type PartialApplicationFailure struct {
	noNote
	loc  solver.Locator
	kind PartialApplicationKind
	// compatWarning downgrades the diagnostic to a warning for code accepted
	// by previous releases.
	compatWarning bool
}

// PartialApplication builds the failure.
func PartialApplication(loc solver.Locator, kind PartialApplicationKind, compatWarning bool) *PartialApplicationFailure {
	return &PartialApplicationFailure{loc: loc, kind: kind, compatWarning: compatWarning}
}

func (f *PartialApplicationFailure) Locator() solver.Locator { return f.loc }

func (f *PartialApplicationFailure) DiagnoseAsError(cx *Context) bool {
	if f.compatWarning {
		diag.ReportWarning(cx.Reporter, diag.TckPartialApplication, cx.SpanOf(cx.Anchor),
			"partial application of "+f.kind.String()+" is not allowed; calling the function has undefined behavior and will be an error in future versions").Emit()
		return true
	}
	cx.ErrorAtAnchor(diag.TckPartialApplication,
		"partial application of %s is not allowed", f.kind).Emit()
	return true
}

// InvalidDynamicInitOnMetatypeFailure fires when 'init' is called on a
// metatype value whose dynamic type may be a subclass, but the initializer is
// not 'required'.
type InvalidDynamicInitOnMetatypeFailure struct {
	noNote
	loc  solver.Locator
	base types.TypeID
	init symbols.DeclID
}

// InitOnMetatype builds the failure from the metatype base and the chosen
// initializer.
func InitOnMetatype(loc solver.Locator, base types.TypeID, init symbols.DeclID) *InvalidDynamicInitOnMetatypeFailure {
	return &InvalidDynamicInitOnMetatypeFailure{loc: loc, base: base, init: init}
}

func (f *InvalidDynamicInitOnMetatypeFailure) Locator() solver.Locator { return f.loc }

func (f *InvalidDynamicInitOnMetatypeFailure) DiagnoseAsError(cx *Context) bool {
	if decl := cx.Decl(f.init); decl != nil && decl.Has(symbols.FlagRequired) {
		return false
	}
	cx.ErrorAtAnchor(diag.TckInitOnMetatype,
		"constructing an object of class type '%s' with a metatype value must use a 'required' initializer",
		cx.TypeName(f.base)).Emit()
	return true
}

// InitOnProtocolMetatypeFailure fires when 'init' is called on a protocol
// metatype.
type InitOnProtocolMetatypeFailure struct {
	noNote
	loc  solver.Locator
	base types.TypeID
	// staticallyDerived is set when the metatype was spelled directly
	// (P.init) rather than reached through a value.
	staticallyDerived bool
}

// InitOnProtocolMetatype builds the failure.
func InitOnProtocolMetatype(loc solver.Locator, base types.TypeID, staticallyDerived bool) *InitOnProtocolMetatypeFailure {
	return &InitOnProtocolMetatypeFailure{loc: loc, base: base, staticallyDerived: staticallyDerived}
}

func (f *InitOnProtocolMetatypeFailure) Locator() solver.Locator { return f.loc }

func (f *InitOnProtocolMetatypeFailure) DiagnoseAsError(cx *Context) bool {
	if f.staticallyDerived {
		cx.ErrorAtAnchor(diag.TckInitOnProtocolMetatype,
			"protocol type '%s' cannot be instantiated; use a concrete type conforming to it instead",
			cx.TypeName(f.base)).Emit()
		return true
	}
	cx.ErrorAtAnchor(diag.TckInitOnProtocolMetatype,
		"initializer on a protocol metatype can only be used if the reference is statically derived",
		).Emit()
	return true
}

// ImplicitInitOnNonConstMetatypeFailure fires when a metatype value is called
// like a constructor without spelling '.init'.
type ImplicitInitOnNonConstMetatypeFailure struct {
	noNote
	loc  solver.Locator
	base types.TypeID
}

// ImplicitInitOnNonConstMetatype builds the failure.
func ImplicitInitOnNonConstMetatype(loc solver.Locator, base types.TypeID) *ImplicitInitOnNonConstMetatypeFailure {
	return &ImplicitInitOnNonConstMetatypeFailure{loc: loc, base: base}
}

func (f *ImplicitInitOnNonConstMetatypeFailure) Locator() solver.Locator { return f.loc }

func (f *ImplicitInitOnNonConstMetatypeFailure) DiagnoseAsError(cx *Context) bool {
	b := cx.ErrorAtAnchor(diag.TckImplicitInitOnNonConstMetatype,
		"initializing from a metatype value must reference 'init' explicitly")

	if data, ok := cx.Snap.Exprs.Call(cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)); ok {
		b.WithFix(fix.InsertText("insert '.init'",
			cx.SpanOf(data.Target).CollapseToEnd(), ".init", "", fix.Preferred()))
	}
	b.Emit()
	return true
}

// MissingCallFailure fires when a function or method reference appears where
// its result is needed and the call parentheses are missing.
type MissingCallFailure struct {
	noNote
	loc solver.Locator
}

// MissingCall builds the failure.
func MissingCall(loc solver.Locator) *MissingCallFailure {
	return &MissingCallFailure{loc: loc}
}

func (f *MissingCallFailure) Locator() solver.Locator { return f.loc }

func (f *MissingCallFailure) DiagnoseAsError(cx *Context) bool {
	kind := "function"
	if choice, ok := cx.ChoiceFor(cx.Anchor); ok {
		if decl := cx.Decl(choice.Decl); decl != nil && decl.Kind == symbols.DeclMethod {
			kind = "method"
		}
	}
	cx.ErrorAtAnchor(diag.TckMissingCall,
		"%s is unused; add '()' to call it", kind).
		WithFix(fix.InsertText("insert '()'", cx.SpanOf(cx.Anchor).CollapseToEnd(), "()", "", fix.Preferred())).
		Emit()
	return true
}

// SubscriptMisuseFailure fires when a subscript is referenced by name like a
// method instead of with brackets.
type SubscriptMisuseFailure struct {
	loc solver.Locator
}

// SubscriptMisuse builds the failure.
func SubscriptMisuse(loc solver.Locator) *SubscriptMisuseFailure {
	return &SubscriptMisuseFailure{loc: loc}
}

func (f *SubscriptMisuseFailure) Locator() solver.Locator { return f.loc }

func (f *SubscriptMisuseFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckSubscriptMisuse,
		"subscripts are accessed with '[]', not by calling 'subscript' directly").Emit()
	return true
}

func (f *SubscriptMisuseFailure) DiagnoseAsNote(cx *Context) bool {
	cx.Note(diag.TckCandidateNote, cx.SpanOf(cx.Anchor),
		"candidate is a subscript; use '[]' to access it").Emit()
	return true
}

// AutoClosureForwardingFailure fires when an autoclosure parameter is
// forwarded to another autoclosure parameter without being called.
type AutoClosureForwardingFailure struct {
	noNote
	loc solver.Locator
}

// AutoClosureForwarding builds the failure.
func AutoClosureForwarding(loc solver.Locator) *AutoClosureForwardingFailure {
	return &AutoClosureForwardingFailure{loc: loc}
}

func (f *AutoClosureForwardingFailure) Locator() solver.Locator { return f.loc }

func (f *AutoClosureForwardingFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckAutoClosureForwarding,
		"add '()' to forward the autoclosure parameter's value").
		WithFix(fix.InsertText("insert '()'", cx.SpanOf(cx.Anchor).CollapseToEnd(), "()", "", fix.Preferred())).
		Emit()
	return true
}

// ExtraneousReturnFailure fires when a value is returned from a function
// whose declared result type is the unit type.
type ExtraneousReturnFailure struct {
	noNote
	loc solver.Locator
}

// ExtraneousReturn builds the failure.
func ExtraneousReturn(loc solver.Locator) *ExtraneousReturnFailure {
	return &ExtraneousReturnFailure{loc: loc}
}

func (f *ExtraneousReturnFailure) Locator() solver.Locator { return f.loc }

func (f *ExtraneousReturnFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckExtraneousReturn,
		"unexpected non-void return value in void function").
		WithNote(cx.SpanOf(cx.Anchor), "did you mean to add a return type to the function?").
		Emit()
	return true
}
