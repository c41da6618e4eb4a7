package diagnose

import (
	"cinder/internal/diag"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/symbols"
	"cinder/internal/types"
)

// AnyObjectKeyPathRootFailure fires when a key path literal is rooted in a
// dynamic reference type instead of a concrete one.
type AnyObjectKeyPathRootFailure struct {
	noNote
	loc solver.Locator
}

// AnyObjectKeyPathRoot builds the failure.
func AnyObjectKeyPathRoot(loc solver.Locator) *AnyObjectKeyPathRootFailure {
	return &AnyObjectKeyPathRootFailure{loc: loc}
}

func (f *AnyObjectKeyPathRootFailure) Locator() solver.Locator { return f.loc }

func (f *AnyObjectKeyPathRootFailure) DiagnoseAsError(cx *Context) bool {
	cx.ErrorAtAnchor(diag.TckKeyPathDynamicRoot,
		"a key path cannot be rooted in a dynamic reference type").Emit()
	return true
}

// KeyPathSubscriptIndexHashableFailure fires when a key path subscript
// component uses an index type without a hashability guarantee.
type KeyPathSubscriptIndexHashableFailure struct {
	noNote
	loc   solver.Locator
	index types.TypeID
}

// KeyPathSubscriptIndexHashable builds the failure; the locator must point at
// a key path component.
func KeyPathSubscriptIndexHashable(loc solver.Locator, index types.TypeID) (*KeyPathSubscriptIndexHashableFailure, error) {
	if !loc.IsKeyPathComponent() {
		return nil, malformedLocator("key path subscript index failure", loc)
	}
	return &KeyPathSubscriptIndexHashableFailure{loc: loc, index: index}, nil
}

func (f *KeyPathSubscriptIndexHashableFailure) Locator() solver.Locator { return f.loc }

func (f *KeyPathSubscriptIndexHashableFailure) DiagnoseAsError(cx *Context) bool {
	sp, ok := keyPathComponentSpan(cx, f.loc)
	if !ok {
		sp = cx.SpanOf(cx.Anchor)
	}
	cx.Error(diag.TckKeyPathSubscriptIndexHashable, sp,
		"subscript index of type '%s' in a key path must be Hashable", cx.TypeName(f.index)).Emit()
	return true
}

// invalidMemberInKeyPath is the shared base for member references a key path
// cannot contain. The member must be a named declaration.
type invalidMemberInKeyPath struct {
	noNote
	loc    solver.Locator
	member symbols.DeclID
}

func newInvalidMemberInKeyPath(loc solver.Locator, member symbols.DeclID) (invalidMemberInKeyPath, error) {
	if !member.IsValid() {
		return invalidMemberInKeyPath{}, malformedLocator("key path member failure without declaration", loc)
	}
	return invalidMemberInKeyPath{loc: loc, member: member}, nil
}

func (f *invalidMemberInKeyPath) Locator() solver.Locator { return f.loc }

func (f *invalidMemberInKeyPath) componentSpan(cx *Context) source.Span {
	if sp, ok := keyPathComponentSpan(cx, f.loc); ok {
		return sp
	}
	return cx.SpanOf(cx.Anchor)
}

// InvalidStaticMemberRefInKeyPath fires for static members in key paths.
type InvalidStaticMemberRefInKeyPath struct {
	invalidMemberInKeyPath
}

// StaticMemberInKeyPath builds the failure for a named static member.
func StaticMemberInKeyPath(loc solver.Locator, member symbols.DeclID) (*InvalidStaticMemberRefInKeyPath, error) {
	base, err := newInvalidMemberInKeyPath(loc, member)
	if err != nil {
		return nil, err
	}
	return &InvalidStaticMemberRefInKeyPath{base}, nil
}

func (f *InvalidStaticMemberRefInKeyPath) DiagnoseAsError(cx *Context) bool {
	cx.Error(diag.TckKeyPathStaticMember, f.componentSpan(cx),
		"key path cannot refer to static member '%s'", cx.DeclName(f.member)).Emit()
	return true
}

// InvalidMemberWithMutatingGetterInKeyPath fires for members whose getter
// mutates the base.
type InvalidMemberWithMutatingGetterInKeyPath struct {
	invalidMemberInKeyPath
}

// MutatingGetterInKeyPath builds the failure for a named member with a
// mutating getter.
func MutatingGetterInKeyPath(loc solver.Locator, member symbols.DeclID) (*InvalidMemberWithMutatingGetterInKeyPath, error) {
	base, err := newInvalidMemberInKeyPath(loc, member)
	if err != nil {
		return nil, err
	}
	return &InvalidMemberWithMutatingGetterInKeyPath{base}, nil
}

func (f *InvalidMemberWithMutatingGetterInKeyPath) DiagnoseAsError(cx *Context) bool {
	cx.Error(diag.TckKeyPathMutatingGetter, f.componentSpan(cx),
		"key path cannot refer to '%s', which has a mutating getter", cx.DeclName(f.member)).Emit()
	return true
}

// InvalidMethodRefInKeyPath fires for method references in key paths.
type InvalidMethodRefInKeyPath struct {
	invalidMemberInKeyPath
}

// MethodInKeyPath builds the failure for a named method.
func MethodInKeyPath(loc solver.Locator, member symbols.DeclID) (*InvalidMethodRefInKeyPath, error) {
	base, err := newInvalidMemberInKeyPath(loc, member)
	if err != nil {
		return nil, err
	}
	return &InvalidMethodRefInKeyPath{base}, nil
}

func (f *InvalidMethodRefInKeyPath) DiagnoseAsError(cx *Context) bool {
	cx.Error(diag.TckKeyPathMethod, f.componentSpan(cx),
		"key path cannot refer to method '%s'", cx.DeclName(f.member)).Emit()
	return true
}

// keyPathComponentSpan resolves the span of the component the locator's final
// key-path-component element points at.
func keyPathComponentSpan(cx *Context, loc solver.Locator) (source.Span, bool) {
	last, ok := loc.Last()
	if !ok || last.Kind != solver.ElemKeyPathComponent {
		return source.Span{}, false
	}
	data, isKeyPath := cx.Snap.Exprs.KeyPath(cx.Snap.Exprs.SemanticsProviding(loc.Anchor))
	if !isKeyPath {
		return source.Span{}, false
	}
	i := int(last.Value)
	if i < 0 || i >= len(data.Components) {
		return source.Span{}, false
	}
	return data.Components[i].Span, true
}
