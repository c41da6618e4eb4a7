package diagnose

import (
	"fmt"

	"cinder/internal/diag"
	"cinder/internal/solver"
	"cinder/internal/source"
)

// TrailingClosureAmbiguityFailure fires when several overloads rank equally
// for a call with a trailing closure. The error form always declines: the
// solver's ambiguity machinery owns the primary diagnostic, and this failure
// only supplies the candidate notes listed under it.
type TrailingClosureAmbiguityFailure struct {
	loc     solver.Locator
	choices []solver.OverloadChoice
}

// TrailingClosureAmbiguity builds the failure from the equally-ranked
// candidates.
func TrailingClosureAmbiguity(loc solver.Locator, choices []solver.OverloadChoice) *TrailingClosureAmbiguityFailure {
	return &TrailingClosureAmbiguityFailure{
		loc:     loc,
		choices: append([]solver.OverloadChoice(nil), choices...),
	}
}

func (f *TrailingClosureAmbiguityFailure) Locator() solver.Locator { return f.loc }

func (f *TrailingClosureAmbiguityFailure) DiagnoseAsError(*Context) bool { return false }

func (f *TrailingClosureAmbiguityFailure) DiagnoseAsNote(cx *Context) bool {
	if len(f.choices) == 0 {
		return false
	}
	b := cx.Note(diag.TckAmbiguousTrailingClosure, cx.SpanOf(cx.Anchor),
		"avoid using a trailing closure to disambiguate the call")
	for _, choice := range f.choices {
		param, ok := trailingClosureParam(cx, choice)
		if !ok {
			continue
		}
		b.WithNote(cx.SpanOf(cx.Anchor),
			fmt.Sprintf("candidate '%s' expects the closure for parameter '%s'",
				cx.DeclName(choice.Decl), param))
	}
	b.Emit()
	return true
}

// trailingClosureParam names the last function-typed parameter of a
// candidate, the one its trailing closure would bind to.
func trailingClosureParam(cx *Context, choice solver.OverloadChoice) (string, bool) {
	fn, ok := cx.Snap.Types.FuncOf(cx.ResolveType(choice.OpenedType, false))
	if !ok {
		return "", false
	}
	for i := len(fn.Params) - 1; i >= 0; i-- {
		p := fn.Params[i]
		if cx.Snap.Types.IsFunc(p.Type) {
			if p.Label != source.NoStringID {
				return cx.Name(p.Label), true
			}
			return fmt.Sprintf("#%d", i+1), true
		}
	}
	return "", false
}
