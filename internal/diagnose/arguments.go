package diagnose

import (
	"fmt"
	"sort"
	"strings"

	"cinder/internal/ast"
	"cinder/internal/diag"
	"cinder/internal/fix"
	"cinder/internal/solver"
	"cinder/internal/source"
	"cinder/internal/types"
)

// LabelingFailure fires when a call site's argument labels do not match the
// chosen parameter list. It carries the correct label per argument position,
// NoStringID for positions that must be unlabeled.
type LabelingFailure struct {
	noNote
	loc     solver.Locator
	correct []source.StringID
}

// ArgumentLabeling builds a labeling failure for the call the locator anchors.
func ArgumentLabeling(loc solver.Locator, correct []source.StringID) *LabelingFailure {
	return &LabelingFailure{loc: loc, correct: append([]source.StringID(nil), correct...)}
}

func (f *LabelingFailure) Locator() solver.Locator { return f.loc }

func (f *LabelingFailure) DiagnoseAsError(cx *Context) bool {
	apply := cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)
	args, ok := ast.ArgumentsFor(cx.Snap.Exprs, apply)
	if !ok || len(args) != len(f.correct) {
		return false
	}

	diffs := 0
	for i, arg := range args {
		if arg.Label != f.correct[i] {
			diffs++
		}
	}
	if diffs == 0 {
		return false
	}

	noun := "label"
	if diffs > 1 {
		noun = "labels"
	}
	b := cx.Error(diag.TckArgumentLabels, cx.SpanOf(apply),
		"incorrect argument %s in call (have '%s', expected '%s')",
		noun, labelSignature(cx, args), correctSignature(cx, f.correct))

	for i, arg := range args {
		want := f.correct[i]
		if arg.Label == want || want == source.NoStringID {
			// Removing a spurious label needs the label's own span, which the
			// expression tree does not keep; the message covers it.
			continue
		}
		if arg.Label == source.NoStringID {
			at := cx.SpanOf(arg.Value).CollapseToStart()
			b.WithFix(fix.InsertText(
				fmt.Sprintf("insert argument label '%s:'", cx.Name(want)),
				at, cx.Name(want)+": ", "",
			))
		}
	}
	b.Emit()
	return true
}

func labelSignature(cx *Context, args []ast.CallArg) string {
	var b strings.Builder
	for _, arg := range args {
		if arg.Label == source.NoStringID {
			b.WriteString("_:")
			continue
		}
		b.WriteString(cx.Name(arg.Label))
		b.WriteByte(':')
	}
	return b.String()
}

func correctSignature(cx *Context, labels []source.StringID) string {
	var b strings.Builder
	for _, l := range labels {
		if l == source.NoStringID {
			b.WriteString("_:")
			continue
		}
		b.WriteString(cx.Name(l))
		b.WriteByte(':')
	}
	return b.String()
}

// MissingArgumentsFailure fires when the solver had to synthesize arguments
// to make a call's shape match the chosen parameter list.
type MissingArgumentsFailure struct {
	noNote
	loc      solver.Locator
	funcType types.TypeID
	// missing holds the synthesized parameter positions.
	missing []int
}

// MissingArguments builds the failure; at least one synthesized position is
// required.
func MissingArguments(loc solver.Locator, funcType types.TypeID, missing []int) (*MissingArgumentsFailure, error) {
	if len(missing) == 0 {
		return nil, malformedLocator("missing arguments without synthesized positions", loc)
	}
	return &MissingArgumentsFailure{
		loc:      loc,
		funcType: funcType,
		missing:  append([]int(nil), missing...),
	}, nil
}

func (f *MissingArgumentsFailure) Locator() solver.Locator { return f.loc }

// NumSynthesized returns how many arguments the solver had to invent.
func (f *MissingArgumentsFailure) NumSynthesized() int { return len(f.missing) }

func (f *MissingArgumentsFailure) DiagnoseAsError(cx *Context) bool {
	fn, ok := cx.Snap.Types.FuncOf(cx.ResolveType(f.funcType, false))
	if !ok {
		return false
	}

	positions := append([]int(nil), f.missing...)
	sort.Ints(positions)

	names := make([]string, 0, len(positions))
	for _, i := range positions {
		if i < 0 || i >= len(fn.Params) {
			return false
		}
		p := fn.Params[i]
		if p.Label != source.NoStringID {
			names = append(names, fmt.Sprintf("'%s'", cx.Name(p.Label)))
		} else {
			names = append(names, fmt.Sprintf("#%d", i+1))
		}
	}

	if len(names) == 1 {
		cx.ErrorAtAnchor(diag.TckMissingArguments,
			"missing argument for parameter %s in call", names[0]).Emit()
	} else {
		cx.ErrorAtAnchor(diag.TckMissingArguments,
			"missing arguments for parameters %s in call", strings.Join(names, ", ")).Emit()
	}
	return true
}

// OutOfOrderArgumentFailure fires when a labeled argument appears after one
// it must precede.
type OutOfOrderArgumentFailure struct {
	noNote
	loc solver.Locator
	// argIdx is the argument that is out of place; prevArgIdx is the one it
	// must precede.
	argIdx     int
	prevArgIdx int
}

// OutOfOrderArgument builds the failure. The two positions must differ.
func OutOfOrderArgument(loc solver.Locator, argIdx, prevArgIdx int) (*OutOfOrderArgumentFailure, error) {
	if argIdx == prevArgIdx || argIdx < 0 || prevArgIdx < 0 {
		return nil, malformedLocator("out-of-order argument positions", loc)
	}
	return &OutOfOrderArgumentFailure{loc: loc, argIdx: argIdx, prevArgIdx: prevArgIdx}, nil
}

func (f *OutOfOrderArgumentFailure) Locator() solver.Locator { return f.loc }

func (f *OutOfOrderArgumentFailure) DiagnoseAsError(cx *Context) bool {
	apply := cx.Snap.Exprs.SemanticsProviding(cx.RawAnchor)
	args, ok := ast.ArgumentsFor(cx.Snap.Exprs, apply)
	if !ok || f.argIdx >= len(args) || f.prevArgIdx >= len(args) {
		return false
	}

	b := cx.Error(diag.TckOutOfOrderArgument, cx.SpanOf(args[f.argIdx].Value),
		"argument %s must precede argument %s",
		argumentName(cx, args[f.argIdx], f.argIdx),
		argumentName(cx, args[f.prevArgIdx], f.prevArgIdx))

	aSpan := cx.SpanOf(args[f.prevArgIdx].Value)
	bSpan := cx.SpanOf(args[f.argIdx].Value)
	aText := cx.Snippet(aSpan)
	bText := cx.Snippet(bSpan)
	if aText != "" && bText != "" {
		b.WithFix(fix.SwapSpans("reorder arguments", aSpan, aText, bSpan, bText, fix.Preferred()))
	}
	b.Emit()
	return true
}

func argumentName(cx *Context, arg ast.CallArg, pos int) string {
	if arg.Label != source.NoStringID {
		return fmt.Sprintf("'%s'", cx.Name(arg.Label))
	}
	return fmt.Sprintf("#%d", pos+1)
}

// ClosureParamDestructuringFailure fires when a closure declares several
// parameters but the context expects a single tuple parameter.
type ClosureParamDestructuringFailure struct {
	noNote
	loc        solver.Locator
	contextual types.TypeID
}

// ClosureParamDestructuring builds the failure for the contextual function
// type the closure must satisfy.
func ClosureParamDestructuring(loc solver.Locator, contextual types.TypeID) *ClosureParamDestructuringFailure {
	return &ClosureParamDestructuringFailure{loc: loc, contextual: contextual}
}

func (f *ClosureParamDestructuringFailure) Locator() solver.Locator { return f.loc }

func (f *ClosureParamDestructuringFailure) DiagnoseAsError(cx *Context) bool {
	if cx.Snap.Exprs.Kind(cx.Anchor) != ast.ExprClosure {
		return false
	}
	fn, ok := cx.Snap.Types.FuncOf(cx.ResolveType(f.contextual, false))
	if !ok || len(fn.Params) != 1 {
		return false
	}
	cx.ErrorAtAnchor(diag.TckClosureParamDestructuring,
		"closure tuple parameter '%s' does not support destructuring",
		cx.TypeName(fn.Params[0].Type)).Emit()
	return true
}
