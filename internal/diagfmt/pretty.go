package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cinder/internal/diag"
	"cinder/internal/source"
)

// Pretty renders diagnostics in a human-readable form, one block per
// diagnostic:
//
//	<path>:<line>:<col>: <severity> [<code>]: <message>
//	  <line> | <source text>
//	         |   ^~~~~~
//
// followed by notes and fix titles. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.printDiagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) printDiagnostic(d diag.Diagnostic) {
	p.printHeader(d.Severity, d.Code, d.Message, d.Primary)
	p.printExcerpt(d.Primary, p.opts.Context)

	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			p.printHeader(diag.SevNote, 0, note.Msg, note.Span)
			p.printExcerpt(note.Span, 0)
		}
	}
	if p.opts.ShowFixes {
		for _, f := range d.Fixes {
			marker := "fix"
			if f.IsPreferred {
				marker = "fix*"
			}
			fmt.Fprintf(p.w, "  %s: %s\n", p.paint(colorNote, marker), f.Title)
		}
	}
}

func (p *prettyPrinter) printHeader(sev diag.Severity, code diag.Code, msg string, sp source.Span) {
	start, _ := p.fs.Resolve(sp)
	label := sev.String()
	if code != diag.UnknownCode {
		label = fmt.Sprintf("%s [%s]", sev, code.ID())
	}
	fmt.Fprintf(p.w, "%s:%d:%d: %s: %s\n",
		p.path(sp.File), start.Line, start.Col,
		p.paint(severityColor(sev), label),
		p.paint(colorBold, msg))
}

// printExcerpt prints the primary line with a caret underline plus context
// lines around it.
func (p *prettyPrinter) printExcerpt(sp source.Span, context int) {
	file := p.fs.Get(sp.File)
	if file == nil {
		return
	}
	start, end := p.fs.Resolve(sp)

	first := int(start.Line) - context
	if first < 1 {
		first = 1
	}
	last := int(start.Line) + context

	gutter := len(fmt.Sprintf("%d", last))
	for lineNum := first; lineNum <= last; lineNum++ {
		text := file.GetLine(uint32(lineNum))
		if text == "" && lineNum != int(start.Line) {
			continue
		}
		text = strings.TrimRight(text, "\n")
		fmt.Fprintf(p.w, "  %*d | %s\n", gutter, lineNum, text)

		if lineNum != int(start.Line) {
			continue
		}
		prefix := prefixWidth(text, int(start.Col)-1)
		width := underlineWidth(text, int(start.Col)-1, int(end.Col)-1, start.Line == end.Line)
		fmt.Fprintf(p.w, "  %*s | %s%s\n", gutter, "",
			strings.Repeat(" ", prefix),
			p.paint(colorCaret, "^"+strings.Repeat("~", width-1)))
	}
}

// prefixWidth measures the display width of the text before the caret,
// accounting for tabs and wide runes.
func prefixWidth(line string, col int) int {
	if col < 0 {
		return 0
	}
	width := 0
	for i, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			width += 4
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	return width
}

// underlineWidth measures the display width of the underlined region, at
// least 1.
func underlineWidth(line string, startCol, endCol int, sameLine bool) int {
	if !sameLine || endCol <= startCol {
		return 1
	}
	width := 0
	for i, r := range line {
		if i < startCol {
			continue
		}
		if i >= endCol {
			break
		}
		if r == '\t' {
			width += 4
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	if width < 1 {
		width = 1
	}
	return width
}

func (p *prettyPrinter) path(id source.FileID) string {
	file := p.fs.Get(id)
	if file == nil {
		return "<unknown>"
	}
	switch p.opts.PathMode {
	case PathModeAbsolute:
		return file.FormatPath("absolute", "")
	case PathModeRelative:
		return file.FormatPath("relative", p.fs.BaseDir())
	case PathModeBasename:
		return file.FormatPath("basename", "")
	default:
		return file.FormatPath("auto", p.fs.BaseDir())
	}
}

type paintKind uint8

const (
	colorBold paintKind = iota
	colorError
	colorWarning
	colorNote
	colorCaret
)

var paints = map[paintKind]*color.Color{
	colorBold:    color.New(color.Bold),
	colorError:   color.New(color.FgRed, color.Bold),
	colorWarning: color.New(color.FgYellow, color.Bold),
	colorNote:    color.New(color.FgCyan),
	colorCaret:   color.New(color.FgGreen, color.Bold),
}

func severityColor(sev diag.Severity) paintKind {
	switch sev {
	case diag.SevError:
		return colorError
	case diag.SevWarning:
		return colorWarning
	default:
		return colorNote
	}
}

func (p *prettyPrinter) paint(kind paintKind, s string) string {
	if !p.opts.Color {
		return s
	}
	return paints[kind].Sprint(s)
}
