package diag

import (
	"fmt"
	"sort"
	"strings"

	"cinder/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGolden renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden files and the CLI short output.
// Entries are sorted deterministically and returned as one string
// (empty when nothing remains).
func FormatGolden(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for _, d := range diags {
		rendered = appendGolden(rendered, d, fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for _, g := range rendered {
		fmt.Fprintf(&b, "%s:%d:%d: %s %s: %s\n",
			g.Path, g.Line, g.Column, g.Severity, g.Code, g.Message)
	}
	return b.String()
}

func appendGolden(dst []goldenDiagnostic, d Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	start, _ := fs.Resolve(d.Primary)
	path := fs.Get(d.Primary.File).FormatPath("auto", fs.BaseDir())
	dst = append(dst, goldenDiagnostic{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Path:     path,
		Line:     start.Line,
		Column:   start.Col,
		Message:  d.Message,
	})
	if !includeNotes {
		return dst
	}
	for _, n := range d.Notes {
		nstart, _ := fs.Resolve(n.Span)
		npath := fs.Get(n.Span.File).FormatPath("auto", fs.BaseDir())
		dst = append(dst, goldenDiagnostic{
			Severity: "NOTE",
			Code:     d.Code.ID(),
			Path:     npath,
			Line:     nstart.Line,
			Column:   nstart.Col,
			Message:  n.Msg,
		})
	}
	return dst
}
