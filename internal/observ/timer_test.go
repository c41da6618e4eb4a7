package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerStages(t *testing.T) {
	timer := NewTimer()

	first := timer.Begin("materialize")
	timer.End(first, "")
	second := timer.Begin("diagnose")
	timer.End(second, "3 diagnostics")

	report := timer.Report()
	if len(report.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(report.Stages))
	}
	if report.Stages[0].Name != "materialize" || report.Stages[1].Name != "diagnose" {
		t.Fatalf("stage order = %q, %q", report.Stages[0].Name, report.Stages[1].Name)
	}
	if report.Stages[1].Note != "3 diagnostics" {
		t.Fatalf("note = %q, want %q", report.Stages[1].Note, "3 diagnostics")
	}

	var sum float64
	for _, s := range report.Stages {
		if s.DurationMS < 0 {
			t.Fatalf("stage %q has a negative duration", s.Name)
		}
		sum += s.DurationMS
	}
	if diff := report.TotalMS - sum; diff > 0.001 || diff < -0.001 {
		t.Fatalf("TotalMS = %f, want the sum of stage durations %f", report.TotalMS, sum)
	}
}

func TestTimerEndIgnoresBadIndex(t *testing.T) {
	timer := NewTimer()
	timer.End(-1, "")
	timer.End(3, "")
	if got := timer.Report(); len(got.Stages) != 0 {
		t.Fatalf("report = %+v, want empty", got)
	}
}

func TestReportSummaryLayout(t *testing.T) {
	report := Report{
		TotalMS: 3.5,
		Stages: []StageReport{
			{Name: "materialize", DurationMS: 1.25},
			{Name: "diagnose", DurationMS: 2.25, Note: "1 diagnostic"},
		},
	}

	summary := report.Summary()
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	if lines[0] != "timings:" {
		t.Fatalf("heading = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("summary has %d lines, want heading, two stages and a total:\n%s", len(lines), summary)
	}
	if !strings.Contains(lines[2], "// 1 diagnostic") {
		t.Fatalf("stage note missing from %q", lines[2])
	}
	if !strings.Contains(lines[3], "total") || !strings.Contains(lines[3], "3.50 ms") {
		t.Fatalf("total line = %q", lines[3])
	}
}

func TestDurationToMillis(t *testing.T) {
	if got := durationToMillis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("durationToMillis = %f, want 1.5", got)
	}
}
