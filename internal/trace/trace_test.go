package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestParseLevelRoundTrip(t *testing.T) {
	for _, l := range []Level{LevelOff, LevelError, LevelScenario, LevelStage, LevelDebug} {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", l, err)
		}
		if got != l {
			t.Fatalf("ParseLevel(%q) = %v", l, got)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("ParseLevel should reject unknown levels")
	}
	if got, err := ParseLevel("DEBUG"); err != nil || got != LevelDebug {
		t.Fatalf("ParseLevel(DEBUG) = %v, %v", got, err)
	}
}

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelScenario, ScopeScenario, true},
		{LevelScenario, ScopeStage, false},
		{LevelStage, ScopeStage, true},
		{LevelStage, ScopeDiag, false},
		{LevelDebug, ScopeDiag, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestRingTracerWrapsAround(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for i := 1; i <= 5; i++ {
		ring.Emit(&Event{Scope: ScopeStage, Kind: KindPoint, Name: fmt.Sprintf("ev%d", i)})
	}

	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(events))
	}
	for i, want := range []string{"ev3", "ev4", "ev5"} {
		if events[i].Name != want {
			t.Fatalf("events[%d] = %q, want %q", i, events[i].Name, want)
		}
	}
}

func TestRingTracerFiltersByLevel(t *testing.T) {
	ring := NewRingTracer(8, LevelScenario)
	ring.Emit(&Event{Scope: ScopeScenario, Kind: KindPoint, Name: "kept"})
	ring.Emit(&Event{Scope: ScopeDiag, Kind: KindPoint, Name: "dropped"})
	ring.Emit(&Event{Scope: ScopeDiag, Kind: KindHeartbeat, Name: "pulse"})

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("Snapshot len = %d, want 2 (heartbeats bypass the level)", len(events))
	}
	if events[0].Name != "kept" || events[1].Name != "pulse" {
		t.Fatalf("events = %v", events)
	}
}

func TestSpanEmitsBeginAndEnd(t *testing.T) {
	ring := NewRingTracer(8, LevelStage)

	sp := Begin(ring, ScopeStage, "diagnose", 0)
	sp.WithExtra("diags", "2")
	if sp.End("1 error") < 0 {
		t.Fatal("negative duration")
	}

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want begin+end", len(events))
	}
	begin, end := events[0], events[1]
	if begin.Kind != KindSpanBegin || end.Kind != KindSpanEnd {
		t.Fatalf("kinds = %v, %v", begin.Kind, end.Kind)
	}
	if begin.SpanID == 0 || begin.SpanID != end.SpanID {
		t.Fatalf("span ids = %d, %d", begin.SpanID, end.SpanID)
	}
	if end.Detail != "1 error" || end.Extra["diags"] != "2" {
		t.Fatalf("end event = %+v", end)
	}

	// A span below the tracer level is a no-op.
	quiet := Begin(ring, ScopeDiag, "per-diagnostic", 0)
	quiet.End("")
	if got := len(ring.Snapshot()); got != 2 {
		t.Fatalf("filtered span emitted events: %d", got)
	}
}

func TestContextCarriesTracerAndParent(t *testing.T) {
	var nilCtx context.Context
	if FromContext(nilCtx) != Nop {
		t.Fatal("nil context should yield the nop tracer")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatal("bare context should yield the nop tracer")
	}
	if ParentSpan(context.Background()) != 0 {
		t.Fatal("bare context should have no parent span")
	}

	ring := NewRingTracer(8, LevelDebug)
	ctx := WithParentSpan(WithTracer(context.Background(), ring), 42)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatal("tracer did not round-trip through the context")
	}
	if got := ParentSpan(ctx); got != 42 {
		t.Fatalf("ParentSpan = %d, want 42", got)
	}

	// A nil tracer degrades to the nop tracer rather than poisoning lookups.
	if FromContext(WithTracer(context.Background(), nil)) != Nop {
		t.Fatal("nil tracer should be stored as Nop")
	}
}

func TestSpanNestsUnderContextParent(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	outer := Begin(FromContext(ctx), ScopeDriver, "diagnose-dir", ParentSpan(ctx))
	ctx = WithParentSpan(ctx, outer.ID())
	inner := Begin(FromContext(ctx), ScopeScenario, "scenario:pad-call", ParentSpan(ctx))
	inner.End("")
	outer.End("")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].ParentID != 0 {
		t.Fatalf("outer span parent = %d, want 0", events[0].ParentID)
	}
	if events[1].ParentID != events[0].SpanID {
		t.Fatalf("inner span parent = %d, want %d", events[1].ParentID, events[0].SpanID)
	}
}

func TestFormatEventText(t *testing.T) {
	ev := &Event{
		Seq:    7,
		Kind:   KindSpanEnd,
		Scope:  ScopeStage,
		SpanID: 3,
		Name:   "render",
		Detail: "short",
	}
	got := string(FormatEvent(ev, FormatText))
	if !strings.Contains(got, "← render (short)") {
		t.Fatalf("text format = %q", got)
	}
	if !strings.HasPrefix(got, "[     7] ") {
		t.Fatalf("seq gutter = %q", got)
	}
}

func TestFormatEventNDJSON(t *testing.T) {
	ev := &Event{
		Time:   time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Seq:    1,
		Kind:   KindPoint,
		Scope:  ScopeDiag,
		SpanID: 9,
		Name:   "diagnostic",
		Extra:  map[string]string{"code": "TCK3002"},
	}
	line := FormatEvent(ev, FormatNDJSON)
	if !bytes.HasSuffix(line, []byte("\n")) {
		t.Fatal("NDJSON line must end with newline")
	}

	var decoded map[string]any
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["kind"] != "point" || decoded["scope"] != "diag" || decoded["name"] != "diagnostic" {
		t.Fatalf("decoded = %v", decoded)
	}
	extra, ok := decoded["extra"].(map[string]any)
	if !ok || extra["code"] != "TCK3002" {
		t.Fatalf("extra = %v", decoded["extra"])
	}
}

func TestStreamTracerWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelStage, FormatNDJSON)
	st.Emit(&Event{Scope: ScopeScenario, Kind: KindPoint, Name: "scenario:pad-call"})
	st.Emit(&Event{Scope: ScopeDiag, Kind: KindPoint, Name: "filtered"})
	if err := st.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "scenario:pad-call") {
		t.Fatalf("missing event: %q", out)
	}
	if strings.Contains(out, "filtered") {
		t.Fatalf("level filter leaked an event: %q", out)
	}
}
