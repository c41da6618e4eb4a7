package trace

import (
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq issues the next event sequence number. Sequence numbers order
// events globally even when timestamps collide.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID issues a process-unique span ID.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// goroutineID parses the current goroutine's number out of its stack header,
// which starts "goroutine N [running]:". Parse failures report 0.
func goroutineID() uint64 {
	var buf [64]byte
	header := string(buf[:runtime.Stack(buf[:], false)])
	rest, ok := strings.CutPrefix(header, "goroutine ")
	if !ok {
		return 0
	}
	num, _, ok := strings.Cut(rest, " ")
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// inert is the span handed out when the tracer filters the scope; all of its
// methods no-op and ID reports 0.
var inert = &Span{}

// Span brackets one traced unit of work: Begin emits the opening event, End
// the closing one. A span has a single owner and is not safe for concurrent
// mutation.
type Span struct {
	tracer Tracer
	scope  Scope
	name   string

	id     uint64
	parent uint64
	gid    uint64

	started time.Time
	extra   map[string]string
}

// Begin opens a span under parent (0 for a root span) and emits its begin
// event. A disabled tracer, or one whose level excludes scope, yields an
// inert span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return inert
	}

	s := &Span{
		tracer:  t,
		scope:   scope,
		name:    name,
		id:      NextSpanID(),
		parent:  parent,
		gid:     goroutineID(),
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Seq:      NextSeq(),
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		GID:      s.gid,
		Name:     name,
	})
	return s
}

// End closes the span, emitting the end event with detail and any extras
// recorded along the way, and returns the wall-clock duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}

	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra attaches a key-value pair to the span's end event and returns the
// span for chaining.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span's ID, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
