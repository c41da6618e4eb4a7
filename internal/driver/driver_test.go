package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinder/internal/project"
	"cinder/internal/trace"
)

const padScenario = `
name = "pad-call"
source = "pad(s)"
root = "call"

[[exprs]]
id = "callee"
kind = "ident"
name = "pad"
span = [0, 3]

[[exprs]]
id = "s"
kind = "ident"
name = "s"
span = [4, 5]

[[exprs]]
id = "call"
kind = "call"
target = "callee"
span = [0, 6]

  [[exprs.args]]
  value = "s"

[failure]
variant = "missing-arguments"
func_type = "(s: String, count: Int) -> String"
missing = [1]

  [failure.locator]
  anchor = "call"
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiagnoseScenarioFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "pad.toml", padScenario)

	res, err := DiagnoseScenario(path, Options{})
	if err != nil {
		t.Fatalf("DiagnoseScenario: %v", err)
	}
	if res.Path != path {
		t.Fatalf("Path = %q, want %q", res.Path, path)
	}
	if res.Name != "pad-call" {
		t.Fatalf("Name = %q, want pad-call", res.Name)
	}
	if !res.Emitted || !res.HasErrors {
		t.Fatalf("Emitted = %v, HasErrors = %v, want both true", res.Emitted, res.HasErrors)
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("bag holds %d diagnostics, want 1", res.Bag.Len())
	}
	if !strings.Contains(res.Golden, "missing argument for parameter 'count' in call") {
		t.Fatalf("golden rendering %q misses the diagnostic message", res.Golden)
	}
	if res.FromCache {
		t.Fatal("uncached run flagged as a cache hit")
	}
}

func TestDiagnoseScenarioParseError(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "broken.toml", "name = \"x\"\n= nope")
	_, err := DiagnoseScenario(path, Options{})
	if err == nil {
		t.Fatal("malformed TOML diagnosed successfully")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error %v does not name the scenario file", err)
	}
}

func TestDiagnoseScenarioTimings(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "pad.toml", padScenario)

	res, err := DiagnoseScenario(path, Options{Timings: true})
	if err != nil {
		t.Fatalf("DiagnoseScenario: %v", err)
	}
	if res.Timings == nil {
		t.Fatal("timings requested but not attached to the result")
	}
	want := []string{"materialize", "diagnose", "render"}
	if len(res.Timings.Stages) != len(want) {
		t.Fatalf("stages = %d, want %d", len(res.Timings.Stages), len(want))
	}
	for i, stage := range res.Timings.Stages {
		if stage.Name != want[i] {
			t.Fatalf("stage[%d] = %q, want %q", i, stage.Name, want[i])
		}
	}

	// An untimed run must not pay for the report.
	res, err = DiagnoseScenario(path, Options{})
	if err != nil {
		t.Fatalf("DiagnoseScenario: %v", err)
	}
	if res.Timings != nil {
		t.Fatal("timings attached without being requested")
	}
}

func TestListScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.toml", padScenario)
	writeScenario(t, dir, "a.toml", padScenario)
	writeScenario(t, dir, project.ManifestName, "[diagnostics]\nformat = \"short\"\n")
	writeScenario(t, dir, "notes.txt", "not a scenario")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeScenario(t, sub, "c.toml", padScenario)

	files, err := ListScenarios(dir)
	if err != nil {
		t.Fatalf("ListScenarios: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.toml"),
		filepath.Join(dir, "b.toml"),
		filepath.Join(sub, "c.toml"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestDiagnoseDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "one.toml", padScenario)
	writeScenario(t, dir, "two.toml", strings.Replace(padScenario, "pad-call", "pad-again", 1))

	events := make(chan Event, 4)
	results, err := DiagnoseDir(context.Background(), dir, Options{Jobs: 2, Events: events})
	if err != nil {
		t.Fatalf("DiagnoseDir: %v", err)
	}
	close(events)

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// Path order, not completion order.
	if results[0].Name != "pad-call" || results[1].Name != "pad-again" {
		t.Fatalf("result order = %q, %q", results[0].Name, results[1].Name)
	}

	seen := 0
	for ev := range events {
		seen++
		if ev.Total != 2 {
			t.Fatalf("event total = %d, want 2", ev.Total)
		}
		if ev.Err != nil {
			t.Fatalf("event error: %v", ev.Err)
		}
		if !ev.HasErrors {
			t.Fatalf("event for %s lost the error flag", ev.Path)
		}
	}
	if seen != 2 {
		t.Fatalf("received %d events, want 2", seen)
	}
}

func TestDiagnoseDirNestsScenarioSpans(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "one.toml", padScenario)
	writeScenario(t, dir, "two.toml", strings.Replace(padScenario, "pad-call", "pad-again", 1))

	ring := trace.NewRingTracer(64, trace.LevelScenario)
	if _, err := DiagnoseDir(context.Background(), dir, Options{Jobs: 2, Tracer: ring}); err != nil {
		t.Fatalf("DiagnoseDir: %v", err)
	}

	var driverID uint64
	scenarios := 0
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanBegin {
			continue
		}
		switch ev.Scope {
		case trace.ScopeDriver:
			driverID = ev.SpanID
		case trace.ScopeScenario:
			scenarios++
			if driverID == 0 || ev.ParentID != driverID {
				t.Fatalf("scenario span %q parent = %d, want driver span %d", ev.Name, ev.ParentID, driverID)
			}
		}
	}
	if scenarios != 2 {
		t.Fatalf("saw %d scenario spans, want 2", scenarios)
	}
}

func TestDiagnoseDirEmpty(t *testing.T) {
	results, err := DiagnoseDir(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("DiagnoseDir: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil for an empty directory", results)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cache, err := OpenDiskCache("cinder-test")
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}

	key := project.HashBytes([]byte("scenario body"))
	in := DiskPayload{
		Schema:    diskCacheSchemaVersion,
		Name:      "cached",
		Golden:    "x.toml:1:1: ERROR TCK3011: missing argument\n",
		Emitted:   true,
		HasErrors: true,
	}
	if err := cache.Put(key, &in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out DiskPayload
	ok, err := cache.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v; want a hit", ok, err)
	}
	if out != in {
		t.Fatalf("payload round trip = %+v, want %+v", out, in)
	}

	miss := project.HashBytes([]byte("different body"))
	ok, err = cache.Get(miss, &out)
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if ok {
		t.Fatal("unrelated key hit the cache")
	}
}

func TestDiagnoseScenarioServedFromCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("cinder-test")
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	path := writeScenario(t, t.TempDir(), "pad.toml", padScenario)
	opts := Options{Cache: cache, WithNotes: true}

	first, err := DiagnoseScenario(path, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.FromCache {
		t.Fatal("first run hit a cold cache")
	}

	second, err := DiagnoseScenario(path, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second run missed the cache")
	}
	if second.Bag != nil || second.Files != nil {
		t.Fatal("cache hit carries materialized state")
	}
	if second.Golden != first.Golden || second.HasErrors != first.HasErrors || second.Emitted != first.Emitted {
		t.Fatal("cached result disagrees with the original run")
	}

	// Changing the content must invalidate the entry.
	writeScenario(t, filepath.Dir(path), "pad.toml", strings.Replace(padScenario, "missing = [1]", "missing = [0]", 1))
	third, err := DiagnoseScenario(path, opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.FromCache {
		t.Fatal("stale cache entry served after the scenario changed")
	}
	if !strings.Contains(third.Golden, "'s'") {
		t.Fatalf("golden = %q, want the re-diagnosed parameter", third.Golden)
	}
}
