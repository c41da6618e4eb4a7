// Package driver orchestrates diagnosis runs: one scenario file, or a whole
// directory of them in parallel. Each scenario is materialized into fresh
// stores, diagnosed once, and rendered into stable golden lines, so runs are
// deterministic and cacheable by content hash.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cinder/internal/diag"
	"cinder/internal/diagnose"
	"cinder/internal/observ"
	"cinder/internal/project"
	"cinder/internal/scenario"
	"cinder/internal/source"
	"cinder/internal/trace"
)

// defaultMaxDiagnostics bounds a Bag when no explicit cap is given.
const defaultMaxDiagnostics = 256

// Options tunes a diagnosis run. The zero value is usable: default
// diagnostic cap, dedup off, no cache, GOMAXPROCS workers.
type Options struct {
	// Max caps the per-scenario diagnostic count, 0 for the default cap.
	Max int
	// Dedup drops repeated (severity, code, span, message) diagnostics.
	Dedup bool
	// WithNotes includes notes in the golden rendering.
	WithNotes bool
	// Jobs bounds directory-run parallelism, 0 for GOMAXPROCS.
	Jobs int
	// Cache, when set, is consulted before diagnosing and updated after.
	Cache *DiskCache
	// Events, when set, receives one event per finished scenario.
	Events chan<- Event
	// Tracer, when set, receives per-scenario and per-stage spans.
	Tracer trace.Tracer
	// Timings enables per-stage wall-clock measurement on results.
	Timings bool
}

func (o Options) tracer() trace.Tracer {
	if o.Tracer == nil {
		return trace.Nop
	}
	return o.Tracer
}

// Event reports one finished scenario of a directory run.
type Event struct {
	Index int
	Total int
	Path  string
	// HasErrors mirrors Result.HasErrors; Err is a scenario-level failure
	// (unreadable file, malformed TOML), not a diagnostic.
	HasErrors bool
	Err       error
}

// Result is the outcome of diagnosing one scenario.
type Result struct {
	Path string
	Name string

	// Bag holds the collected diagnostics; nil on a cache hit.
	Bag *diag.Bag
	// Files backs span resolution for rendering; nil on a cache hit.
	Files *source.FileSet

	// Golden is the stable line rendering used for caching and --format short.
	Golden string
	// Emitted reports whether the failure produced a diagnostic at all.
	Emitted bool
	// HasErrors reports whether any error-severity diagnostic was emitted.
	HasErrors bool
	// FromCache marks results served from the disk cache.
	FromCache bool
	// Timings holds per-stage durations when Options.Timings is set.
	Timings *observ.Report
}

// DiagnoseScenario loads, materializes and diagnoses one scenario file.
func DiagnoseScenario(path string, opts Options) (*Result, error) {
	return diagnoseScenario(context.Background(), path, opts)
}

// diagnoseScenario is DiagnoseScenario with an explicit context. When
// Options.Tracer is unset the context's tracer is used, and the scenario span
// is parented under the context's span, so directory runs nest their
// scenarios under the driver span.
func diagnoseScenario(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(opts.tracer(), trace.ScopeScenario, "scenario:"+filepath.Base(path), trace.ParentSpan(ctx))

	data, err := os.ReadFile(path)
	if err != nil {
		span.End("read failed")
		return nil, err
	}

	key := cacheKey(data)
	if opts.Cache != nil {
		var payload DiskPayload
		ok, err := opts.Cache.Get(key, &payload)
		if err == nil && ok && payload.Schema == diskCacheSchemaVersion {
			span.End("cache hit")
			return &Result{
				Path:      path,
				Name:      payload.Name,
				Golden:    payload.Golden,
				Emitted:   payload.Emitted,
				HasErrors: payload.HasErrors,
				FromCache: true,
			}, nil
		}
		// Read errors invalidate silently; the scenario is re-diagnosed.
	}

	doc, err := scenario.Parse(string(data))
	if err != nil {
		span.End("parse failed")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res, err := runScenario(doc, opts, span.ID())
	if err != nil {
		span.End("materialize failed")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Path = path
	span.End(fmt.Sprintf("%d diagnostics", res.Bag.Len()))

	if opts.Cache != nil {
		payload := DiskPayload{
			Schema:    diskCacheSchemaVersion,
			Name:      res.Name,
			Golden:    res.Golden,
			Emitted:   res.Emitted,
			HasErrors: res.HasErrors,
		}
		if err := opts.Cache.Put(key, &payload); err != nil {
			return nil, fmt.Errorf("%s: failed to update disk cache: %w", path, err)
		}
	}
	return res, nil
}

// runScenario diagnoses an already-decoded document. parent is the enclosing
// scenario span, 0 when untraced.
func runScenario(doc *scenario.Document, opts Options, parent uint64) (*Result, error) {
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	stage := func(name string) func(note string) {
		span := trace.Begin(opts.tracer(), trace.ScopeStage, name, parent)
		idx := -1
		if timer != nil {
			idx = timer.Begin(name)
		}
		return func(note string) {
			span.End(note)
			if timer != nil {
				timer.End(idx, note)
			}
		}
	}

	done := stage("materialize")
	mat, err := doc.Materialize()
	if err != nil {
		done("failed")
		return nil, err
	}
	done("")

	maxDiags := opts.Max
	if maxDiags <= 0 {
		maxDiags = defaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)
	var reporter diag.Reporter = diag.BagReporter{Bag: bag}
	if opts.Dedup {
		reporter = diag.NewDedupReporter(reporter)
	}

	done = stage("diagnose")
	emitted := diagnose.Diagnose(mat.Snapshot, reporter, mat.Root, mat.Failure, mat.AsNote)
	bag.Sort()
	done(fmt.Sprintf("%d diagnostics", bag.Len()))

	done = stage("render")
	golden := diag.FormatGolden(bag.Items(), mat.Files, opts.WithNotes)
	done("")

	res := &Result{
		Name:      mat.Name,
		Bag:       bag,
		Files:     mat.Files,
		Golden:    golden,
		Emitted:   emitted,
		HasErrors: bag.HasErrors(),
	}
	if timer != nil {
		report := timer.Report()
		res.Timings = &report
	}
	return res, nil
}

// ListScenarios returns the sorted scenario files under dir. The project
// manifest is not a scenario and is skipped.
func ListScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".toml") {
			return nil
		}
		if filepath.Base(path) == project.ManifestName {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// DiagnoseDir diagnoses every scenario under dir in parallel. Results come
// back in path order regardless of completion order. A scenario-level failure
// cancels the run and is returned; diagnostics are not errors.
func DiagnoseDir(ctx context.Context, dir string, opts Options) ([]*Result, error) {
	files, err := ListScenarios(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	span := trace.Begin(opts.tracer(), trace.ScopeDriver, "diagnose-dir:"+dir, trace.ParentSpan(ctx))
	hb := trace.StartHeartbeat(opts.tracer(), time.Second)
	defer func() {
		hb.Stop()
		span.End(fmt.Sprintf("%d scenarios", len(files)))
	}()

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	gctx = trace.WithParentSpan(trace.WithTracer(gctx, opts.tracer()), span.ID())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := diagnoseScenario(gctx, path, opts)
			if opts.Events != nil {
				opts.Events <- Event{
					Index:     i,
					Total:     len(files),
					Path:      path,
					HasErrors: err == nil && res.HasErrors,
					Err:       err,
				}
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func cacheKey(content []byte) project.Digest {
	return project.Combine(project.HashBytes(content), schemaDigest())
}
