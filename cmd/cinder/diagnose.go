package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinder/internal/diagfmt"
	"cinder/internal/driver"
	"cinder/internal/prof"
	"cinder/internal/project"
	"cinder/internal/trace"
)

// startProfiles enables the requested runtime profiles and returns a stop
// function that finalizes them.
func startProfiles(cmd *cobra.Command) (func(), error) {
	cpuPath, err := cmd.Flags().GetString("cpuprofile")
	if err != nil {
		return nil, err
	}
	memPath, err := cmd.Flags().GetString("memprofile")
	if err != nil {
		return nil, err
	}

	if cpuPath != "" {
		if err := prof.StartCPU(cpuPath); err != nil {
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}
	return func() {
		if cpuPath != "" {
			prof.StopCPU()
		}
		if memPath != "" {
			if err := prof.WriteMem(memPath); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write heap profile: %v\n", err)
			}
		}
	}, nil
}

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <scenario.toml|directory>",
	Short: "Diagnose a failure scenario or a directory of scenarios",
	Long:  `Materialize recorded solver failures and render the diagnostics they produce`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "", "output format (pretty|json|short)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("no-dedup", false, "keep repeated diagnostics instead of collapsing them")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	diagCmd.Flags().Bool("disk-cache", false, "cache per-scenario results on disk (short format only)")
	diagCmd.Flags().String("ui", "auto", "interactive progress for directory runs (auto|on|off)")
	diagCmd.Flags().Bool("timings", false, "print per-stage wall-clock timings to stderr")
	diagCmd.Flags().String("trace", "", "write trace events to a file ('-' for stderr)")
	diagCmd.Flags().String("trace-level", "scenario", "trace verbosity (off|error|scenario|stage|debug)")
	diagCmd.Flags().String("cpuprofile", "", "write a CPU profile to the given path")
	diagCmd.Flags().String("memprofile", "", "write a heap profile to the given path")
}

// diagSettings is the merge of cinder.toml defaults and command-line flags;
// flags win whenever they were set explicitly.
type diagSettings struct {
	format    string
	jobs      int
	max       int
	dedup     bool
	withNotes bool
	suggest   bool
	useColor  bool
	pathMode  diagfmt.PathMode
	diskCache bool
	ui        uiMode
	timings   bool
	tracePath string
	traceLvl  trace.Level
}

func resolveDiagSettings(cmd *cobra.Command, startDir string) (diagSettings, error) {
	cfg, _, err := project.LoadConfigFromDir(startDir)
	if err != nil {
		return diagSettings{}, err
	}
	d := cfg.Diagnostics

	s := diagSettings{
		format:    d.Format,
		jobs:      d.Jobs,
		max:       d.Max,
		dedup:     d.Dedup,
		withNotes: d.WithNotes,
		suggest:   d.Suggest,
		diskCache: d.DiskCache,
		pathMode:  diagfmt.PathModeAuto,
	}

	if cmd.Flags().Changed("format") {
		s.format, err = cmd.Flags().GetString("format")
		if err != nil {
			return diagSettings{}, err
		}
	}
	switch s.format {
	case "pretty", "json", "short":
	default:
		return diagSettings{}, fmt.Errorf("unknown format: %s", s.format)
	}

	if cmd.Flags().Changed("jobs") {
		s.jobs, err = cmd.Flags().GetInt("jobs")
		if err != nil {
			return diagSettings{}, err
		}
	}
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		s.max, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		if err != nil {
			return diagSettings{}, err
		}
	}
	if cmd.Flags().Changed("with-notes") {
		s.withNotes, err = cmd.Flags().GetBool("with-notes")
		if err != nil {
			return diagSettings{}, err
		}
	}
	if cmd.Flags().Changed("suggest") {
		s.suggest, err = cmd.Flags().GetBool("suggest")
		if err != nil {
			return diagSettings{}, err
		}
	}
	if cmd.Flags().Changed("no-dedup") {
		noDedup, err := cmd.Flags().GetBool("no-dedup")
		if err != nil {
			return diagSettings{}, err
		}
		s.dedup = !noDedup
	}
	if cmd.Flags().Changed("disk-cache") {
		s.diskCache, err = cmd.Flags().GetBool("disk-cache")
		if err != nil {
			return diagSettings{}, err
		}
	}

	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return diagSettings{}, err
	}
	if fullPath {
		s.pathMode = diagfmt.PathModeAbsolute
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return diagSettings{}, err
	}
	s.useColor = d.Color && colorFlag != "off"
	if colorFlag == "auto" {
		s.useColor = s.useColor && isTerminal(os.Stdout)
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return diagSettings{}, err
	}
	s.ui, err = readUIMode(uiFlag)
	if err != nil {
		return diagSettings{}, err
	}

	s.timings, err = cmd.Flags().GetBool("timings")
	if err != nil {
		return diagSettings{}, err
	}
	s.tracePath, err = cmd.Flags().GetString("trace")
	if err != nil {
		return diagSettings{}, err
	}
	levelFlag, err := cmd.Flags().GetString("trace-level")
	if err != nil {
		return diagSettings{}, err
	}
	s.traceLvl, err = trace.ParseLevel(levelFlag)
	if err != nil {
		return diagSettings{}, err
	}
	return s, nil
}

func (s diagSettings) driverOptions() (driver.Options, error) {
	opts := driver.Options{
		Max:       s.max,
		Dedup:     s.dedup,
		WithNotes: s.withNotes,
		Jobs:      s.jobs,
	}
	// The cache stores golden lines only, so richer formats always
	// re-materialize.
	if s.diskCache && s.format == "short" {
		cache, err := driver.OpenDiskCache("cinder")
		if err != nil {
			return driver.Options{}, fmt.Errorf("failed to open disk cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	target := args[0]

	st, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	startDir := target
	if !st.IsDir() {
		startDir = "."
	}
	settings, err := resolveDiagSettings(cmd, startDir)
	if err != nil {
		return err
	}
	opts, err := settings.driverOptions()
	if err != nil {
		return err
	}

	stopProfiles, err := startProfiles(cmd)
	if err != nil {
		return err
	}
	defer stopProfiles()

	if settings.tracePath != "" {
		tracer, err := trace.New(trace.Config{
			Level:      settings.traceLvl,
			Mode:       trace.ModeStream,
			OutputPath: settings.tracePath,
		})
		if err != nil {
			return err
		}
		defer tracer.Close() //nolint:errcheck
		opts.Tracer = tracer
	}
	opts.Timings = settings.timings

	var results []*driver.Result
	if st.IsDir() {
		results, err = diagnoseDir(cmd, target, settings, opts)
	} else {
		var res *driver.Result
		res, err = driver.DiagnoseScenario(target, opts)
		results = []*driver.Result{res}
	}
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	if err := renderResults(results, settings); err != nil {
		return err
	}

	if settings.timings {
		for _, r := range results {
			if r.Timings == nil {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s\n%s", r.Path, r.Timings.Summary())
		}
	}

	for _, r := range results {
		if r.HasErrors {
			// Diagnostics are already printed; suppress usage noise.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return fmt.Errorf("")
		}
	}
	return nil
}

func diagnoseDir(cmd *cobra.Command, dir string, settings diagSettings, opts driver.Options) ([]*driver.Result, error) {
	if shouldUseTUI(settings.ui) && settings.format != "json" {
		paths, err := driver.ListScenarios(dir)
		if err != nil {
			return nil, err
		}
		if len(paths) > 1 {
			return runDiagnoseDirWithUI(cmd.Context(), "diagnosing scenarios", dir, paths, opts)
		}
	}
	return driver.DiagnoseDir(cmd.Context(), dir, opts)
}

func renderResults(results []*driver.Result, settings diagSettings) error {
	switch settings.format {
	case "short":
		for _, r := range results {
			if r.Golden != "" {
				fmt.Fprintln(os.Stdout, r.Golden)
			}
		}
		return nil

	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     settings.useColor,
			Context:   2,
			PathMode:  settings.pathMode,
			ShowNotes: settings.withNotes,
			ShowFixes: settings.suggest,
		}
		for idx, r := range results {
			if idx > 0 {
				fmt.Fprintln(os.Stdout)
			}
			if len(results) > 1 {
				fmt.Fprintf(os.Stdout, "== %s ==\n", r.Path)
			}
			if r.Bag == nil {
				// Cache hits carry only golden lines.
				if r.Golden != "" {
					fmt.Fprintln(os.Stdout, r.Golden)
				}
				continue
			}
			diagfmt.Pretty(os.Stdout, r.Bag, r.Files, prettyOpts)
		}
		return nil

	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         settings.pathMode,
			Max:              settings.max,
			IncludeNotes:     settings.withNotes,
			IncludeFixes:     settings.suggest,
			IncludePreviews:  settings.suggest,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			if r.Bag == nil {
				continue
			}
			output[r.Path] = diagfmt.BuildDiagnosticsOutput(r.Bag, r.Files, jsonOpts)
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown format: %s", settings.format)
	}
}
