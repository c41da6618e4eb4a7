package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DiagnosticsConfig holds the [diagnostics] defaults of cinder.toml. Every
// field has a CLI flag of the same meaning; flags win over the manifest.
type DiagnosticsConfig struct {
	// Format selects the renderer: pretty, short or json.
	Format string `toml:"format"`
	// Max caps the number of reported diagnostics, 0 for unlimited.
	Max int `toml:"max"`
	// Dedup drops repeated (code, span, message) triples.
	Dedup bool `toml:"dedup"`
	// Color controls ANSI styling of the pretty renderer.
	Color bool `toml:"color"`
	// Context is the number of source lines around the primary span.
	Context int `toml:"context"`
	// WithNotes includes attached notes in the output.
	WithNotes bool `toml:"with_notes"`
	// Suggest includes fix-it edits in the output.
	Suggest bool `toml:"suggest"`
	// Jobs bounds directory-run parallelism, 0 for GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// DiskCache enables the on-disk scenario result cache.
	DiskCache bool `toml:"disk_cache"`
}

// Config is the decoded cinder.toml.
type Config struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

// DefaultConfig returns the settings used when no manifest exists.
func DefaultConfig() Config {
	var cfg Config
	cfg.Diagnostics = DiagnosticsConfig{
		Format:    "pretty",
		Dedup:     true,
		Color:     true,
		Context:   1,
		WithNotes: true,
	}
	return cfg
}

// LoadConfig reads and validates a cinder.toml.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("diagnostics", "format") {
		switch cfg.Diagnostics.Format {
		case "pretty", "short", "json":
		default:
			return Config{}, fmt.Errorf("%s: [diagnostics].format must be pretty, short or json, got %q",
				path, cfg.Diagnostics.Format)
		}
	}
	if cfg.Diagnostics.Max < 0 {
		return Config{}, fmt.Errorf("%s: [diagnostics].max must not be negative", path)
	}
	if cfg.Diagnostics.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [diagnostics].jobs must not be negative", path)
	}
	if meta.IsDefined("project", "name") && strings.TrimSpace(cfg.Project.Name) == "" {
		return Config{}, fmt.Errorf("%s: [project].name must not be blank", path)
	}
	return cfg, nil
}

// LoadConfigFromDir walks up from startDir and loads the nearest manifest,
// falling back to defaults when none exists. The returned root is the
// manifest's directory, "" without one.
func LoadConfigFromDir(startDir string) (Config, string, error) {
	path, ok, err := FindCinderToml(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return DefaultConfig(), "", nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, filepath.Dir(path), nil
}
