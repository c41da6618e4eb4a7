package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	d := cfg.Diagnostics
	if d.Format != "pretty" {
		t.Fatalf("Format = %q, want pretty", d.Format)
	}
	if !d.Dedup || !d.Color || !d.WithNotes {
		t.Fatalf("defaults = %+v, want dedup, color and notes enabled", d)
	}
	if d.Context != 1 {
		t.Fatalf("Context = %d, want 1", d.Context)
	}
	if d.Max != 0 || d.Jobs != 0 {
		t.Fatalf("Max = %d, Jobs = %d, want unlimited defaults", d.Max, d.Jobs)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[project]
name = "stdlib-corpus"

[diagnostics]
format = "short"
max = 10
dedup = false
jobs = 4
disk_cache = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Project.Name != "stdlib-corpus" {
		t.Fatalf("project name = %q", cfg.Project.Name)
	}
	d := cfg.Diagnostics
	if d.Format != "short" || d.Max != 10 || d.Dedup || d.Jobs != 4 || !d.DiskCache {
		t.Fatalf("overrides not applied: %+v", d)
	}
	// Untouched keys keep their defaults.
	if !d.Color || !d.WithNotes || d.Context != 1 {
		t.Fatalf("defaults lost on partial manifest: %+v", d)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown format",
			content: "[diagnostics]\nformat = \"fancy\"\n",
			wantErr: "format must be pretty, short or json",
		},
		{
			name:    "negative max",
			content: "[diagnostics]\nmax = -1\n",
			wantErr: "max must not be negative",
		},
		{
			name:    "negative jobs",
			content: "[diagnostics]\njobs = -2\n",
			wantErr: "jobs must not be negative",
		},
		{
			name:    "blank project name",
			content: "[project]\nname = \"  \"\n",
			wantErr: "name must not be blank",
		},
		{
			name:    "malformed TOML",
			content: "= broken",
			wantErr: "failed to parse TOML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("LoadConfig succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromDirWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[diagnostics]\nformat = \"json\"\n")
	nested := filepath.Join(root, "scenarios", "optionals")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, gotRoot, err := LoadConfigFromDir(nested)
	if err != nil {
		t.Fatalf("LoadConfigFromDir: %v", err)
	}
	if cfg.Diagnostics.Format != "json" {
		t.Fatalf("Format = %q, want json", cfg.Diagnostics.Format)
	}
	if gotRoot != root {
		t.Fatalf("root = %q, want %q", gotRoot, root)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	if !ok || got != root {
		t.Fatalf("root = %q, ok = %v; want %q", got, ok, root)
	}
}
