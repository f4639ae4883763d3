// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pyzbuild/pyzbuild/internal/issue"
	"github.com/pyzbuild/pyzbuild/pkg/cueutil"
)

const minimalProject = `
[project]
name = "my-app"
version = "0.0.1"
dependencies = ["flask"]

[tool.hatch.build.targets.pyz]
main = "my_app.app:main"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", ProjectFileName, err)
	}
	return dir
}

func load(t *testing.T, opts LoadOptions) (*BuildConfig, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, minimalProject)
	cfg, err := load(t, LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "my-app" || cfg.NormalizedName != "my-app" || cfg.Version != "0.0.1" {
		t.Errorf("project metadata = %q %q %q", cfg.Name, cfg.NormalizedName, cfg.Version)
	}
	if !slices.Equal(cfg.Dependencies, []string{"flask"}) {
		t.Errorf("Dependencies = %v, want [flask]", cfg.Dependencies)
	}
	if cfg.Interpreter != DefaultInterpreter {
		t.Errorf("Interpreter = %q, want %q", cfg.Interpreter, DefaultInterpreter)
	}
	if !cfg.Compressed || !cfg.Reproducible || !cfg.BundleDependencies {
		t.Errorf("flags = %v %v %v, want all true", cfg.Compressed, cfg.Reproducible, cfg.BundleDependencies)
	}
	if cfg.OutputDir != filepath.Join(cfg.Root, DefaultOutputDir) {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Installer != DefaultInstaller {
		t.Errorf("Installer = %q", cfg.Installer)
	}
	if cfg.HasExplicitSelection() {
		t.Error("HasExplicitSelection() = true, want false")
	}
	if os.Getenv(SourceDateEpochEnv) == "" && cfg.SourceDateEpoch != DefaultSourceDateEpoch {
		t.Errorf("SourceDateEpoch = %d, want %d", cfg.SourceDateEpoch, DefaultSourceDateEpoch)
	}
}

func TestLoad_TargetOverridesBuild(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, `
[project]
name = "my-app"
version = "1.2.3"

[tool.hatch.build]
main = "my_app.app:main"
interpreter = "/usr/bin/python3.11"
compressed = false
reproducible = false
packages = ["src/shared"]

[tool.hatch.build.force-include]
"LICENSE" = "LICENSE.txt"
"NOTICE" = "NOTICE"

[tool.hatch.build.targets.pyz]
compressed = true
packages = ["src/my_app"]
exclude = ["tests/"]

[tool.hatch.build.targets.pyz.force-include]
"NOTICE" = "docs/NOTICE"
`)

	cfg, err := load(t, LoadOptions{ProjectDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Main != "my_app.app:main" {
		t.Errorf("Main = %q, want build-level value", cfg.Main)
	}
	if cfg.Interpreter != "/usr/bin/python3.11" {
		t.Errorf("Interpreter = %q, want build-level value", cfg.Interpreter)
	}
	if !cfg.Compressed {
		t.Error("Compressed should be overridden to true by the target")
	}
	if cfg.Reproducible {
		t.Error("Reproducible should keep the build-level false")
	}
	if !slices.Equal(cfg.Packages, []string{"src/my_app"}) {
		t.Errorf("Packages = %v, want target-level value", cfg.Packages)
	}
	if !slices.Equal(cfg.Exclude, []string{"tests/"}) {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if cfg.ForceInclude["LICENSE"] != "LICENSE.txt" || cfg.ForceInclude["NOTICE"] != "docs/NOTICE" {
		t.Errorf("ForceInclude = %v", cfg.ForceInclude)
	}
}

func TestLoad_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		target    string
		wantPath  string
		wantMatch error
	}{
		{
			name:     "main without callable",
			target:   `main = "my_app.app"`,
			wantPath: "main",
		},
		{
			name:     "compressed is not a bool",
			target:   "main = \"my_app.app:main\"\ncompressed = \"yes\"",
			wantPath: "compressed",
		},
		{
			name:     "include is not a list",
			target:   "main = \"my_app.app:main\"\ninclude = \"src\"",
			wantPath: "include",
		},
		{
			name:      "main missing",
			target:    `compressed = true`,
			wantMatch: ErrInvalidEntryPoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeProject(t, "[project]\nname = \"a\"\nversion = \"1\"\n\n[tool.hatch.build.targets.pyz]\n"+tt.target+"\n")
			_, err := load(t, LoadOptions{ProjectDir: dir})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got: %v", err)
			}
			if tt.wantMatch != nil && !errors.Is(err, tt.wantMatch) {
				t.Errorf("error should wrap %v, got: %v", tt.wantMatch, err)
			}
			if tt.wantPath != "" {
				var ve *cueutil.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("error should carry a *cueutil.ValidationError, got: %v", err)
				}
				if !strings.Contains(ve.Error(), tt.wantPath) {
					t.Errorf("validation error should name %q, got: %v", tt.wantPath, ve)
				}
			}
		})
	}
}

func TestLoad_ProjectTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing project table", content: "[tool.hatch.build.targets.pyz]\nmain = \"a:b\"\n"},
		{name: "missing version", content: "[project]\nname = \"a\"\n"},
		{name: "empty name", content: "[project]\nname = \"\"\nversion = \"1\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := load(t, LoadOptions{ProjectDir: writeProject(t, tt.content)})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_MissingProjectFile(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ProjectDir: t.TempDir()})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error type = %T, want *issue.ActionableError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist, got: %v", err)
	}
	if !ae.HasSuggestions() {
		t.Error("missing pyproject.toml should come with suggestions")
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ProjectDir: writeProject(t, "[project\nname = 1")})
	if err == nil || !strings.Contains(err.Error(), "line ") {
		t.Errorf("Load() error = %v, want a positioned TOML error", err)
	}
}

func TestLoad_LoadOptionOverrides(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, minimalProject)
	out := filepath.Join(t.TempDir(), "artifacts")

	cfg, err := load(t, LoadOptions{ProjectDir: dir, OutputDir: out, NoDeps: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != out {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, out)
	}
	if cfg.BundleDependencies {
		t.Error("NoDeps should disable BundleDependencies")
	}
}

func TestLoad_InvalidLoadOptions(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ProjectDir: t.TempDir(), EnvFile: "  "})
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Errorf("Load() error = %v, want ErrInvalidLoadOptions", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider().Load(ctx, LoadOptions{ProjectDir: writeProject(t, minimalProject)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PYZBUILD_REPRODUCIBLE", "false")
	t.Setenv("PYZBUILD_BUNDLE_DEPENDENCIES", "0")
	t.Setenv("PYZBUILD_INTERPRETER", "/opt/python/bin/python3")
	t.Setenv(SourceDateEpochEnv, "1700000000")

	cfg, err := load(t, LoadOptions{ProjectDir: writeProject(t, minimalProject)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reproducible || cfg.BundleDependencies {
		t.Errorf("Reproducible=%v BundleDependencies=%v, want both false", cfg.Reproducible, cfg.BundleDependencies)
	}
	if cfg.Interpreter != "/opt/python/bin/python3" {
		t.Errorf("Interpreter = %q", cfg.Interpreter)
	}
	if cfg.SourceDateEpoch != 1700000000 {
		t.Errorf("SourceDateEpoch = %d, want 1700000000", cfg.SourceDateEpoch)
	}
}

func TestLoad_EnvironmentInvalidBool(t *testing.T) {
	t.Setenv("PYZBUILD_COMPRESSED", "maybe")

	_, err := load(t, LoadOptions{ProjectDir: writeProject(t, minimalProject)})
	if !errors.Is(err, ErrInvalidConfig) || !strings.Contains(err.Error(), "compressed") {
		t.Errorf("Load() error = %v, want ConfigError naming compressed", err)
	}
}

func TestLoad_SourceDateEpochBefore1980(t *testing.T) {
	for _, epoch := range []string{"0", "-5", "315532799"} {
		t.Run(epoch, func(t *testing.T) {
			t.Setenv(SourceDateEpochEnv, epoch)

			_, err := load(t, LoadOptions{ProjectDir: writeProject(t, minimalProject)})
			if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrInvalidSourceDateEpoch) {
				t.Errorf("Load() error = %v, want ConfigError with ErrInvalidSourceDateEpoch", err)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv(SourceDateEpochEnv, "")
	os.Unsetenv(SourceDateEpochEnv)

	dir := writeProject(t, minimalProject)
	envFile := filepath.Join(t.TempDir(), "build.env")
	content := "SOURCE_DATE_EPOCH=1600000000\nPIP_INDEX_URL=https://pypi.example.com/simple\nPYZBUILD_COMPRESSED=false\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, LoadOptions{ProjectDir: dir, EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SourceDateEpoch != 1600000000 {
		t.Errorf("SourceDateEpoch = %d, want 1600000000", cfg.SourceDateEpoch)
	}
	if cfg.Compressed {
		t.Error("PYZBUILD_COMPRESSED from the env file should apply")
	}
	want := []string{
		"PIP_INDEX_URL=https://pypi.example.com/simple",
		"PYZBUILD_COMPRESSED=false",
		"SOURCE_DATE_EPOCH=1600000000",
	}
	if !slices.Equal(cfg.InstallerEnv, want) {
		t.Errorf("InstallerEnv = %v, want %v", cfg.InstallerEnv, want)
	}
}

func TestBuildConfig_MarshalTOML(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, LoadOptions{ProjectDir: writeProject(t, minimalProject)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	out, err := cfg.MarshalTOML()
	if err != nil {
		t.Fatalf("MarshalTOML() error = %v", err)
	}
	for _, want := range []string{"[pyz]", "my_app.app:main", "normalized-name"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("MarshalTOML() missing %q:\n%s", want, out)
		}
	}
}
