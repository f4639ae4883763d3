// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pyzbuild/pyzbuild/internal/issue"
	"github.com/pyzbuild/pyzbuild/pkg/cueutil"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "pyzbuild"
	// ProjectFileName is the project metadata file read from the project root.
	ProjectFileName = "pyproject.toml"
	// TargetName is the build target table name under tool.hatch.build.targets.
	TargetName = "pyz"
	// EnvPrefix prefixes environment variable overrides (PYZBUILD_COMPRESSED=false).
	EnvPrefix = "PYZBUILD"
	// SourceDateEpochEnv is the standard reproducible-builds timestamp variable.
	SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

	keyMain               = "main"
	keyInterpreter        = "interpreter"
	keyCompressed         = "compressed"
	keyReproducible       = "reproducible"
	keyBundleDependencies = "bundle-dependencies"
	keyInclude            = "include"
	keyExclude            = "exclude"
	keyPackages           = "packages"
	keyOnlyInclude        = "only-include"
	keyForceInclude       = "force-include"
	keyDirectory          = "directory"
	keyInstaller          = "installer"
	keySourceDateEpoch    = "source-date-epoch"
)

//go:embed config_schema.cue
var configSchema []byte

var layeredKeys = []string{
	keyMain, keyInterpreter, keyCompressed, keyReproducible, keyBundleDependencies,
	keyInclude, keyExclude, keyPackages, keyOnlyInclude, keyDirectory, keyInstaller,
}

type (
	// pyproject is the subset of pyproject.toml this package reads. Tables
	// stay untyped until they pass schema validation.
	pyproject struct {
		Project map[string]any `toml:"project"`
		Tool    struct {
			Hatch struct {
				Build map[string]any `toml:"build"`
			} `toml:"hatch"`
		} `toml:"tool"`
	}

	project struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		Dependencies []string `json:"dependencies"`
	}
)

// loadWithOptions reads <ProjectDir>/pyproject.toml, validates the [project],
// [tool.hatch.build] and [tool.hatch.build.targets.pyz] tables against the
// embedded schema and layers them with viper:
//
//	defaults < build-level < target-level < env file < environment < load options
func loadWithOptions(ctx context.Context, opts LoadOptions) (*BuildConfig, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	path := filepath.Join(root, ProjectFileName)

	doc, err := readProjectFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Run pyzbuild from the project root or pass the project directory").
			WithSuggestion("Check that pyproject.toml is valid TOML").
			Wrap(err).
			BuildError()
	}

	proj, build, target, err := validateTables(doc)
	if err != nil {
		return nil, &ConfigError{Source: path, FieldErrors: []error{err}}
	}

	var fileEnv map[string]string
	if opts.EnvFile != "" {
		fileEnv, err = godotenv.Read(opts.EnvFile)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("read env file").
				WithResource(opts.EnvFile).
				WithSuggestion("Use KEY=VALUE lines, one per variable").
				Wrap(err).
				BuildError()
		}
	}

	v := viper.New()
	setDefaults(v)

	// force-include keys are paths; viper would lowercase and split them.
	if err := v.MergeConfigMap(withoutKeys(build, "targets", keyForceInclude)); err != nil {
		return nil, fmt.Errorf("failed to merge build-level options: %w", err)
	}
	if err := v.MergeConfigMap(withoutKeys(target, keyForceInclude)); err != nil {
		return nil, fmt.Errorf("failed to merge target-level options: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keySourceDateEpoch, SourceDateEpochEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", SourceDateEpochEnv, err)
	}
	applyEnvFile(v, fileEnv)
	opts.apply(v)

	cfg, fieldErrs := resolve(v, root)
	cfg.Name = proj.Name
	cfg.NormalizedName = NormalizeProjectName(proj.Name)
	cfg.Version = proj.Version
	cfg.Dependencies = slices.Clone(proj.Dependencies)
	cfg.ForceInclude = mergeForceInclude(build, target)
	cfg.InstallerEnv = envList(fileEnv)

	if valid, errs := cfg.IsValid(); !valid {
		fieldErrs = append(fieldErrs, errs...)
	}
	if len(fieldErrs) > 0 {
		return nil, &ConfigError{Source: path, FieldErrors: fieldErrs}
	}

	return cfg, nil
}

func readProjectFile(path string) (*pyproject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}
	return &doc, nil
}

// validateTables checks each table against its schema definition and
// returns the decoded project metadata with the two option layers.
func validateTables(doc *pyproject) (*project, map[string]any, map[string]any, error) {
	if doc.Project == nil {
		return nil, nil, nil, errors.New("missing [project] table")
	}
	result, err := cueutil.DecodeValue[project](configSchema, doc.Project, "#Project",
		cueutil.WithFilename("[project]"), cueutil.WithConcrete(true))
	if err != nil {
		return nil, nil, nil, err
	}

	build := doc.Tool.Hatch.Build
	if build == nil {
		build = map[string]any{}
	}
	if err := cueutil.ValidateValue(configSchema, withoutKeys(build, "targets"), "#Options",
		cueutil.WithFilename("[tool.hatch.build]")); err != nil {
		return nil, nil, nil, err
	}

	target := map[string]any{}
	if targets, ok := build["targets"].(map[string]any); ok {
		if t, ok := targets[TargetName].(map[string]any); ok {
			target = t
		}
	}
	if err := cueutil.ValidateValue(configSchema, target, "#Options",
		cueutil.WithFilename("[tool.hatch.build.targets."+TargetName+"]")); err != nil {
		return nil, nil, nil, err
	}

	return result.Value, build, target, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyInterpreter, string(DefaultInterpreter))
	v.SetDefault(keyCompressed, true)
	v.SetDefault(keyReproducible, true)
	v.SetDefault(keyBundleDependencies, true)
	v.SetDefault(keyInclude, []string{})
	v.SetDefault(keyExclude, []string{})
	v.SetDefault(keyPackages, []string{})
	v.SetDefault(keyOnlyInclude, []string{})
	v.SetDefault(keyDirectory, DefaultOutputDir)
	v.SetDefault(keyInstaller, string(DefaultInstaller))
	v.SetDefault(keySourceDateEpoch, DefaultSourceDateEpoch)
	// main has no default; registering the key lets AutomaticEnv find it.
	v.SetDefault(keyMain, "")
}

// withoutKeys returns a shallow copy of table minus the given keys.
func withoutKeys(table map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(table))
	for k, val := range table {
		if !slices.Contains(keys, k) {
			out[k] = val
		}
	}
	return out
}

// applyEnvFile sets overrides found in the env file unless the real
// environment already defines them.
func applyEnvFile(v *viper.Viper, fileEnv map[string]string) {
	if len(fileEnv) == 0 {
		return
	}
	envNames := map[string]string{SourceDateEpochEnv: keySourceDateEpoch}
	for _, key := range layeredKeys {
		envNames[envVarName(key)] = key
	}
	for name, key := range envNames {
		val, ok := fileEnv[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, val)
	}
}

func envVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// resolve freezes the viper state into a BuildConfig. Values arriving from
// the environment are strings, so booleans and the epoch are parsed here.
func resolve(v *viper.Viper, root string) (*BuildConfig, []error) {
	var errs []error

	boolValue := func(key string) bool {
		b, err := toBool(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return b
	}

	cfg := &BuildConfig{
		Root:               root,
		Interpreter:        Interpreter(v.GetString(keyInterpreter)),
		Main:               EntryPoint(v.GetString(keyMain)),
		Compressed:         boolValue(keyCompressed),
		Reproducible:       boolValue(keyReproducible),
		BundleDependencies: boolValue(keyBundleDependencies),
		Include:            v.GetStringSlice(keyInclude),
		Exclude:            v.GetStringSlice(keyExclude),
		Packages:           v.GetStringSlice(keyPackages),
		OnlyInclude:        v.GetStringSlice(keyOnlyInclude),
		Installer:          InstallerCommand(v.GetString(keyInstaller)),
	}

	dir := v.GetString(keyDirectory)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	cfg.OutputDir = filepath.Clean(dir)

	epoch, err := toInt64(v.Get(keySourceDateEpoch))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", SourceDateEpochEnv, err))
	}
	cfg.SourceDateEpoch = epoch

	return cfg, errs
}

func toBool(val any) (bool, error) {
	switch b := val.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("must be a boolean, got %q", b)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("must be a boolean, got %T", val)
	}
}

func toInt64(val any) (int64, error) {
	switch n := val.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be an integer Unix timestamp, got %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("must be an integer Unix timestamp, got %T", val)
	}
}

// mergeForceInclude combines both force-include tables; target-level entries
// win on conflicting sources.
func mergeForceInclude(build, target map[string]any) map[string]string {
	out := map[string]string{}
	for _, table := range []map[string]any{build, target} {
		m, ok := table[keyForceInclude].(map[string]any)
		if !ok {
			continue
		}
		for src, dst := range m {
			if s, ok := dst.(string); ok {
				out[src] = s
			}
		}
	}
	return out
}

func envList(fileEnv map[string]string) []string {
	keys := slices.Sorted(maps.Keys(fileEnv))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+fileEnv[k])
	}
	return out
}
