// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestEntryPoint_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value EntryPoint
		want  bool
	}{
		{"my_app.app:main", true},
		{"app:main", true},
		{"a.b.c:run_1", true},
		{"", false},
		{"my_app.app", false},
		{"my-app.app:main", false},
		{"my_app.app:main()", false},
		{"my_app.app:", false},
		{":main", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			isValid, errs := tt.value.IsValid()
			if isValid != tt.want {
				t.Errorf("EntryPoint(%q).IsValid() = %v, want %v", tt.value, isValid, tt.want)
			}
			if !tt.want {
				if len(errs) == 0 {
					t.Fatalf("EntryPoint(%q).IsValid() returned no errors", tt.value)
				}
				if !errors.Is(errs[0], ErrInvalidEntryPoint) {
					t.Errorf("error should wrap ErrInvalidEntryPoint, got: %v", errs[0])
				}
			}
		})
	}
}

func TestEntryPoint_Split(t *testing.T) {
	t.Parallel()

	ep := EntryPoint("my_app.cli:main")
	if ep.Module() != "my_app.cli" {
		t.Errorf("Module() = %q, want my_app.cli", ep.Module())
	}
	if ep.Callable() != "main" {
		t.Errorf("Callable() = %q, want main", ep.Callable())
	}
}

func TestInterpreter_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Interpreter
		want  bool
	}{
		{DefaultInterpreter, true},
		{"/usr/bin/python3.12", true},
		{"", false},
		{"   ", false},
		{"/usr/bin/python3\nrm -rf /", false},
	}

	for _, tt := range tests {
		isValid, errs := tt.value.IsValid()
		if isValid != tt.want {
			t.Errorf("Interpreter(%q).IsValid() = %v, want %v", tt.value, isValid, tt.want)
		}
		if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidInterpreter)) {
			t.Errorf("Interpreter(%q).IsValid() errors = %v, want ErrInvalidInterpreter", tt.value, errs)
		}
	}
}

func TestInstallerCommand_IsValid(t *testing.T) {
	t.Parallel()

	if ok, _ := DefaultInstaller.IsValid(); !ok {
		t.Error("DefaultInstaller should be valid")
	}
	ok, errs := InstallerCommand(" ").IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidInstallerCommand) {
		t.Errorf("blank installer: ok=%v errs=%v", ok, errs)
	}
}

func TestBuildConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := &BuildConfig{
		Name:        "my-app",
		Version:     "0.0.1",
		Interpreter: DefaultInterpreter,
		Main:        "my_app.app:main",
		Installer:   DefaultInstaller,

		SourceDateEpoch: DefaultSourceDateEpoch,
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Fatalf("IsValid() errors = %v", errs)
	}

	cfg.Main = "nope"
	cfg.Version = ""
	ok, errs := cfg.IsValid()
	if ok || len(errs) != 2 {
		t.Errorf("IsValid() = %v, %v; want two errors", ok, errs)
	}
}

func TestBuildConfig_IsValidSourceDateEpoch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		epoch int64
		valid bool
	}{
		{name: "zero", epoch: 0, valid: false},
		{name: "negative", epoch: -1, valid: false},
		{name: "one second before 1980", epoch: MinSourceDateEpoch - 1, valid: false},
		{name: "1980-01-01", epoch: MinSourceDateEpoch, valid: true},
		{name: "default", epoch: DefaultSourceDateEpoch, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &BuildConfig{
				Name:            "my-app",
				Version:         "0.0.1",
				Interpreter:     DefaultInterpreter,
				Main:            "my_app.app:main",
				SourceDateEpoch: tt.epoch,
			}
			ok, errs := cfg.IsValid()
			if ok != tt.valid {
				t.Fatalf("IsValid() = %v, %v; want %v", ok, errs, tt.valid)
			}
			if !tt.valid && !errors.Is(errors.Join(errs...), ErrInvalidSourceDateEpoch) {
				t.Errorf("IsValid() errors = %v, want ErrInvalidSourceDateEpoch", errs)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	fieldErr := &InvalidEntryPointError{Value: "x"}
	err := &ConfigError{Source: "pyproject.toml", FieldErrors: []error{fieldErr}}

	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("ConfigError should match ErrInvalidConfig")
	}
	if !errors.Is(err, ErrInvalidEntryPoint) {
		t.Error("ConfigError should expose its field errors")
	}
	want := `invalid configuration in pyproject.toml: invalid entry point "x": must take the form ` + "`pkg.module:callable`"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestBuildConfig_Timestamp(t *testing.T) {
	t.Parallel()

	cfg := &BuildConfig{SourceDateEpoch: DefaultSourceDateEpoch}
	ts := cfg.Timestamp()
	if ts.Location().String() != "UTC" || ts.Year() != 2020 || ts.Month() != 2 || ts.Day() != 2 {
		t.Errorf("Timestamp() = %v, want 2020-02-02 UTC", ts)
	}
}
