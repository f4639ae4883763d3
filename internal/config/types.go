// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultInterpreter is the shebang target used when none is configured.
	DefaultInterpreter Interpreter = "/usr/bin/env python3"
	// DefaultInstaller is the package installer command used for vendoring.
	DefaultInstaller InstallerCommand = "python3 -m pip"
	// DefaultOutputDir is the output directory, relative to the project root.
	DefaultOutputDir = "dist"
	// DefaultSourceDateEpoch is the reproducible timestamp (2020-02-02T00:00:00Z)
	// used when SOURCE_DATE_EPOCH is unset.
	DefaultSourceDateEpoch int64 = 1580601600
	// MinSourceDateEpoch is 1980-01-01T00:00:00Z, the earliest time a zip
	// entry can record.
	MinSourceDateEpoch int64 = 315532800
)

var (
	// ErrInvalidInterpreter is returned when an Interpreter value is blank or multi-line.
	ErrInvalidInterpreter = errors.New("invalid interpreter")
	// ErrInvalidEntryPoint is returned when an EntryPoint does not take the form pkg.module:callable.
	ErrInvalidEntryPoint = errors.New("invalid entry point")
	// ErrInvalidInstallerCommand is returned when an InstallerCommand is blank.
	ErrInvalidInstallerCommand = errors.New("invalid installer command")
	// ErrInvalidSourceDateEpoch is returned when the reproducible timestamp predates 1980.
	ErrInvalidSourceDateEpoch = errors.New("invalid source date epoch")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
	// ErrInvalidConfig is the sentinel error wrapped by ConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	entryPointPattern = regexp.MustCompile(`^(([a-zA-Z0-9_]+)\.?)+:([a-zA-Z0-9_]+)$`)
)

type (
	// Interpreter is the program named on the archive's shebang line.
	Interpreter string

	// InvalidInterpreterError is returned when an Interpreter value is blank
	// or spans several lines. It wraps ErrInvalidInterpreter.
	InvalidInterpreterError struct {
		Value Interpreter
	}

	// EntryPoint references the callable run by the archive, e.g. "my_app.cli:main".
	EntryPoint string

	// InvalidEntryPointError is returned when an EntryPoint does not match
	// pkg.module:callable. It wraps ErrInvalidEntryPoint.
	InvalidEntryPointError struct {
		Value EntryPoint
	}

	// InstallerCommand is the shell-style command line of the package installer,
	// e.g. "python3 -m pip".
	InstallerCommand string

	// InvalidInstallerCommandError is returned when an InstallerCommand is blank.
	InvalidInstallerCommandError struct {
		Value InstallerCommand
	}

	// InvalidLoadOptionsError is returned when LoadOptions has invalid fields.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}

	// ConfigError is returned when pyproject.toml or the environment holds
	// malformed build settings. It wraps ErrInvalidConfig and every field error.
	ConfigError struct {
		// Source is the configuration file the errors refer to.
		Source string
		// FieldErrors holds one error per offending field.
		FieldErrors []error
	}

	// BuildConfig is the resolved build configuration of one project. It is
	// produced once by Load and treated as read-only afterwards.
	BuildConfig struct {
		// Root is the absolute project root directory.
		Root string
		// Name is the project name exactly as written in [project].
		Name string
		// NormalizedName is Name lowercased with runs of "-_." folded to "-".
		NormalizedName string
		// Version is the project version.
		Version string
		// Dependencies are the requirement specifiers from [project].
		Dependencies []string

		Interpreter        Interpreter
		Main               EntryPoint
		Compressed         bool
		Reproducible       bool
		BundleDependencies bool

		// OutputDir is the absolute artifact output directory.
		OutputDir string

		Include     []string
		Exclude     []string
		Packages    []string
		OnlyInclude []string
		// ForceInclude maps source paths (relative to Root) to archive paths.
		ForceInclude map[string]string

		Installer InstallerCommand
		// InstallerEnv holds extra KEY=VALUE pairs for the installer process.
		InstallerEnv []string

		// SourceDateEpoch is the Unix time stamped on entries in reproducible mode.
		SourceDateEpoch int64
	}
)

// String returns the interpreter as a string.
func (i Interpreter) String() string { return string(i) }

// IsValid returns whether the interpreter can be written on a shebang line.
func (i Interpreter) IsValid() (bool, []error) {
	if strings.TrimSpace(string(i)) == "" || strings.ContainsAny(string(i), "\r\n") {
		return false, []error{&InvalidInterpreterError{Value: i}}
	}
	return true, nil
}

// Error implements the error interface for InvalidInterpreterError.
func (e *InvalidInterpreterError) Error() string {
	return fmt.Sprintf("invalid interpreter %q: must be a non-empty single line", e.Value)
}

// Unwrap returns ErrInvalidInterpreter for errors.Is() compatibility.
func (e *InvalidInterpreterError) Unwrap() error { return ErrInvalidInterpreter }

// String returns the entry point as a string.
func (e EntryPoint) String() string { return string(e) }

// IsValid returns whether the entry point takes the form pkg.module:callable.
func (e EntryPoint) IsValid() (bool, []error) {
	if !entryPointPattern.MatchString(string(e)) {
		return false, []error{&InvalidEntryPointError{Value: e}}
	}
	return true, nil
}

// Module returns the part before the colon.
func (e EntryPoint) Module() string {
	module, _, _ := strings.Cut(string(e), ":")
	return module
}

// Callable returns the part after the colon.
func (e EntryPoint) Callable() string {
	_, callable, _ := strings.Cut(string(e), ":")
	return callable
}

// Error implements the error interface for InvalidEntryPointError.
func (e *InvalidEntryPointError) Error() string {
	return fmt.Sprintf("invalid entry point %q: must take the form `pkg.module:callable`", e.Value)
}

// Unwrap returns ErrInvalidEntryPoint for errors.Is() compatibility.
func (e *InvalidEntryPointError) Unwrap() error { return ErrInvalidEntryPoint }

// String returns the installer command as a string.
func (c InstallerCommand) String() string { return string(c) }

// IsValid returns whether the installer command is non-blank.
func (c InstallerCommand) IsValid() (bool, []error) {
	if strings.TrimSpace(string(c)) == "" {
		return false, []error{&InvalidInstallerCommandError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidInstallerCommandError.
func (e *InvalidInstallerCommandError) Error() string {
	return fmt.Sprintf("invalid installer command %q: must not be empty", e.Value)
}

// Unwrap returns ErrInvalidInstallerCommand for errors.Is() compatibility.
func (e *InvalidInstallerCommandError) Unwrap() error { return ErrInvalidInstallerCommand }

// Error implements the error interface for InvalidLoadOptionsError.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid configuration in %s: %v", e.Source, e.FieldErrors[0])
	}
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid configuration in %s:\n  %s", e.Source, strings.Join(msgs, "\n  "))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is/As.
func (e *ConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid validates the resolved configuration. Load calls it before
// returning, so a BuildConfig obtained from Load is always valid.
func (c *BuildConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Interpreter.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Main.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.BundleDependencies {
		if valid, fieldErrs := c.Installer.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.SourceDateEpoch < MinSourceDateEpoch {
		errs = append(errs, fmt.Errorf("%w: %s=%d is before 1980-01-01 (%d)",
			ErrInvalidSourceDateEpoch, SourceDateEpochEnv, c.SourceDateEpoch, MinSourceDateEpoch))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("[project] name must be set"))
	}
	if c.Version == "" {
		errs = append(errs, errors.New("[project] version must be set"))
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Timestamp returns the reproducible entry time in UTC.
func (c *BuildConfig) Timestamp() time.Time {
	return time.Unix(c.SourceDateEpoch, 0).UTC()
}

// HasExplicitSelection reports whether include, packages or only-include is set.
func (c *BuildConfig) HasExplicitSelection() bool {
	return len(c.Include) > 0 || len(c.Packages) > 0 || len(c.OnlyInclude) > 0
}
