// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ProjectDir is the directory holding pyproject.toml ("" means ".").
	ProjectDir string
	// EnvFile is an optional dotenv file. Its variables are passed to the
	// installer, and PYZBUILD_* or SOURCE_DATE_EPOCH entries act as overrides
	// when the real environment does not set them.
	EnvFile string
	// OutputDir overrides the configured output directory when set.
	OutputDir string
	// NoDeps disables dependency vendoring regardless of configuration.
	NoDeps bool
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*BuildConfig, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider reading pyproject.toml.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads and resolves the build configuration of opts.ProjectDir.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*BuildConfig, error) {
	return loadWithOptions(ctx, opts)
}

// Validate returns an *InvalidLoadOptionsError when a set path is blank.
func (o LoadOptions) Validate() error {
	var errs []error
	if o.EnvFile != "" && strings.TrimSpace(o.EnvFile) == "" {
		errs = append(errs, fmt.Errorf("env file path must not be whitespace-only"))
	}
	if o.OutputDir != "" && strings.TrimSpace(o.OutputDir) == "" {
		errs = append(errs, fmt.Errorf("output directory path must not be whitespace-only"))
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

// apply sets the explicit overrides, which outrank every other layer.
func (o LoadOptions) apply(v *viper.Viper) {
	if o.OutputDir != "" {
		dir := o.OutputDir
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		v.Set(keyDirectory, dir)
	}
	if o.NoDeps {
		v.Set(keyBundleDependencies, false)
	}
}
