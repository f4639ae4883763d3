// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/pkg/deps"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
)

const logPrefix = "pyzbuild"

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and goes through it for configuration and output.
	App struct {
		Config    config.Provider
		installer deps.Installer
		stdout    io.Writer
		stderr    io.Writer
		verbose   bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Installer replaces the pip installer built from the configuration.
		Installer deps.Installer
		Stdout    io.Writer
		Stderr    io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with defaults.
func NewApp(d Dependencies) (*App, error) {
	app := &App{
		Config:    d.Config,
		installer: d.Installer,
		stdout:    d.Stdout,
		stderr:    d.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app, nil
}

// logger returns the build logger, at debug level in verbose mode.
func (a *App) logger() *log.Logger {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: logPrefix,
		Level:  level,
	})
}

func (a *App) loadConfig(ctx context.Context, opts config.LoadOptions) (*config.BuildConfig, error) {
	cfg, err := a.Config.Load(ctx, opts)
	if err != nil {
		return nil, wrapConfigError(err, opts.ProjectDir)
	}
	return cfg, nil
}

// handleError prints a failed command's error followed by the catalogued
// guidance for it, if any.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	renderError(w, err, a.verbose)
}
