// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pyzbuild.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pyzbuild/pyzbuild/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the pyzbuild command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyzbuild",
		Short: "Build self-executing Python zip applications",
		Long: TitleStyle.Render("pyzbuild") + SubtitleStyle.Render(" - Build self-executing Python zip applications") + `

pyzbuild packages a Python project, and optionally its dependencies, into a
single reproducible .pyz file that runs with any Python interpreter.

The build is configured in the project's pyproject.toml, under
[tool.hatch.build] and [tool.hatch.build.targets.pyz].

` + SubtitleStyle.Render("Examples:") + `
  pyzbuild build                Build the project in the current directory
  pyzbuild build ./app -o out   Build ./app into ./out
  pyzbuild build --no-deps      Build without vendoring dependencies
  pyzbuild clean                Remove built archives
  pyzbuild config show          Show the resolved build configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newCleanCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI with os.Args and returns the process exit code.
func Run() int {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return 1
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Run())
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
