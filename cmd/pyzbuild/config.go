// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pyzbuild/pyzbuild/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `pyzbuild config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the build configuration",
		Long: `Inspect the build configuration.

Configuration is read from pyproject.toml in the project directory:
  - [project]                         name, version, dependencies
  - [tool.hatch.build]                project-wide build options
  - [tool.hatch.build.targets.pyz]    pyz options, overriding the above

PYZBUILD_* environment variables and SOURCE_DATE_EPOCH override both tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var envFile string
	showCmd := &cobra.Command{
		Use:   "show [project-dir]",
		Short: "Show the resolved configuration as TOML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, projectDirArg(args), envFile)
		},
	}
	showCmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file with overrides")
	cfgCmd.AddCommand(showCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, projectDir, envFile string) error {
	cfg, err := app.loadConfig(ctx, config.LoadOptions{ProjectDir: projectDir, EnvFile: envFile})
	if err != nil {
		return err
	}

	data, err := cfg.MarshalTOML()
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "# %s\n", cfg.Root)
	fmt.Fprint(app.stdout, string(data))
	return nil
}
