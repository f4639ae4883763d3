// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/internal/issue"
	"github.com/pyzbuild/pyzbuild/pkg/builder"

	"github.com/spf13/cobra"
)

func newCleanCommand(app *App) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "clean [project-dir]",
		Short: "Remove built .pyz archives from the output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), app, projectDirArg(args), outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (skips reading pyproject.toml)")

	return cmd
}

func runClean(ctx context.Context, app *App, projectDir, outputDir string) error {
	dir := outputDir
	if dir == "" {
		cfg, err := app.loadConfig(ctx, config.LoadOptions{ProjectDir: projectDir})
		if err != nil {
			return err
		}
		dir = cfg.OutputDir
	}

	removed, err := builder.Clean(dir)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("clean output directory").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}

	if len(removed) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("Nothing to clean"))
		return nil
	}
	for _, p := range removed {
		fmt.Fprintf(app.stdout, "%s Removed %s\n", SuccessStyle.Render("✓"), PathStyle.Render(p))
	}
	return nil
}
