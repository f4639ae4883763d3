// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/pkg/builder"

	"github.com/spf13/cobra"
)

type buildFlags struct {
	outputDir string
	envFile   string
	noDeps    bool
}

func newBuildCommand(app *App) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build [project-dir]",
		Short: "Build the project into a .pyz archive",
		Long: `Build the project into a self-executing .pyz archive.

The archive is written to a temp file first and only moved to
<directory>/<name>-<version>.pyz once it is complete, so a failed build never
leaves a partial artifact behind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, projectDirArg(args), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory (overrides the configured directory)")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "dotenv file with installer environment and overrides")
	cmd.Flags().BoolVar(&flags.noDeps, "no-deps", false, "do not vendor project dependencies")

	return cmd
}

func runBuild(ctx context.Context, app *App, projectDir string, flags buildFlags) error {
	cfg, err := app.loadConfig(ctx, config.LoadOptions{
		ProjectDir: projectDir,
		EnvFile:    flags.envFile,
		OutputDir:  flags.outputDir,
		NoDeps:     flags.noDeps,
	})
	if err != nil {
		return err
	}

	logger := app.logger()
	logger.Info("Building", "project", cfg.Name, "version", cfg.Version)

	opts := []builder.Option{builder.WithLogger(logger)}
	if app.verbose {
		opts = append(opts, builder.WithOutput(app.stderr, app.stderr))
	}
	if app.installer != nil {
		opts = append(opts, builder.WithInstaller(app.installer))
	}

	b := builder.New(cfg, opts...)
	result, err := b.Build(ctx)
	if err != nil {
		return wrapBuildError(err, b.ArtifactPath())
	}

	fmt.Fprintf(app.stdout, "%s Built %s\n", SuccessStyle.Render("✓"), PathStyle.Render(result.Path))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("sha256:"), result.SHA256)
	return nil
}

func projectDirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
