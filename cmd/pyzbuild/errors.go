// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/internal/issue"
	"github.com/pyzbuild/pyzbuild/internal/platform"
	"github.com/pyzbuild/pyzbuild/pkg/deps"
	"github.com/pyzbuild/pyzbuild/pkg/pyzarchive"
	"github.com/pyzbuild/pyzbuild/pkg/selection"
)

// wrapConfigError attaches the config issue to configuration failures.
// Errors that already carry context are returned unchanged.
func wrapConfigError(err error, projectDir string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ec := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(filepath.Join(projectDir, config.ProjectFileName)).
		Wrap(err)
	if errors.Is(err, config.ErrInvalidConfig) {
		ec.WithIssue(issue.ConfigInvalidId)
	}
	return ec.BuildError()
}

// wrapBuildError classifies a build failure and links it to its issue.
func wrapBuildError(err error, artifact string) error {
	ec := issue.NewErrorContext().
		WithOperation("build pyz").
		WithResource(artifact).
		Wrap(err)

	var selErr *selection.SelectionError
	switch {
	case errors.As(err, &selErr):
		ec.WithIssue(issue.SelectionFailedId).
			WithSuggestion("Set packages or only-include in [tool.hatch.build.targets.pyz]")
	case errors.Is(err, deps.ErrInstallFailed):
		ec.WithIssue(issue.InstallerFailedId).
			WithSuggestion("Re-run with --verbose to see the installer output").
			WithSuggestion("Use --no-deps to build without vendored dependencies")
	case errors.Is(err, deps.ErrEmptyInstallerCommand), errors.Is(err, platform.ErrInvalidShebang):
		ec.WithIssue(issue.ConfigInvalidId)
	case errors.Is(err, pyzarchive.ErrInvalidEntry):
		ec.WithIssue(issue.InvalidEntryId)
	case errors.Is(err, pyzarchive.ErrMissingSource):
		ec.WithIssue(issue.MissingSourceId)
	}
	return ec.BuildError()
}

// renderError writes err and, for catalogued failures, the issue guidance.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	renderIssue(w, ae.Issue)
}

// renderIssue renders the catalog entry for id, falling back to a plain
// reference when rendering fails.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(issueStyle())
	if err != nil {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("(failed to render guidance for issue %d: %v)", id, err)))
		return
	}
	fmt.Fprint(w, rendered)
}

// issueStyle picks the glamour style; NO_COLOR selects plain text.
func issueStyle() string {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return "notty"
	}
	return "dark"
}
