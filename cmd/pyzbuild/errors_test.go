// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/internal/issue"
	"github.com/pyzbuild/pyzbuild/pkg/deps"
	"github.com/pyzbuild/pyzbuild/pkg/pyzarchive"
	"github.com/pyzbuild/pyzbuild/pkg/selection"
)

func TestWrapBuildError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
	}{
		{name: "selection", err: &selection.SelectionError{Candidates: []string{"my_app"}}, wantIssue: issue.SelectionFailedId},
		{name: "installer", err: &deps.InstallError{Specs: []string{"flask"}, ExitCode: 1}, wantIssue: issue.InstallerFailedId},
		{name: "invalid entry", err: &pyzarchive.InvalidEntryError{Name: "../x", Reason: "escapes the archive root"}, wantIssue: issue.InvalidEntryId},
		{name: "missing source", err: &pyzarchive.MissingSourceError{Path: "/gone", Err: fs.ErrNotExist}, wantIssue: issue.MissingSourceId},
		{name: "empty installer", err: deps.ErrEmptyInstallerCommand, wantIssue: issue.ConfigInvalidId},
		{name: "unclassified", err: errors.New("disk full"), wantIssue: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := wrapBuildError(tt.err, "/out/my_app-1.0.pyz")

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("wrapBuildError() = %T, want *issue.ActionableError", err)
			}
			if ae.Issue != tt.wantIssue {
				t.Errorf("Issue = %d, want %d", ae.Issue, tt.wantIssue)
			}
			if !errors.Is(err, tt.err) {
				t.Error("wrapped error lost its cause")
			}
			if !strings.HasPrefix(err.Error(), "failed to build pyz: /out/my_app-1.0.pyz") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestWrapConfigError(t *testing.T) {
	t.Parallel()

	invalid := &config.ConfigError{Source: "pyproject.toml", FieldErrors: []error{errors.New("main: bad")}}
	var ae *issue.ActionableError
	if !errors.As(wrapConfigError(invalid, "proj"), &ae) || ae.Issue != issue.ConfigInvalidId {
		t.Errorf("wrapConfigError(ConfigError) issue = %v, want ConfigInvalidId", ae)
	}

	existing := issue.NewErrorContext().WithOperation("read env file").BuildError()
	if got := wrapConfigError(existing, "proj"); got != existing {
		t.Errorf("wrapConfigError() rewrapped an actionable error: %v", got)
	}
}

func TestRenderError(t *testing.T) {
	// Not parallel: t.Setenv.
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	err := wrapBuildError(&selection.SelectionError{Candidates: []string{"my_app"}}, "dist/my_app-1.0.pyz")
	renderError(&buf, err, false)

	out := buf.String()
	for _, want := range []string{
		"failed to build pyz",
		"Set packages or only-include",
		"Unable to determine which files to ship",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderError() output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderError_Verbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cause := errors.New("disk full")
	renderError(&buf, wrapBuildError(cause, "a.pyz"), true)

	if !strings.Contains(buf.String(), "Error chain:") {
		t.Errorf("verbose output missing error chain:\n%s", buf.String())
	}
}
