// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "build pyz"},
			expected: "failed to build pyz",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./pyproject.toml",
			},
			expected: "failed to load configuration: ./pyproject.toml",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./pyproject.toml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: ./pyproject.toml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("exit status 1")
	err := NewErrorContext().
		WithOperation("vendor dependencies").
		WithSuggestion("check the installer output").
		WithSuggestion("retry with --no-deps").
		Wrap(errors.Join(root)).
		Build()

	plain := err.Format(false)
	if !strings.Contains(plain, "  • check the installer output") {
		t.Errorf("Format(false) missing suggestion:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. exit status 1") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return a nil interface")
	}

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("publish artifact").
		WithResource("dist/app-1.0.pyz").
		WithIssue(MissingSourceId).
		Wrap(cause).
		Build()
	if ae.Issue != MissingSourceId {
		t.Errorf("Issue = %d, want %d", ae.Issue, MissingSourceId)
	}
	if !errors.Is(ae, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if ae.HasSuggestions() {
		t.Error("HasSuggestions() = true, want false")
	}
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
	ae := WrapWithOperation(errors.New("denied"), "clean output directory")
	if ae.Error() != "failed to clean output directory: denied" {
		t.Errorf("Error() = %q", ae.Error())
	}
}
