// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNoSelection is the sentinel error wrapped by SelectionError.
var ErrNoSelection = errors.New("unable to determine which files to ship")

type (
	// Options is one resolved file-selection tuple.
	Options struct {
		Include     []string
		Exclude     []string
		Packages    []string
		OnlyInclude []string
	}

	// IncludedFile is a file selected for the archive.
	IncludedFile struct {
		// Path is the source file on disk.
		Path string
		// RelativePath is Path relative to the tree it was found in.
		RelativePath string
		// DistributionPath is the forward-slash destination inside the archive.
		DistributionPath string
	}

	// SelectionError is returned when no heuristic matched either candidate
	// project name. It wraps ErrNoSelection.
	SelectionError struct {
		// Candidates are the sorted, de-duplicated names that were tried.
		Candidates []string
	}
)

// IsExplicit reports whether include, packages or only-include is set.
func (o Options) IsExplicit() bool {
	return len(o.Include) > 0 || len(o.Packages) > 0 || len(o.OnlyInclude) > 0
}

// Error implements the error interface for SelectionError.
func (e *SelectionError) Error() string {
	var sb strings.Builder
	sb.WriteString("unable to determine which files to ship inside the pyz archive; ")
	fmt.Fprintf(&sb, "no directory or module matches the project name (%s). ", strings.Join(e.Candidates, " or "))
	sb.WriteString("Define at least one file selection option, such as `packages`, ")
	sb.WriteString("in the [tool.hatch.build.targets.pyz] table, e.g. packages = [\"src/foo\"]")
	return sb.String()
}

// Unwrap returns ErrNoSelection for errors.Is() compatibility.
func (e *SelectionError) Unwrap() error { return ErrNoSelection }

func newSelectionError(candidates []string) *SelectionError {
	names := slices.Clone(candidates)
	slices.Sort(names)
	return &SelectionError{Candidates: slices.Compact(names)}
}
