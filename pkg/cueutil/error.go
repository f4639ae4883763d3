// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrInvalidCUEPath is returned when a CUEPath is empty.
var ErrInvalidCUEPath = errors.New("invalid CUE path")

type (
	// CUEPath is a JSON-style path to a configuration field, e.g. "include[0]".
	CUEPath string

	// FieldError is a single schema violation.
	FieldError struct {
		// Path locates the offending field; empty for document-level errors.
		Path CUEPath

		// Message is the violation reported by CUE.
		Message string
	}

	// ValidationError collects the schema violations of one source.
	ValidationError struct {
		// Source names what was validated, e.g. "pyproject.toml [project]".
		Source string

		// Fields lists the violations in the order CUE reported them.
		Fields []FieldError
	}
)

// String returns the path as a string.
func (p CUEPath) String() string {
	return string(p)
}

// Validate returns ErrInvalidCUEPath for an empty or blank path.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidCUEPath, string(p))
	}
	return nil
}

func (f FieldError) String() string {
	if f.Path != "" {
		return fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return f.Message
}

// Error implements the error interface.
//
// One violation: "<source>: <path>: <message>". Several violations are listed
// on indented lines below "<source>: validation failed:".
func (e *ValidationError) Error() string {
	switch len(e.Fields) {
	case 0:
		return e.Source + ": validation failed"
	case 1:
		return fmt.Sprintf("%s: %s", e.Source, e.Fields[0])
	}

	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.Source, strings.Join(lines, "\n  "))
}

// Paths returns the paths of all violations that carry one.
func (e *ValidationError) Paths() []CUEPath {
	var out []CUEPath
	for _, f := range e.Fields {
		if f.Path != "" {
			out = append(out, f.Path)
		}
	}
	return out
}

// FormatError converts a CUE error into a *ValidationError with JSON-path
// field locations. Non-CUE errors are wrapped with the source name.
func FormatError(err error, source string) error {
	if err == nil {
		return nil
	}

	// cueerrors.Errors promotes plain errors to a one-element list.
	var ce cueerrors.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", source, err)
	}
	cueErrs := cueerrors.Errors(err)

	ve := &ValidationError{Source: source}
	for _, e := range cueErrs {
		path := cueerrors.Path(e)
		for len(path) > 0 && strings.HasPrefix(path[0], "#") {
			path = path[1:]
		}
		pathStr := formatPath(path)
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimPrefix(msg, pathStr)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}

		ve.Fields = append(ve.Fields, FieldError{Path: CUEPath(pathStr), Message: msg})
	}
	return ve
}

// formatPath converts a CUE error path (["include", "0"]) to JSON-path
// notation ("include[0]").
func formatPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		isIndex := part != ""
		for _, c := range part {
			if c < '0' || c > '9' {
				isIndex = false
				break
			}
		}

		if isIndex && i > 0 {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
		} else {
			if i > 0 {
				result.WriteString(".")
			}
			result.WriteString(part)
		}
	}

	return result.String()
}

// CheckFileSize returns an error when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
