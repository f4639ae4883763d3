// SPDX-License-Identifier: MPL-2.0

package pyzarchive

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is the sentinel error wrapped by InvalidEntryError.
	ErrInvalidEntry = errors.New("invalid archive entry")
	// ErrMissingSource is the sentinel error wrapped by MissingSourceError.
	ErrMissingSource = errors.New("archive source file missing")
	// ErrWriterClosed is returned when writing to a closed or discarded Writer.
	ErrWriterClosed = errors.New("archive writer is closed")
)

type (
	// InvalidEntryError is returned for a destination that is absolute,
	// escapes the archive root, or whose source is a directory.
	InvalidEntryError struct {
		// Name is the offending distribution path.
		Name string
		// Reason explains why it was rejected.
		Reason string
	}

	// MissingSourceError is returned when a selected file no longer exists.
	MissingSourceError struct {
		// Path is the source path that could not be found.
		Path string
		// Err is the underlying filesystem error.
		Err error
	}
)

// Error implements the error interface for InvalidEntryError.
func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid archive entry %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidEntry for errors.Is() compatibility.
func (e *InvalidEntryError) Unwrap() error { return ErrInvalidEntry }

// Error implements the error interface for MissingSourceError.
func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source file %s is missing: %v", e.Path, e.Err)
}

// Unwrap exposes ErrMissingSource and the filesystem error.
func (e *MissingSourceError) Unwrap() []error {
	return []error{ErrMissingSource, e.Err}
}
