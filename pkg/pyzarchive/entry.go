// SPDX-License-Identifier: MPL-2.0

package pyzarchive

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Entry describes one member written to the archive.
type Entry struct {
	Name     string
	Modified time.Time
	Mode     fs.FileMode
	Method   uint16
}

// NormalizeName converts a distribution path to a zip member name: forward
// slashes, no leading "./", no absolute paths and no upward traversal.
func NormalizeName(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.TrimSpace(slashed) == "" {
		return "", &InvalidEntryError{Name: name, Reason: "empty path"}
	}
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", &InvalidEntryError{Name: name, Reason: "absolute path"}
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", &InvalidEntryError{Name: name, Reason: "refers to the archive root"}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &InvalidEntryError{Name: name, Reason: "escapes the archive root"}
	}
	return cleaned, nil
}

// NormalizeMode returns the canonical permission bits for mode: world
// readable, writable by the owner only, and executable by everyone if and
// only if the owner could execute the source.
func NormalizeMode(mode fs.FileMode) fs.FileMode {
	perm := (mode.Perm() | 0o644) &^ 0o133
	if mode.Perm()&0o100 != 0 {
		perm |= 0o111
	}
	return perm
}
