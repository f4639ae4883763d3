// SPDX-License-Identifier: MPL-2.0

package config

import (
	"regexp"
	"strings"
)

var (
	separatorRuns   = regexp.MustCompile(`[-_.]+`)
	unsafeFileChars = regexp.MustCompile(`[^\w.]+`)
)

// NormalizeProjectName lowercases name and folds runs of "-", "_" and "." into "-".
func NormalizeProjectName(name string) string {
	return strings.ToLower(separatorRuns.ReplaceAllString(name, "-"))
}

// FileNameComponent replaces every run of characters outside [A-Za-z0-9_.]
// with "_", making name safe for file names and Python identifiers.
func FileNameComponent(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
