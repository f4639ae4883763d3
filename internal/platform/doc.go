// SPDX-License-Identifier: MPL-2.0

// Package platform resolves the host traits the archive builder branches on.
//
// Two capabilities differ by operating system: recovering the on-disk casing
// of a file name on case-insensitive filesystems, and the text encoding used
// for the interpreter path in the shebang line. Both are selected once from
// the detected platform (see [Default]) instead of branching at call sites.
package platform
