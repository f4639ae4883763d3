// SPDX-License-Identifier: MPL-2.0

// Package pyzarchive writes self-executing Python zip applications.
//
// An archive is a shebang line followed by a zip payload whose offsets are
// absolute, so the file is both a script the kernel can exec and a zip the
// Python interpreter can import from. In reproducible mode every entry gets
// the same timestamp and a permission mask derived only from the source's
// owner-executable bit, so identical inputs produce identical bytes.
package pyzarchive
