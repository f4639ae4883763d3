// SPDX-License-Identifier: MPL-2.0

//go:build unix

package publish

import "golang.org/x/sys/unix"

// errCrossDevice is what rename reports when source and target are on
// different filesystems.
var errCrossDevice error = unix.EXDEV
