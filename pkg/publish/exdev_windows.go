// SPDX-License-Identifier: MPL-2.0

//go:build windows

package publish

import "golang.org/x/sys/windows"

// errCrossDevice is what MoveFileEx reports when source and target are on
// different volumes.
var errCrossDevice error = windows.ERROR_NOT_SAME_DEVICE
