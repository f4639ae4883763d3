// SPDX-License-Identifier: MPL-2.0

//go:build !unix && !windows

package publish

import "errors"

// errCrossDevice never matches a real rename error on this platform.
var errCrossDevice = errors.New("cross-device rename")
