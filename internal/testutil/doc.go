// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Helpers cover building project trees on disk (WriteTree, MustWriteFile,
// MustMkdirAll, MustChmod) and resource cleanup (MustClose).
package testutil
