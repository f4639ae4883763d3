// SPDX-License-Identifier: MPL-2.0

// Package builder runs the build pipeline: selection, dependency vendoring,
// archive writing and publication. It also owns artifact naming and Clean.
package builder
