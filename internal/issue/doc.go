// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// [ActionableError] carries the failed operation, the resource involved and
// remediation hints. [Issue] values hold longer markdown guidance for the
// failure classes of a build and are rendered with glamour.
package issue
