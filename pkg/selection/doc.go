// SPDX-License-Identifier: MPL-2.0

// Package selection decides which project files go into an archive.
//
// When a project configures no include, packages or only-include list, the
// resolver applies a fixed heuristic to the project name to find the code to
// ship. The walker then expands the resolved Options into a sorted list of
// IncludedFile values with their archive destinations.
package selection
