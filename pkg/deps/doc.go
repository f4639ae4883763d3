// SPDX-License-Identifier: MPL-2.0

// Package deps vendors third-party Python dependencies into an archive.
//
// A Vendor asks an Installer (pip by default) to install the requirement
// specifiers into a scratch directory, then registers every installed file
// as a selection.IncludedFile so it flows through the same archive pipeline
// as project files.
package deps
