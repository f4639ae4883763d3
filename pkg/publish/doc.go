// SPDX-License-Identifier: MPL-2.0

// Package publish moves a finished archive to its final name.
//
// The destination is only touched by a single rename, so readers never see
// a partially written artifact. When the temp file lives on another device,
// the archive is first copied next to the destination and then renamed.
package publish
