// SPDX-License-Identifier: MPL-2.0

package deps

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pyzbuild/pyzbuild/pkg/selection"

	"github.com/charmbracelet/log"
)

// bytecodeCacheDir is skipped when collecting installed files.
const bytecodeCacheDir = "__pycache__"

type (
	// VendorOption configures a Vendor.
	VendorOption func(*Vendor)

	// Vendor installs dependencies into a scratch directory and lists the result.
	Vendor struct {
		installer Installer
		tempDir   string
		logger    *log.Logger
	}
)

// NewVendor creates a Vendor backed by installer.
func NewVendor(installer Installer, opts ...VendorOption) *Vendor {
	v := &Vendor{
		installer: installer,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// WithTempDir sets the parent of scratch directories ("" means os.TempDir()).
func WithTempDir(dir string) VendorOption {
	return func(v *Vendor) {
		v.tempDir = dir
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *log.Logger) VendorOption {
	return func(v *Vendor) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Bundle installs specs into a fresh scratch directory and returns every
// installed file. The returned cleanup removes the scratch directory and
// must be called once the files have been consumed. An empty specs list is
// a no-op.
func (v *Vendor) Bundle(ctx context.Context, specs []string) (files []selection.IncludedFile, cleanup func() error, err error) {
	noop := func() error { return nil }
	if len(specs) == 0 {
		return nil, noop, nil
	}

	dir, err := os.MkdirTemp(v.tempDir, "pyzbuild-deps-")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create dependency directory: %w", err)
	}
	remove := func() error {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove dependency directory: %w", err)
		}
		return nil
	}
	defer func() {
		if err != nil {
			_ = remove()
		}
	}()

	v.logger.Info("Installing dependencies", "count", len(specs))
	v.logger.Debug("Dependency target", "dir", dir, "specs", specs)
	if err := v.installer.Install(ctx, specs, dir); err != nil {
		return nil, noop, err
	}

	files, err = CollectFiles(dir)
	if err != nil {
		return nil, noop, err
	}
	v.logger.Debug("Collected dependency files", "count", len(files))
	return files, remove, nil
}

// CollectFiles lists the regular files under dir, skipping bytecode cache
// directories. Each directory contributes its files in sorted order before
// its sorted subdirectories are visited. Distribution paths are relative to dir.
func CollectFiles(dir string) ([]selection.IncludedFile, error) {
	var files []selection.IncludedFile
	if err := collect(dir, "", &files); err != nil {
		return nil, fmt.Errorf("failed to collect installed files: %w", err)
	}
	return files, nil
}

func collect(root, rel string, files *[]selection.IncludedFile) error {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	var subdirs []string
	for _, e := range entries {
		name := path.Join(rel, e.Name())
		switch {
		case e.IsDir():
			if e.Name() != bytecodeCacheDir {
				subdirs = append(subdirs, name)
			}
		case e.Type().IsRegular():
			*files = append(*files, selection.IncludedFile{
				Path:             filepath.Join(root, filepath.FromSlash(name)),
				RelativePath:     name,
				DistributionPath: name,
			})
		}
	}

	for _, sub := range subdirs {
		if err := collect(root, sub, files); err != nil {
			return err
		}
	}
	return nil
}
