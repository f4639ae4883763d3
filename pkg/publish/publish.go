// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pyzbuild/pyzbuild/pkg/pyzarchive"
)

const (
	// executableMode is applied to reproducible artifacts.
	executableMode fs.FileMode = 0o755
	dirMode        fs.FileMode = 0o755
)

type (
	// Option configures a Publisher.
	Option func(*Publisher)

	// Publisher renames finished archives into place.
	Publisher struct {
		rename func(oldpath, newpath string) error
	}
)

// WithRename replaces os.Rename, for testing.
func WithRename(fn func(oldpath, newpath string) error) Option {
	return func(p *Publisher) {
		p.rename = fn
	}
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{rename: os.Rename}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish moves tmpPath to destPath, replacing any existing file, and then
// normalizes the artifact's permissions: readable by everyone, writable by
// the owner, and executable by everyone when reproducible is set or the
// owner could already execute it. The parent of destPath is created if needed.
func Publish(tmpPath, destPath string, reproducible bool) error {
	return New().Publish(tmpPath, destPath, reproducible)
}

// Publish is the package-level Publish using p's rename function.
func (p *Publisher) Publish(tmpPath, destPath string, reproducible bool) error {
	if err := os.MkdirAll(filepath.Dir(destPath), dirMode); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := p.move(tmpPath, destPath); err != nil {
		return err
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("failed to stat artifact: %w", err)
	}
	mode := pyzarchive.NormalizeMode(info.Mode())
	if reproducible {
		mode = executableMode
	}
	if err := os.Chmod(destPath, mode); err != nil {
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	return nil
}

func (p *Publisher) move(tmpPath, destPath string) error {
	err := p.rename(tmpPath, destPath)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	staged, err := copySibling(tmpPath, destPath)
	if err != nil {
		return err
	}
	if err := p.rename(staged, destPath); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove temp archive: %w", err)
	}
	return nil
}

// copySibling copies src into a new temp file in dest's directory so the
// final step is a same-device rename.
func copySibling(src, dest string) (_ string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open temp archive: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to stage artifact: %w", err)
	}
	staged := out.Name()
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to stage artifact: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(staged)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("failed to stage artifact: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	return staged, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}
