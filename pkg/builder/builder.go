// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/internal/platform"
	"github.com/pyzbuild/pyzbuild/pkg/deps"
	"github.com/pyzbuild/pyzbuild/pkg/publish"
	"github.com/pyzbuild/pyzbuild/pkg/pyzarchive"
	"github.com/pyzbuild/pyzbuild/pkg/selection"

	"github.com/charmbracelet/log"
)

type (
	// Option configures a Builder.
	Option func(*Builder)

	// Builder produces the archive described by one BuildConfig.
	Builder struct {
		cfg       *config.BuildConfig
		logger    *log.Logger
		installer deps.Installer
		caps      *platform.Capabilities
		publisher *publish.Publisher
		tempDir   string
		stdout    io.Writer
		stderr    io.Writer
	}

	// Result describes a published artifact.
	Result struct {
		// Path is the absolute artifact path.
		Path string
		// Entries lists the archive entries in write order.
		Entries []pyzarchive.Entry
		// SHA256 is the hex digest of the artifact.
		SHA256 string
		// Size is the artifact size in bytes.
		Size int64
	}
)

// New creates a Builder for cfg.
func New(cfg *config.BuildConfig, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		logger:    log.New(io.Discard),
		caps:      platform.Default(),
		publisher: publish.New(),
		stdout:    io.Discard,
		stderr:    io.Discard,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithLogger sets the progress logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithInstaller replaces the installer built from the configured command.
func WithInstaller(installer deps.Installer) Option {
	return func(b *Builder) {
		b.installer = installer
	}
}

// WithCapabilities overrides the detected platform capabilities.
func WithCapabilities(caps *platform.Capabilities) Option {
	return func(b *Builder) {
		if caps != nil {
			b.caps = caps
		}
	}
}

// WithPublisher overrides the publisher.
func WithPublisher(p *publish.Publisher) Option {
	return func(b *Builder) {
		if p != nil {
			b.publisher = p
		}
	}
}

// WithTempDir sets where the temp archive and dependency scratch directory
// are created ("" means os.TempDir()).
func WithTempDir(dir string) Option {
	return func(b *Builder) {
		b.tempDir = dir
	}
}

// WithOutput forwards the installer's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Builder) {
		if stdout != nil {
			b.stdout = stdout
		}
		if stderr != nil {
			b.stderr = stderr
		}
	}
}

// ArtifactName returns "<name>-<version>.pyz" with the raw project name
// reduced to a file-name-safe component.
func ArtifactName(cfg *config.BuildConfig) string {
	return config.FileNameComponent(cfg.Name) + "-" + cfg.Version + pyzarchive.Extension
}

// ArtifactPath returns the final artifact path.
func (b *Builder) ArtifactPath() string {
	return filepath.Join(b.cfg.OutputDir, ArtifactName(b.cfg))
}

// Build writes the archive to a temp file and publishes it under
// ArtifactPath. On failure the temp file and any dependency scratch
// directory are removed and the artifact path is left untouched.
func (b *Builder) Build(ctx context.Context) (result *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts, err := selection.NewResolver(b.cfg, b.caps).Resolve()
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Resolved selection",
		"include", opts.Include, "packages", opts.Packages, "only-include", opts.OnlyInclude)

	walkOpts := []selection.WalkOption{selection.WithForceInclude(b.cfg.ForceInclude)}
	if pattern, ok := b.outputExclude(); ok {
		walkOpts = append(walkOpts, selection.WithExcludes(pattern))
	}
	projectFiles, err := selection.NewWalker(b.cfg.Root, opts, walkOpts...).Walk(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Selected project files", "count", len(projectFiles))

	vendored, cleanup, err := b.vendor(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := cleanup(); cleanupErr != nil {
			b.logger.Warn("Failed to remove dependency directory", "err", cleanupErr)
		}
	}()

	w, err := pyzarchive.Create(pyzarchive.Options{
		Interpreter:  string(b.cfg.Interpreter),
		Compressed:   b.cfg.Compressed,
		Reproducible: b.cfg.Reproducible,
		Timestamp:    b.cfg.Timestamp(),
		TempDir:      b.tempDir,
		Capabilities: b.caps,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = w.Discard()
		}
	}()

	if err := b.write(ctx, w, projectFiles, vendored); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	dest := b.ArtifactPath()
	if err := b.publisher.Publish(w.Path(), dest, b.cfg.Reproducible); err != nil {
		return nil, err
	}

	sum, size, err := digest(dest)
	if err != nil {
		return nil, err
	}
	b.logger.Info("Built archive", "path", dest, "entries", len(w.Entries()), "size", size)
	return &Result{Path: dest, Entries: w.Entries(), SHA256: sum, Size: size}, nil
}

func (b *Builder) vendor(ctx context.Context) ([]selection.IncludedFile, func() error, error) {
	noop := func() error { return nil }
	if !b.cfg.BundleDependencies || len(b.cfg.Dependencies) == 0 {
		return nil, noop, nil
	}

	installer := b.installer
	if installer == nil {
		pip, err := deps.NewPipInstaller(string(b.cfg.Installer),
			deps.WithEnv(b.cfg.InstallerEnv),
			deps.WithOutput(b.stdout, b.stderr))
		if err != nil {
			return nil, noop, err
		}
		installer = pip
	}

	v := deps.NewVendor(installer, deps.WithTempDir(b.tempDir), deps.WithLogger(b.logger))
	return v.Bundle(ctx, b.cfg.Dependencies)
}

func (b *Builder) write(ctx context.Context, w *pyzarchive.Writer, groups ...[]selection.IncludedFile) error {
	if err := w.WriteBootstrap(string(b.cfg.Main)); err != nil {
		return err
	}
	for _, files := range groups {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.AddFile(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// outputExclude returns an anchored pattern excluding the output directory
// when it lies inside the project root.
func (b *Builder) outputExclude() (string, bool) {
	rel, err := filepath.Rel(b.cfg.Root, b.cfg.OutputDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return "/" + filepath.ToSlash(rel) + "/", true
}

func digest(path string) (sum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	h := sha256.New()
	size, err = io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// Clean removes every regular file or symlink ending in .pyz directly under
// dir and returns the removed paths. Symlink targets are left alone. A missing directory is not an error.
func Clean(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if !isRemovable(e.Type()) || !strings.HasSuffix(e.Name(), pyzarchive.Extension) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func isRemovable(mode fs.FileMode) bool {
	return mode.IsRegular() || mode&fs.ModeSymlink != 0
}
