// SPDX-License-Identifier: MPL-2.0

package pyzarchive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pyzbuild/pyzbuild/internal/platform"
	"github.com/pyzbuild/pyzbuild/pkg/selection"

	"github.com/klauspost/compress/flate"
)

const (
	// BootstrapName is the module Python runs when executing the archive.
	BootstrapName = "__main__.py"
	// Extension is the file suffix of built archives.
	Extension = ".pyz"

	// copyChunkSize bounds the buffer used to stream each file.
	copyChunkSize = 16 * 1024
	// deflateLevel is fixed so compressed output depends only on the input.
	deflateLevel = flate.DefaultCompression
	bootstrapMode fs.FileMode = 0o644
)

type (
	// Options configures Create.
	Options struct {
		// Interpreter is written on the shebang line.
		Interpreter string
		// Compressed selects Deflate instead of Store for every entry.
		Compressed bool
		// Reproducible fixes timestamps to Timestamp and normalizes modes.
		Reproducible bool
		// Timestamp is the shared entry time in reproducible mode.
		Timestamp time.Time
		// TempDir holds the temp archive ("" means os.TempDir()).
		TempDir string
		// Capabilities controls shebang encoding (nil means platform.Default()).
		Capabilities *platform.Capabilities
	}

	// Writer builds an archive in a temp file. Call Close to finalize it, or
	// Discard to remove it; Discard after Close removes the finished file.
	Writer struct {
		opts    Options
		method  uint16
		file    *os.File
		zw      *zip.Writer
		path    string
		entries []Entry
		closed  bool
	}
)

// Create opens a temp file, writes the shebang line and starts the zip
// payload right after it.
func Create(opts Options) (w *Writer, err error) {
	caps := opts.Capabilities
	if caps == nil {
		caps = platform.Default()
	}
	shebang, err := caps.EncodeShebang(opts.Interpreter)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(opts.TempDir, "pyzbuild-*"+Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err := f.Write(shebang); err != nil {
		return nil, fmt.Errorf("failed to write shebang: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.SetOffset(int64(len(shebang)))

	method := zip.Store
	if opts.Compressed {
		method = zip.Deflate
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, deflateLevel)
		})
	}

	return &Writer{
		opts:   opts,
		method: method,
		file:   f,
		zw:     zw,
		path:   f.Name(),
	}, nil
}

// Path returns the temp archive path.
func (w *Writer) Path() string {
	return w.path
}

// Entries returns the members written so far, in order.
func (w *Writer) Entries() []Entry {
	return slices.Clone(w.entries)
}

// Names returns the member names written so far, in order.
func (w *Writer) Names() []string {
	names := make([]string, len(w.entries))
	for i, e := range w.entries {
		names[i] = e.Name
	}
	return names
}

// WriteBootstrap writes __main__.py importing the module of entryPoint
// ("pkg.module:callable") and calling the callable.
func (w *Writer) WriteBootstrap(entryPoint string) error {
	module, callable, ok := strings.Cut(entryPoint, ":")
	if !ok || module == "" || callable == "" {
		return fmt.Errorf("invalid entry point %q: must take the form `pkg.module:callable`", entryPoint)
	}

	content := strings.Join([]string{
		"# -*- coding: utf-8 -*-",
		"import " + module,
		module + "." + callable + "()",
	}, "\n")

	modified := w.opts.Timestamp
	if !w.opts.Reproducible {
		modified = time.Now()
	}

	return w.write(w.header(BootstrapName, modified, bootstrapMode), strings.NewReader(content))
}

// AddFile copies f into the archive under its normalized distribution path.
func (w *Writer) AddFile(f selection.IncludedFile) (err error) {
	name, err := NormalizeName(f.DistributionPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingSourceError{Path: f.Path, Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}
	if info.IsDir() {
		return &InvalidEntryError{Name: f.DistributionPath, Reason: "source is a directory"}
	}

	var fh *zip.FileHeader
	if w.opts.Reproducible {
		fh = w.header(name, w.opts.Timestamp, NormalizeMode(info.Mode()))
	} else {
		fh, err = zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create header for %s: %w", f.Path, err)
		}
		fh.Name = name
		fh.Method = w.method
	}

	src, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingSourceError{Path: f.Path, Err: err}
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return w.write(fh, src)
}

// Close writes the central directory and closes the temp file.
func (w *Writer) Close() (err error) {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	defer func() {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	return nil
}

// Discard closes the writer if needed and removes the temp file.
func (w *Writer) Discard() error {
	if !w.closed {
		w.closed = true
		_ = w.file.Close()
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove temp archive: %w", err)
	}
	return nil
}

func (w *Writer) header(name string, modified time.Time, mode fs.FileMode) *zip.FileHeader {
	fh := &zip.FileHeader{
		Name:     name,
		Method:   w.method,
		Modified: modified,
	}
	fh.SetMode(mode)
	return fh
}

func (w *Writer) write(fh *zip.FileHeader, src io.Reader) error {
	if w.closed {
		return ErrWriterClosed
	}

	dst, err := w.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", fh.Name, err)
	}

	buf := make([]byte, copyChunkSize)
	// The anonymous structs hide ReaderFrom/WriterTo so every copy goes
	// through buf.
	if _, err := io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, buf); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", fh.Name, err)
	}

	w.entries = append(w.entries, Entry{
		Name:     fh.Name,
		Modified: fh.Modified,
		Mode:     fh.Mode(),
		Method:   fh.Method,
	})
	return nil
}
