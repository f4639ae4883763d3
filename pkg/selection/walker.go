// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitignoreFile is read from the project root and applied as exclusions.
const GitignoreFile = ".gitignore"

// globalExcludes are never shipped unless force-included.
var globalExcludes = []string{
	"*.py[cdo]",
	".git",
	".hg",
	".svn",
	"__pycache__/",
	".tox/",
	".nox/",
	".venv/",
	".DS_Store",
}

type (
	// WalkOption configures a Walker.
	WalkOption func(*Walker)

	// Walker expands resolved Options into the files of a project tree.
	Walker struct {
		root         string
		opts         Options
		forceInclude map[string]string
		excludes     []string
	}

	// walkStart is one directory or file the walk begins at.
	walkStart struct {
		rel    string // slash-separated, relative to root
		prefix string // stripped from distribution paths
	}
)

// WithForceInclude adds files or directories (source relative to the project
// root, or absolute) at fixed archive paths, bypassing every exclusion.
func WithForceInclude(m map[string]string) WalkOption {
	return func(w *Walker) {
		w.forceInclude = m
	}
}

// WithExcludes adds gitignore-style patterns, e.g. "/dist/" for the output directory.
func WithExcludes(patterns ...string) WalkOption {
	return func(w *Walker) {
		w.excludes = append(w.excludes, patterns...)
	}
}

// NewWalker creates a Walker for the project at root.
func NewWalker(root string, opts Options, walkOpts ...WalkOption) *Walker {
	w := &Walker{root: root, opts: opts}
	for _, opt := range walkOpts {
		opt(w)
	}
	return w
}

// Walk returns the selected files in deterministic order: each walk start in
// sorted order with its tree visited lexically, then force-included files
// sorted by destination.
//
// Without packages or only-include the whole root is walked. Packages map
// <parent>/<pkg>/... to <pkg>/... in the archive.
func (w *Walker) Walk(ctx context.Context) ([]IncludedFile, error) {
	exclude, err := w.excludeMatcher()
	if err != nil {
		return nil, err
	}
	var include gitignore.Matcher
	if len(w.opts.Include) > 0 {
		include = gitignore.NewMatcher(parsePatterns(w.opts.Include))
	}

	var files []IncludedFile
	seen := make(map[string]bool)
	for _, start := range w.starts() {
		startPath := filepath.Join(w.root, filepath.FromSlash(start.rel))
		if _, err := os.Stat(startPath); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		err := filepath.WalkDir(startPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			rel, err := filepath.Rel(w.root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			parts := strings.Split(rel, "/")

			if d.IsDir() {
				if exclude.Match(parts, true) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isRegular(p, d) || exclude.Match(parts, false) {
				return nil
			}
			if include != nil && !include.Match(parts, false) {
				return nil
			}
			if seen[rel] {
				return nil
			}
			seen[rel] = true

			files = append(files, IncludedFile{
				Path:             p,
				RelativePath:     rel,
				DistributionPath: strings.TrimPrefix(rel, start.prefix),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", start.rel, err)
		}
	}

	forced, err := w.forced(ctx)
	if err != nil {
		return nil, err
	}
	return append(files, forced...), nil
}

func (w *Walker) starts() []walkStart {
	if len(w.opts.Packages) == 0 && len(w.opts.OnlyInclude) == 0 {
		return []walkStart{{rel: "."}}
	}

	byRel := make(map[string]walkStart)
	for _, p := range w.opts.OnlyInclude {
		rel := cleanRel(p)
		byRel[rel] = walkStart{rel: rel}
	}
	for _, p := range w.opts.Packages {
		rel := cleanRel(p)
		start := walkStart{rel: rel}
		if parent := path.Dir(rel); parent != "." {
			start.prefix = parent + "/"
		}
		byRel[rel] = start
	}

	out := make([]walkStart, 0, len(byRel))
	for _, rel := range slices.Sorted(maps.Keys(byRel)) {
		out = append(out, byRel[rel])
	}
	return out
}

func (w *Walker) excludeMatcher() (gitignore.Matcher, error) {
	patterns := parsePatterns(globalExcludes)

	ignored, err := readGitignore(filepath.Join(w.root, GitignoreFile))
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, parsePatterns(ignored)...)
	patterns = append(patterns, parsePatterns(w.opts.Exclude)...)
	patterns = append(patterns, parsePatterns(w.excludes)...)
	return gitignore.NewMatcher(patterns), nil
}

// forced expands the force-include table, sorted by destination.
func (w *Walker) forced(ctx context.Context) ([]IncludedFile, error) {
	var out []IncludedFile
	for _, src := range slices.Sorted(maps.Keys(w.forceInclude)) {
		dst := strings.Trim(filepath.ToSlash(w.forceInclude[src]), "/")

		srcPath := src
		if !filepath.IsAbs(srcPath) {
			srcPath = filepath.Join(w.root, filepath.FromSlash(src))
		}
		info, err := os.Stat(srcPath)
		if err != nil {
			return nil, fmt.Errorf("forced include not found: %s: %w", src, err)
		}

		if !info.IsDir() {
			out = append(out, IncludedFile{Path: srcPath, RelativePath: filepath.ToSlash(src), DistributionPath: dst})
			continue
		}

		err = filepath.WalkDir(srcPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !isRegular(p, d) {
				return nil
			}
			rel, err := filepath.Rel(srcPath, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			out = append(out, IncludedFile{
				Path:             p,
				RelativePath:     path.Join(filepath.ToSlash(src), rel),
				DistributionPath: path.Join(dst, rel),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk forced include %s: %w", src, err)
		}
	}

	slices.SortStableFunc(out, func(a, b IncludedFile) int {
		return strings.Compare(a.DistributionPath, b.DistributionPath)
	})
	return out, nil
}

// isRegular reports whether d is a regular file, following symlinks.
func isRegular(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func cleanRel(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
}

func parsePatterns(lines []string) []gitignore.Pattern {
	patterns := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

func readGitignore(name string) (lines []string, err error) {
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GitignoreFile, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GitignoreFile, err)
	}
	return lines, nil
}
