// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pyzbuild/pyzbuild/internal/config"
	"github.com/pyzbuild/pyzbuild/internal/platform"
)

// Resolver resolves the selection tuple of one configuration at most once.
type Resolver struct {
	root           string
	explicit       Options
	rawName        string
	normalizedName string
	caps           *platform.Capabilities

	once sync.Once
	opts Options
	err  error
}

// NewResolver creates a Resolver for cfg. A nil caps uses platform.Default().
func NewResolver(cfg *config.BuildConfig, caps *platform.Capabilities) *Resolver {
	if caps == nil {
		caps = platform.Default()
	}
	return &Resolver{
		root: cfg.Root,
		explicit: Options{
			Include:     cfg.Include,
			Exclude:     cfg.Exclude,
			Packages:    cfg.Packages,
			OnlyInclude: cfg.OnlyInclude,
		},
		rawName:        cfg.Name,
		normalizedName: cfg.NormalizedName,
		caps:           caps,
	}
}

// Resolve returns the selection tuple. The heuristic runs on the first call
// only; later calls return the cached result, error included.
func (r *Resolver) Resolve() (Options, error) {
	r.once.Do(func() {
		r.opts, r.err = DefaultOptions(r.root, r.explicit, r.rawName, r.normalizedName, r.caps)
	})
	return r.opts, r.err
}

// DefaultOptions returns explicit unchanged when it selects anything.
// Otherwise it tries, for the file-name form of rawName and then of
// normalizedName:
//
//  1. <root>/<name>/__init__.py          packages = [<name>]
//  2. <root>/src/<name>/__init__.py      packages = [src/<name>]
//  3. <root>/<name>.py                   only-include = [<name>.py]
//  4. one <root>/*/<name>/__init__.py    packages = [<namespace>]
//
// Package names use the on-disk casing on case-insensitive platforms.
// Exclude is always passed through. A *SelectionError names both candidates
// when nothing matched.
func DefaultOptions(root string, explicit Options, rawName, normalizedName string, caps *platform.Capabilities) (Options, error) {
	if explicit.IsExplicit() {
		return explicit, nil
	}

	var tried []string
	for _, name := range []string{config.FileNameComponent(rawName), config.FileNameComponent(normalizedName)} {
		opts, ok, err := matchName(root, name, caps)
		if err != nil {
			return Options{}, err
		}
		if ok {
			opts.Exclude = explicit.Exclude
			return opts, nil
		}
		tried = append(tried, name)
	}

	return Options{}, newSelectionError(tried)
}

func matchName(root, name string, caps *platform.Capabilities) (Options, bool, error) {
	if isFile(filepath.Join(root, name, "__init__.py")) {
		canonical, err := caps.CanonicalName(root, name)
		if err != nil {
			return Options{}, false, fmt.Errorf("failed to resolve package name %q: %w", name, err)
		}
		return Options{Packages: []string{canonical}}, true, nil
	}

	src := filepath.Join(root, "src")
	if isFile(filepath.Join(src, name, "__init__.py")) {
		canonical, err := caps.CanonicalName(src, name)
		if err != nil {
			return Options{}, false, fmt.Errorf("failed to resolve package name %q: %w", name, err)
		}
		return Options{Packages: []string{"src/" + canonical}}, true, nil
	}

	module := name + ".py"
	if isFile(filepath.Join(root, module)) {
		return Options{OnlyInclude: []string{module}}, true, nil
	}

	matches, err := filepath.Glob(filepath.Join(globEscape(root), "*", globEscape(name), "__init__.py"))
	if err != nil {
		return Options{}, false, fmt.Errorf("failed to search namespace packages: %w", err)
	}
	var namespaces []string
	for _, m := range matches {
		rel, err := filepath.Rel(root, m)
		if err != nil {
			return Options{}, false, err
		}
		namespace, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		// "*" matches hidden directories; shell globbing does not.
		if strings.HasPrefix(namespace, ".") {
			continue
		}
		namespaces = append(namespaces, namespace)
	}
	if len(namespaces) == 1 {
		return Options{Packages: namespaces}, true, nil
	}

	return Options{}, false, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// globEscape escapes glob metacharacters so literal paths can be part of a pattern.
func globEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '*', '?', '[':
			out = append(out, '[', c, ']')
		case '\\':
			if filepath.Separator == '\\' {
				out = append(out, c)
			} else {
				out = append(out, '\\', c)
			}
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
