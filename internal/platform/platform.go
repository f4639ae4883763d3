// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// EncodingUTF8 requires the interpreter path to be valid UTF-8.
	EncodingUTF8 ShebangEncoding = "utf-8"
	// EncodingFilesystem writes the interpreter path bytes unchanged, as the
	// kernel reads them.
	EncodingFilesystem ShebangEncoding = "filesystem"

	// listingCacheSize bounds the number of directory listings kept for
	// canonical-name recovery.
	listingCacheSize = 64
)

// ErrInvalidShebang is returned when an interpreter path cannot be encoded
// for the shebang line.
var ErrInvalidShebang = errors.New("invalid shebang interpreter")

type (
	// ShebangEncoding names the text encoding of the shebang line.
	ShebangEncoding string

	// Capabilities is the platform-dependent behavior pair used by the builder.
	// It is immutable after construction and safe for concurrent use.
	Capabilities struct {
		goos        string
		encoding    ShebangEncoding
		resolveName func(dir, name string) (string, error)
	}

	// foldingResolver recovers on-disk casing by listing the parent directory
	// and comparing case-folded names.
	foldingResolver struct {
		listings *lru.Cache[string, []string]
	}
)

var detect = sync.OnceValue(func() *Capabilities {
	return ForOS(runtime.GOOS)
})

// Default returns the capabilities of the running platform. The value is
// computed on first use and shared for the life of the process.
func Default() *Capabilities {
	return detect()
}

// ForOS returns the capabilities for the given GOOS value.
// darwin and windows are treated as case-insensitive; windows shebangs are UTF-8.
func ForOS(goos string) *Capabilities {
	c := &Capabilities{
		goos:        goos,
		encoding:    EncodingFilesystem,
		resolveName: identityName,
	}
	if goos == Windows {
		c.encoding = EncodingUTF8
	}
	if goos == Darwin || goos == Windows {
		listings, err := lru.New[string, []string](listingCacheSize)
		if err != nil {
			// lru.New only fails for a non-positive size.
			panic(err)
		}
		c.resolveName = (&foldingResolver{listings: listings}).resolve
	}
	return c
}

// GOOS returns the operating system these capabilities were built for.
func (c *Capabilities) GOOS() string { return c.goos }

// CaseInsensitive reports whether canonical-name recovery lists directories.
func (c *Capabilities) CaseInsensitive() bool {
	return c.goos == Darwin || c.goos == Windows
}

// CanonicalName returns the spelling of name as stored in dir.
// On case-sensitive platforms name is returned unchanged. When no entry of
// dir folds to the same string, name is returned unchanged as well.
func (c *Capabilities) CanonicalName(dir, name string) (string, error) {
	return c.resolveName(dir, name)
}

// ShebangEncoding returns the encoding used for the shebang line.
func (c *Capabilities) ShebangEncoding() ShebangEncoding {
	return c.encoding
}

// EncodeShebang renders "#!<interpreter>\n" using the platform encoding.
func (c *Capabilities) EncodeShebang(interpreter string) ([]byte, error) {
	if c.encoding == EncodingUTF8 && !utf8.ValidString(interpreter) {
		return nil, fmt.Errorf("%w: %q is not valid %s", ErrInvalidShebang, interpreter, c.encoding)
	}
	line := make([]byte, 0, len(interpreter)+3)
	line = append(line, '#', '!')
	line = append(line, interpreter...)
	line = append(line, '\n')
	return line, nil
}

func identityName(_, name string) (string, error) {
	return name, nil
}

func (r *foldingResolver) resolve(dir, name string) (string, error) {
	entries, err := r.list(dir)
	if err != nil {
		return "", err
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, entry := range entries {
		if fold.String(entry) == want {
			return entry, nil
		}
	}
	return name, nil
}

func (r *foldingResolver) list(dir string) ([]string, error) {
	if names, ok := r.listings.Get(dir); ok {
		return names, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	r.listings.Add(dir, names)
	return names, nil
}
