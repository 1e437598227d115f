// Package scan enumerates candidate document files under a source tree.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/MuZiBin2312/Neusoft-HLHT-2025/pkg/document"
)

// DefaultExtensions is the candidate set when none is configured.
var DefaultExtensions = []string{".xml"}

// Options narrows the candidate set.
type Options struct {
	// Extensions are the file extensions (with leading dot) that qualify,
	// matched case-insensitively. Empty means DefaultExtensions.
	Extensions []string
	// Patterns are optional doublestar globs, relative to the scan root,
	// that a candidate must additionally match. Empty means no restriction.
	Patterns []string
}

// Walk recursively enumerates the tree rooted at root and returns refs for
// every qualifying file in discovery order. The order is the filesystem's
// directory order (lexicographic per directory on this platform) and is not
// guaranteed stable across platforms. An unreadable root or subtree is a
// fatal environment error and aborts the walk.
func Walk(root string, opts Options) ([]document.Ref, error) {
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	for _, pattern := range opts.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid scan pattern %q", pattern)
		}
	}

	var refs []document.Ref
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !matchesExtension(d.Name(), extensions) {
			return nil
		}
		if len(opts.Patterns) > 0 {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !matchesAny(opts.Patterns, filepath.ToSlash(rel)) {
				return nil
			}
		}
		refs = append(refs, document.NewRef(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return refs, nil
}

func matchesExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
