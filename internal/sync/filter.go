package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
)

// PathFilter is the file-extension allow-list, optionally narrowed further
// by include globs. Watcher events and directory walks run through it before
// anything else.
type PathFilter struct {
	extensions mapset.Set[string]
	includes   []string
}

func NewPathFilter(extensions []string, includeGlobs []string) (*PathFilter, error) {
	exts := mapset.NewSet[string]()
	for _, ext := range extensions {
		exts.Add(strings.ToLower(ext))
	}

	for _, pattern := range includeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include glob %q", pattern)
		}
	}

	return &PathFilter{
		extensions: exts,
		includes:   includeGlobs,
	}, nil
}

// Allowed reports whether the vault-relative path passes the allow-list.
func (f *PathFilter) Allowed(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	if !f.extensions.Contains(ext) {
		return false
	}

	if len(f.includes) == 0 {
		return true
	}
	for _, pattern := range f.includes {
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(relPath)); ok {
			return true
		}
	}
	return false
}
