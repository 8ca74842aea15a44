package utils

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchAny reports whether relPath matches any of the doublestar patterns.
// An empty pattern list matches everything. Matching is case-insensitive.
func MatchAny(patterns []string, relPath string) bool {
	if len(patterns) == 0 {
		return true
	}
	name := strings.ToLower(filepath.ToSlash(relPath))
	for _, p := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(p), name); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidatePatterns returns the first malformed pattern, if any.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return doublestar.ErrBadPattern
		}
	}
	return nil
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}
