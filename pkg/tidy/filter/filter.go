// Package filter decides which paths tidy leaves alone, using glob patterns.
package filter

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned when an ignore pattern does not compile.
var ErrInvalidPattern = errors.New("invalid ignore pattern")

type pattern struct {
	raw      string
	glob     glob.Glob
	fullPath bool
}

// Filter matches root-relative paths against ignore patterns.
// Patterns without a slash match the base name anywhere in the tree;
// patterns with a slash match the whole relative path.
// A nil Filter ignores nothing.
type Filter struct {
	patterns []pattern
}

// New compiles patterns. Blank patterns are dropped.
func New(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		full := strings.Contains(p, "/")
		g, err := glob.Compile(strings.TrimPrefix(p, "/"), '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		f.patterns = append(f.patterns, pattern{raw: p, glob: g, fullPath: full})
	}
	return f, nil
}

// Match reports whether rel, a path relative to the organised root, is
// ignored. Both slash and OS-separated paths are accepted.
func (f *Filter) Match(rel string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, p := range f.patterns {
		target := base
		if p.fullPath {
			target = rel
		}
		if p.glob.Match(target) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns in order.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		out[i] = p.raw
	}
	return out
}
