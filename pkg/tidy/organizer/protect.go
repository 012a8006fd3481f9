package organizer

import "path/filepath"

// Protected is a set of absolute paths a run leaves alone. A protected
// directory covers everything below it.
type Protected map[string]struct{}

// NewProtected returns the set of the absolute forms of paths. Empty
// paths are dropped.
func NewProtected(paths ...string) Protected {
	p := make(Protected, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			p[abs] = struct{}{}
		}
	}
	return p
}

// Has reports whether path or one of its parents is protected.
func (p Protected) Has(path string) bool {
	if len(p) == 0 {
		return false
	}
	path = filepath.Clean(path)
	for {
		if _, ok := p[path]; ok {
			return true
		}
		parent := filepath.Dir(path)
		if parent == path {
			return false
		}
		path = parent
	}
}
