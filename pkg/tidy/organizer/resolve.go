package organizer

import (
	"path/filepath"
	"slices"
	"strings"
)

// Resolve returns where src belongs: its directory, then category, then
// the bucket segments, then the unchanged base name. When the folders
// between root and src already end in those segments the file is in place
// and noop is true. Folders at or above root never count, so a root named
// after a category still has its top-level files moved.
func Resolve(root, src, category, bucket string) (dest string, noop bool) {
	dir, base := filepath.Split(src)
	dir = filepath.Clean(dir)

	segments := []string{category}
	if bucket != "" {
		segments = append(segments, strings.Split(filepath.ToSlash(bucket), "/")...)
	}

	if endsWith(below(root, dir), segments) {
		return src, true
	}

	parts := append([]string{dir}, segments...)
	parts = append(parts, base)
	return filepath.Join(parts...), false
}

// below returns the folder names from root down to dir. dir equal to root,
// or outside it, has none.
func below(root, dir string) []string {
	rel, err := filepath.Rel(filepath.Clean(root), dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func endsWith(elems, segments []string) bool {
	if len(elems) < len(segments) {
		return false
	}
	return slices.Equal(elems[len(elems)-len(segments):], segments)
}
