package organizer

import (
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	root := filepath.FromSlash("/data/inbox")

	tests := []struct {
		name     string
		root     string
		src      string
		category string
		bucket   string
		wantDest string
		wantNoop bool
	}{
		{
			name:     "top level file",
			src:      filepath.Join(root, "photo.JPG"),
			category: "images",
			wantDest: filepath.Join(root, "images", "photo.JPG"),
		},
		{
			name:     "nested file stays in its folder",
			src:      filepath.Join(root, "trip", "a.png"),
			category: "images",
			wantDest: filepath.Join(root, "trip", "images", "a.png"),
		},
		{
			name:     "with bucket",
			src:      filepath.Join(root, "report.pdf"),
			category: "documents",
			bucket:   "2024-03",
			wantDest: filepath.Join(root, "documents", "2024-03", "report.pdf"),
		},
		{
			name:     "nested bucket",
			src:      filepath.Join(root, "report.pdf"),
			category: "documents",
			bucket:   filepath.Join("2024", "03"),
			wantDest: filepath.Join(root, "documents", "2024", "03", "report.pdf"),
		},
		{
			name:     "already in category",
			src:      filepath.Join(root, "images", "photo.jpg"),
			category: "images",
			wantDest: filepath.Join(root, "images", "photo.jpg"),
			wantNoop: true,
		},
		{
			name:     "already in bucket",
			src:      filepath.Join(root, "documents", "2024-03", "report.pdf"),
			category: "documents",
			bucket:   "2024-03",
			wantDest: filepath.Join(root, "documents", "2024-03", "report.pdf"),
			wantNoop: true,
		},
		{
			name:     "category folder but different bucket",
			src:      filepath.Join(root, "documents", "2023-12", "report.pdf"),
			category: "documents",
			bucket:   "2024-03",
			wantDest: filepath.Join(root, "documents", "2023-12", "documents", "2024-03", "report.pdf"),
		},
		{
			name:     "similar folder name is not a match",
			src:      filepath.Join(root, "my-images", "a.jpg"),
			category: "images",
			wantDest: filepath.Join(root, "my-images", "images", "a.jpg"),
		},
		{
			name:     "root named after category",
			root:     filepath.FromSlash("/data/documents"),
			src:      filepath.FromSlash("/data/documents/report.pdf"),
			category: "documents",
			wantDest: filepath.FromSlash("/data/documents/documents/report.pdf"),
		},
		{
			name:     "root ends in category and bucket",
			root:     filepath.FromSlash("/data/documents/2024-03"),
			src:      filepath.FromSlash("/data/documents/2024-03/report.pdf"),
			category: "documents",
			bucket:   "2024-03",
			wantDest: filepath.FromSlash("/data/documents/2024-03/documents/2024-03/report.pdf"),
		},
		{
			name:     "bucket below root but category above it",
			root:     filepath.FromSlash("/data/documents"),
			src:      filepath.FromSlash("/data/documents/2024-03/report.pdf"),
			category: "documents",
			bucket:   "2024-03",
			wantDest: filepath.FromSlash("/data/documents/2024-03/documents/2024-03/report.pdf"),
		},
		{
			name:     "category folder inside root named after it",
			root:     filepath.FromSlash("/data/documents"),
			src:      filepath.FromSlash("/data/documents/documents/report.pdf"),
			category: "documents",
			wantDest: filepath.FromSlash("/data/documents/documents/report.pdf"),
			wantNoop: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.root
			if r == "" {
				r = root
			}
			dest, noop := Resolve(r, tt.src, tt.category, tt.bucket)
			if dest != tt.wantDest {
				t.Errorf("Resolve() dest = %q, want %q", dest, tt.wantDest)
			}
			if noop != tt.wantNoop {
				t.Errorf("Resolve() noop = %v, want %v", noop, tt.wantNoop)
			}
		})
	}
}
