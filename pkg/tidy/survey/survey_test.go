package survey

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func classifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New(classify.Defaults())
	require.NoError(t, err)
	return c
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), 10)
	writeFile(t, filepath.Join(root, "images", "b.png"), 20)
	writeFile(t, filepath.Join(root, "docs", "c.pdf"), 30)
	writeFile(t, filepath.Join(root, "notes"), 5)
	writeFile(t, filepath.Join(root, ".DS_Store"), 1)
	writeFile(t, filepath.Join(root, "node_modules", "x.js"), 100)

	p, err := Scan(context.Background(), Options{
		Root:       root,
		Classifier: classifier(t),
		Ignore:     []string{".DS_Store", "node_modules"},
	})
	require.NoError(t, err)

	assert.Equal(t, root, p.Root)
	assert.Equal(t, int64(4), p.Files)
	assert.Equal(t, int64(65), p.Bytes)
	assert.Equal(t, int64(2), p.Dirs)
	assert.Equal(t, int64(3), p.Misplaced)
	assert.Empty(t, p.Errors)

	assert.Equal(t, CategoryCount{Name: "images", Files: 2, Bytes: 30}, p.Category("images"))
	assert.Equal(t, CategoryCount{Name: "documents", Files: 1, Bytes: 30}, p.Category("documents"))
	assert.Equal(t, CategoryCount{Name: "other", Files: 1, Bytes: 5}, p.Category("other"))
	assert.Equal(t, CategoryCount{Name: "videos"}, p.Category("videos"))

	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"images", "documents", "other"}, names)
}

func TestScan_RootNamedAfterCategory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "documents")
	writeFile(t, filepath.Join(root, "report.pdf"), 1)
	writeFile(t, filepath.Join(root, "documents", "placed.pdf"), 1)

	p, err := Scan(context.Background(), Options{Root: root, Classifier: classifier(t)})
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.Files)
	assert.Equal(t, int64(1), p.Misplaced)
}

func TestScan_SkipsProtectedPaths(t *testing.T) {
	root := t.TempDir()
	historyDir := filepath.Join(root, "history")
	writeFile(t, filepath.Join(historyDir, "000001.vlog"), 50)
	writeFile(t, filepath.Join(root, "runs.log"), 50)
	writeFile(t, filepath.Join(root, "a.jpg"), 1)

	p, err := Scan(context.Background(), Options{
		Root:       root,
		Classifier: classifier(t),
		Protect:    []string{historyDir, filepath.Join(root, "runs.log")},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.Files)
	assert.Equal(t, int64(1), p.Bytes)
	assert.Equal(t, int64(0), p.Dirs)
}

func TestScan_DoesNotModify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), 1)

	_, err := Scan(context.Background(), Options{Root: root, Classifier: classifier(t), Workers: 2})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "a.jpg"))
	assert.NoDirExists(t, filepath.Join(root, "images"))
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(context.Background(), Options{Root: t.TempDir()})
	assert.Error(t, err)

	_, err = Scan(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing"), Classifier: classifier(t)})
	assert.ErrorIs(t, err, organizer.ErrInvalidRoot)

	_, err = Scan(context.Background(), Options{Root: t.TempDir(), Classifier: classifier(t), Ignore: []string{"[bad"}})
	assert.Error(t, err)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, Options{Root: root, Classifier: classifier(t)})
	assert.ErrorIs(t, err, context.Canceled)
}
