package organizer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/datebucket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	infos, warns, errs []string
}

func (s *recordingSink) Info(msg string)  { s.infos = append(s.infos, msg) }
func (s *recordingSink) Warn(msg string)  { s.warns = append(s.warns, msg) }
func (s *recordingSink) Error(msg string) { s.errs = append(s.errs, msg) }

func defaultClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.New(classify.Defaults())
	require.NoError(t, err)
	return c
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0o644))
}

// tree returns every path under root, relative and slash separated, with
// a trailing slash on directories.
func tree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		out = append(out, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func newOrganizer(t *testing.T, cfg RunConfig, opts ...Option) *Organizer {
	t.Helper()
	if cfg.Classifier == nil {
		cfg.Classifier = defaultClassifier(t)
	}
	o, err := New(cfg, opts...)
	require.NoError(t, err)
	return o
}

func countActions(log *RunLog) map[Action]int {
	counts := make(map[Action]int)
	for _, e := range log.Entries {
		counts[e.Action]++
	}
	return counts
}

func TestRun_DefaultCategories(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"photo.JPG", "report.pdf", "archive.zip", "notes"} {
		writeFile(t, filepath.Join(root, name))
	}

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)

	assert.Len(t, log.Entries, 4)
	assert.Equal(t, 4, countActions(log)[ActionMoved])
	assert.Equal(t, []string{
		"archives/",
		"archives/archive.zip",
		"documents/",
		"documents/report.pdf",
		"images/",
		"images/photo.JPG",
		"other/",
		"other/notes",
	}, tree(t, root))

	for _, e := range log.Entries {
		assert.True(t, e.Success)
		assert.Empty(t, e.Error)
		assert.Equal(t, filepath.Base(e.Source), filepath.Base(e.Destination))
	}
}

func TestRun_DateBuckets(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "report.pdf")
	writeFile(t, src)
	march := time.Date(2024, time.March, 12, 10, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(src, march, march))

	buckets, err := datebucket.New(true, "%Y-%m")
	require.NoError(t, err)

	log, err := newOrganizer(t, RunConfig{Buckets: buckets}).Run(root)
	require.NoError(t, err)

	require.Len(t, log.Entries, 1)
	assert.Equal(t, filepath.Join(root, "documents", "2024-03", "report.pdf"), log.Entries[0].Destination)
	assert.FileExists(t, filepath.Join(root, "documents", "2024-03", "report.pdf"))

	second, err := newOrganizer(t, RunConfig{Buckets: buckets}).Run(root)
	require.NoError(t, err)
	assert.Equal(t, 0, countActions(second)[ActionMoved])
	assert.Equal(t, 1, countActions(second)[ActionSkipped])
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png", "c.txt", "sub/d.mp3", "sub/deeper/e.zip", "f"} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)))
	}

	first, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)
	assert.Equal(t, 6, countActions(first)[ActionMoved])
	after := tree(t, root)

	second, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)
	assert.Equal(t, 0, countActions(second)[ActionMoved])
	assert.Equal(t, 6, countActions(second)[ActionSkipped])
	assert.Equal(t, after, tree(t, root))
}

func TestRun_DryRunLeavesTreeUntouched(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"photo.JPG", "report.pdf", "nested/archive.zip", "notes"} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(name)))
	}
	before := tree(t, root)

	sink := &recordingSink{}
	log, err := newOrganizer(t, RunConfig{DryRun: true}, WithSink(sink)).Run(root)
	require.NoError(t, err)

	assert.Equal(t, before, tree(t, root))
	assert.True(t, log.DryRun)
	assert.Len(t, log.Entries, 4)
	for _, e := range log.Entries {
		assert.Equal(t, ActionDryRun, e.Action)
		assert.False(t, e.Success)
		assert.False(t, e.Failed())
		assert.Empty(t, e.Error)
		assert.NotEqual(t, e.Source, e.Destination)
	}
	assert.Len(t, sink.infos, 4)
	assert.Empty(t, sink.errs)
}

func TestRun_RenameFailureContinues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "report.pdf"))
	writeFile(t, filepath.Join(root, "photo.jpg"))
	// documents/report.pdf is an occupied directory.
	writeFile(t, filepath.Join(root, "documents", "report.pdf", "documents", "keep.pdf"))

	sink := &recordingSink{}
	log, err := newOrganizer(t, RunConfig{}, WithSink(sink)).Run(root)
	require.NoError(t, err)

	var failed []LogEntry
	for _, e := range log.Entries {
		if e.Failed() {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(root, "report.pdf"), failed[0].Source)
	assert.False(t, failed[0].Success)
	assert.NotEmpty(t, failed[0].Error)
	assert.Len(t, sink.errs, 1)

	assert.FileExists(t, filepath.Join(root, "report.pdf"))
	assert.FileExists(t, filepath.Join(root, "images", "photo.jpg"))
}

func TestRun_EmptyRoot(t *testing.T) {
	root := t.TempDir()

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)
	assert.Empty(t, log.Entries)
	assert.NotNil(t, log.Entries)
	assert.NotEmpty(t, log.ID)
	assert.Equal(t, root, log.Root)
	assert.False(t, log.Finished.Before(log.Started))
}

func TestRun_DoesNotDescendIntoCreatedFolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "a.jpg"))
	writeFile(t, filepath.Join(root, "b.jpg"))

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)

	assert.Len(t, log.Entries, 2)
	assert.Equal(t, 2, countActions(log)[ActionMoved])
	assert.FileExists(t, filepath.Join(root, "sub", "images", "a.jpg"))
	assert.FileExists(t, filepath.Join(root, "images", "b.jpg"))
}

func TestRun_ExistingCategoryFolderVisitedBeforeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "images", "old.jpg"))
	writeFile(t, filepath.Join(root, "new.jpg"))

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)

	require.Len(t, log.Entries, 2)
	counts := countActions(log)
	assert.Equal(t, 1, counts[ActionSkipped])
	assert.Equal(t, 1, counts[ActionMoved])

	seen := make(map[string]int)
	for _, e := range log.Entries {
		seen[filepath.Base(e.Source)]++
	}
	assert.Equal(t, map[string]int{"old.jpg": 1, "new.jpg": 1}, seen)
}

func TestRun_IgnoreAndProtect(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "runs.log")
	writeFile(t, logPath)
	writeFile(t, logPath+".lock")
	writeFile(t, filepath.Join(root, ".DS_Store"))
	writeFile(t, filepath.Join(root, "skip", "x.jpg"))
	writeFile(t, filepath.Join(root, "y.jpg"))

	log, err := newOrganizer(t, RunConfig{
		LogPath: logPath,
		Ignore:  []string{".DS_Store", "skip"},
	}).Run(root)
	require.NoError(t, err)

	require.Len(t, log.Entries, 1)
	assert.Equal(t, filepath.Join(root, "y.jpg"), log.Entries[0].Source)
	assert.FileExists(t, logPath)
	assert.FileExists(t, filepath.Join(root, "skip", "x.jpg"))
}

func TestRun_ProtectedPaths(t *testing.T) {
	root := t.TempDir()
	diagLog := filepath.Join(root, "state", "tidy.log")
	historyDir := filepath.Join(root, "data", "history")
	writeFile(t, diagLog)
	writeFile(t, filepath.Join(historyDir, "000001.vlog"))
	writeFile(t, filepath.Join(root, "a.jpg"))

	log, err := newOrganizer(t, RunConfig{Protect: []string{diagLog, historyDir}}).Run(root)
	require.NoError(t, err)

	require.Len(t, log.Entries, 1)
	assert.Equal(t, filepath.Join(root, "a.jpg"), log.Entries[0].Source)
	assert.FileExists(t, diagLog)
	assert.FileExists(t, filepath.Join(historyDir, "000001.vlog"))
}

func TestRun_RootNamedAfterCategory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "documents")
	writeFile(t, filepath.Join(root, "report.pdf"))
	writeFile(t, filepath.Join(root, "photo.jpg"))

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)

	assert.Equal(t, 2, countActions(log)[ActionMoved])
	assert.Equal(t, []string{
		"documents/",
		"documents/report.pdf",
		"images/",
		"images/photo.jpg",
	}, tree(t, root))

	second, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)
	assert.Equal(t, 0, countActions(second)[ActionMoved])
	assert.Equal(t, 2, countActions(second)[ActionSkipped])
}

func TestRun_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real.txt"))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	log, err := newOrganizer(t, RunConfig{}).Run(root)
	require.NoError(t, err)

	require.Len(t, log.Entries, 1)
	assert.Equal(t, filepath.Join(root, "real.txt"), log.Entries[0].Source)
}

func TestRun_InvalidRoot(t *testing.T) {
	o := newOrganizer(t, RunConfig{})

	_, err := o.Run(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidRoot)

	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file)
	_, err = o.Run(file)
	assert.ErrorIs(t, err, ErrInvalidRoot)
}

func TestRun_Interactive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"))

	var prompts []string
	decline := ConfirmFunc(func(p string) (bool, error) {
		prompts = append(prompts, p)
		return false, nil
	})

	_, err := newOrganizer(t, RunConfig{Interactive: true}, WithConfirmer(decline)).Run(root)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Len(t, prompts, 1)
	assert.FileExists(t, filepath.Join(root, "a.jpg"))

	broken := ConfirmFunc(func(string) (bool, error) { return false, errors.New("no tty") })
	_, err = newOrganizer(t, RunConfig{Interactive: true}, WithConfirmer(broken)).Run(root)
	assert.Error(t, err)

	log, err := newOrganizer(t, RunConfig{Interactive: true},
		WithConfirmer(AlwaysConfirm),
		WithPrompt(func(string) string { return "go?" }),
	).Run(root)
	require.NoError(t, err)
	assert.Equal(t, 1, countActions(log)[ActionMoved])
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(RunConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(RunConfig{Classifier: defaultClassifier(t), Interactive: true})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(RunConfig{Classifier: defaultClassifier(t), Ignore: []string{"[bad"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
