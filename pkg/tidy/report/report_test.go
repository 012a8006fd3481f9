package report

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLog() *organizer.RunLog {
	return &organizer.RunLog{
		ID:      "run-1",
		Root:    "/data/my inbox",
		Started: time.Date(2024, time.March, 12, 10, 30, 0, 0, time.UTC),
		Entries: []organizer.LogEntry{
			{Source: "/data/my inbox/a.jpg", Destination: "/data/my inbox/images/a.jpg", Action: organizer.ActionMoved, Success: true, Size: 100},
			{Source: "/data/my inbox/b.pdf", Destination: "/data/my inbox/documents/b.pdf", Action: organizer.ActionMoved, Success: true, Size: 50},
			{Source: "/data/my inbox/images/c.png", Destination: "/data/my inbox/images/c.png", Action: organizer.ActionSkipped, Success: true},
			{Source: "/data/my inbox/d.zip", Destination: "/data/my inbox/archives/d.zip", Action: organizer.ActionFailed, Error: "permission denied"},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLog())

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Moved)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 0, s.Planned)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, int64(150), s.BytesMoved)
	assert.Equal(t, []ErrorDetail{{Source: "/data/my inbox/d.zip", Error: "permission denied"}}, s.ErrorDetails)
	assert.True(t, s.HasErrors())
}

func TestSummarize_DryRunIsNotAnError(t *testing.T) {
	log := &organizer.RunLog{DryRun: true, Entries: []organizer.LogEntry{
		{Source: "a", Destination: "b", Action: organizer.ActionDryRun},
		{Source: "c", Destination: "d", Action: organizer.ActionDryRun},
	}}

	s := Summarize(log)
	assert.Equal(t, 2, s.Planned)
	assert.Equal(t, 0, s.Errors)
	assert.False(t, s.HasErrors())
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize(&organizer.RunLog{Entries: []organizer.LogEntry{}}))
}

func TestPersist_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runs.log")
	first := sampleLog()
	second := &organizer.RunLog{ID: "run-2", Root: "/x", Started: first.Started.Add(time.Hour), Entries: []organizer.LogEntry{}}

	require.NoError(t, Persist(first, path))
	require.NoError(t, Persist(second, path))

	runs, err := ReadRunsFile(path)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "/data/my inbox", runs[0].Root)
	assert.True(t, runs[0].Time.Equal(first.Started))
	assert.Equal(t, first.Entries, runs[0].Entries)

	assert.Equal(t, "run-2", runs[1].ID)
	assert.Empty(t, runs[1].Entries)
	assert.NotNil(t, runs[1].Entries)
}

func TestPersist_EmptyRunFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.log")
	log := &organizer.RunLog{ID: "abc", Root: "/r", Started: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Entries: []organizer.LogEntry{}}

	require.NoError(t, Persist(log, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# 2024-01-02T03:04:05Z run=abc root=/r\n[]\n\n", string(data))
	assert.FileExists(t, path+".lock")
}

func TestPersist_DryRunIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.log")
	log := sampleLog()
	log.DryRun = true

	require.NoError(t, Persist(log, path))
	assert.NoFileExists(t, path)
	assert.NoError(t, Persist(nil, path))
}

func TestPersist_EmptyPath(t *testing.T) {
	assert.Error(t, Persist(sampleLog(), ""))
}

func TestPersist_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.log")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Persist(sampleLog(), path))
		}()
	}
	wg.Wait()

	runs, err := ReadRunsFile(path)
	require.NoError(t, err)
	assert.Len(t, runs, 8)
	for _, r := range runs {
		assert.Len(t, r.Entries, 4)
	}
}

func TestReadRuns_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"content before header", "[]\n"},
		{"bad timestamp", "# yesterday run=a root=/\n[]\n"},
		{"bad json", "# 2024-01-02T03:04:05Z run=a root=/\n[{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRuns(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestReadRunsFile_Missing(t *testing.T) {
	runs, err := ReadRunsFile(filepath.Join(t.TempDir(), "nope.log"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}
