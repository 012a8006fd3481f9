// Package organizer moves files into category folders. It holds the
// destination resolver, the mover, and the walker that drives them.
package organizer

import (
	"errors"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/datebucket"
)

// Errors returned before a run starts.
var (
	// ErrInvalidRoot is returned when the root is missing or not a directory.
	ErrInvalidRoot = errors.New("invalid root directory")

	// ErrInvalidConfig is returned when a RunConfig is incomplete.
	ErrInvalidConfig = errors.New("invalid run configuration")
)

// ErrDestinationExists is recorded when the destination path is taken.
// Existing files are never overwritten.
var ErrDestinationExists = errors.New("destination already exists")

// Action is the outcome of processing one file.
type Action string

const (
	// ActionDryRun means the move was planned but not performed.
	ActionDryRun Action = "dry_run"
	// ActionMoved means the file was renamed into place.
	ActionMoved Action = "moved"
	// ActionSkipped means the file was already in place.
	ActionSkipped Action = "skipped"
	// ActionFailed means the move was attempted and failed.
	ActionFailed Action = "failed"
)

// LogEntry records the outcome for one file. Entries are values and are
// not modified after they are appended to a RunLog.
type LogEntry struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Action      Action `json:"action" yaml:"action"`
	Success     bool   `json:"success" yaml:"success"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// Failed reports whether the entry is an operational failure.
// Dry-run entries are not failures even though Success is false.
func (e LogEntry) Failed() bool {
	return e.Action == ActionFailed
}

// RunLog is the ordered record of one invocation.
type RunLog struct {
	ID       string     `json:"id" yaml:"id"`
	Root     string     `json:"root" yaml:"root"`
	DryRun   bool       `json:"dry_run" yaml:"dry_run"`
	Started  time.Time  `json:"started" yaml:"started"`
	Finished time.Time  `json:"finished" yaml:"finished"`
	Entries  []LogEntry `json:"entries" yaml:"entries"`
}

func (l *RunLog) append(e LogEntry) {
	l.Entries = append(l.Entries, e)
}

// Duration returns how long the run took.
func (l *RunLog) Duration() time.Duration {
	if l.Finished.IsZero() {
		return 0
	}
	return l.Finished.Sub(l.Started)
}

// FileTask is the work computed for one discovered file.
type FileTask struct {
	Source      string
	Extension   string
	Category    string
	Bucket      string
	Destination string
	Noop        bool
	Size        int64
}

// RunConfig is everything one run needs. It is built once by the caller
// and not modified while the run is in progress.
type RunConfig struct {
	// Classifier maps extensions to categories. Required.
	Classifier *classify.Classifier

	// Buckets adds date subfolders. Nil disables them.
	Buckets *datebucket.Bucketer

	// LogPath is where the run log is appended. The walker never moves it.
	LogPath string

	// Protect lists further files and directories the walker never moves
	// or enters, such as the diagnostic log and the history store.
	Protect []string

	// DryRun plans moves without touching the filesystem.
	DryRun bool

	// Interactive asks the Confirmer before the walk starts.
	Interactive bool

	// Ignore lists glob patterns for entries the walker leaves alone.
	Ignore []string
}
