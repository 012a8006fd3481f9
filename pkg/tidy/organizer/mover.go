package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var moverLog = logging.Get("mover")

// dirSet holds directories created during the current run.
type dirSet map[string]struct{}

func (s dirSet) add(dir string) {
	if s != nil {
		s[filepath.Clean(dir)] = struct{}{}
	}
}

func (s dirSet) has(dir string) bool {
	_, ok := s[filepath.Clean(dir)]
	return ok
}

// Mover performs or simulates one move per call.
type Mover struct {
	dryRun  bool
	sink    Sink
	created dirSet
}

// NewMover returns a Mover. A nil sink discards messages.
func NewMover(dryRun bool, sink Sink) *Mover {
	if sink == nil {
		sink = NopSink{}
	}
	return &Mover{dryRun: dryRun, sink: sink, created: make(dirSet)}
}

// Created reports whether dir was created by this Mover as the topmost
// new directory of some destination.
func (m *Mover) Created(dir string) bool {
	return m.created.has(dir)
}

// Move executes task and returns exactly one entry describing the outcome.
// Failures are returned in the entry and never abort the caller.
func (m *Mover) Move(task FileTask) LogEntry {
	entry := LogEntry{
		Source:      task.Source,
		Destination: task.Destination,
		Category:    task.Category,
		Size:        task.Size,
	}

	if task.Noop || task.Source == task.Destination {
		entry.Action = ActionSkipped
		entry.Success = true
		moverLog.Debug("already in place", "path", task.Source)
		return entry
	}

	if m.dryRun {
		entry.Action = ActionDryRun
		m.sink.Info(fmt.Sprintf("would move %s -> %s", task.Source, task.Destination))
		if _, err := os.Lstat(task.Destination); err == nil {
			m.sink.Warn(fmt.Sprintf("%s: %s", ErrDestinationExists, task.Destination))
		}
		return entry
	}

	if err := m.rename(task.Source, task.Destination); err != nil {
		entry.Action = ActionFailed
		entry.Error = err.Error()
		moverLog.Warn("move failed", "src", task.Source, "dest", task.Destination, "error", err)
		m.sink.Error(fmt.Sprintf("failed to move %s: %s", task.Source, entry.Error))
		return entry
	}

	entry.Action = ActionMoved
	entry.Success = true
	moverLog.Debug("moved", "src", task.Source, "dest", task.Destination)
	m.sink.Info(fmt.Sprintf("moved %s -> %s", task.Source, task.Destination))
	return entry
}

func (m *Mover) rename(src, dest string) error {
	dir := filepath.Dir(dest)
	top := topMissing(dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if top != "" {
		m.created.add(top)
	}

	if _, err := os.Lstat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check destination: %w", err)
	}

	return os.Rename(src, dest)
}

// topMissing returns the highest ancestor of dir (or dir itself) that does
// not exist yet, or "" when dir already exists.
func topMissing(dir string) string {
	missing := ""
	for {
		if _, err := os.Lstat(dir); err == nil {
			return missing
		}
		missing = dir
		parent := filepath.Dir(dir)
		if parent == dir {
			return missing
		}
		dir = parent
	}
}
