package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
)

var log = logging.Get("report")

// ErrMalformed is returned by ReadRuns when a block cannot be parsed.
var ErrMalformed = errors.New("malformed run log")

const headerPrefix = "# "

// Run is one block read back from the run log file.
type Run struct {
	Time    time.Time
	ID      string
	Root    string
	Entries []organizer.LogEntry
}

// Persist appends runLog to the file at path. Dry-run logs are never
// written. Concurrent writers are serialised with a lock on path+".lock".
func Persist(runLog *organizer.RunLog, path string) error {
	if runLog == nil || runLog.DryRun {
		return nil
	}
	if path == "" {
		return errors.New("run log path cannot be empty")
	}

	block, err := encodeBlock(runLog)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create run log directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock run log: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to unlock run log", "path", path, "error", err)
		}
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(block); err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	log.Debug("run log appended", "path", path, "id", runLog.ID, "entries", len(runLog.Entries))
	return nil
}

func encodeBlock(runLog *organizer.RunLog) ([]byte, error) {
	entries := runLog.Entries
	if entries == nil {
		entries = []organizer.LogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}

	stamp := runLog.Started
	if stamp.IsZero() {
		stamp = time.Now()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%s run=%s root=%s\n", headerPrefix, stamp.Format(time.RFC3339), runLog.ID, runLog.Root)
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// ReadRuns parses a run log file written by Persist.
func ReadRuns(r io.Reader) ([]Run, error) {
	var (
		runs    []Run
		current *Run
		body    strings.Builder
		lineNo  int
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		var entries []organizer.LogEntry
		if err := json.Unmarshal([]byte(body.String()), &entries); err != nil {
			return fmt.Errorf("%w: run %s: %w", ErrMalformed, current.ID, err)
		}
		if entries == nil {
			entries = []organizer.LogEntry{}
		}
		current.Entries = entries
		runs = append(runs, *current)
		current = nil
		body.Reset()
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, headerPrefix) {
			if err := flush(); err != nil {
				return nil, err
			}
			run, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, lineNo, err)
			}
			current = &run
			continue
		}
		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: content before first header", ErrMalformed, lineNo)
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// ReadRunsFile opens path and parses it with ReadRuns. A missing file
// yields no runs.
func ReadRunsFile(path string) ([]Run, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Run{}, nil
		}
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()
	return ReadRuns(f)
}

func parseHeader(line string) (Run, error) {
	rest := strings.TrimPrefix(line, headerPrefix)

	stamp, rest, _ := strings.Cut(rest, " ")
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return Run{}, fmt.Errorf("bad timestamp %q", stamp)
	}
	run := Run{Time: t}

	if !strings.HasPrefix(rest, "run=") {
		return run, nil
	}
	id, root, _ := strings.Cut(strings.TrimPrefix(rest, "run="), " ")
	run.ID = id
	run.Root = strings.TrimPrefix(root, "root=")
	return run, nil
}
