package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/datebucket"
	"github.com/jamesainslie/tidy/pkg/tidy/filter"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var walkLog = logging.Get("walker")

// ErrAborted is returned when the Confirmer declines an interactive run.
var ErrAborted = errors.New("run aborted")

// Option configures an Organizer.
type Option func(*Organizer)

// WithSink sets the progress sink.
func WithSink(s Sink) Option {
	return func(o *Organizer) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithConfirmer sets the Confirmer used by interactive runs.
func WithConfirmer(c Confirmer) Option {
	return func(o *Organizer) {
		o.confirm = c
	}
}

// WithPrompt replaces the confirmation prompt builder.
func WithPrompt(fn func(root string) string) Option {
	return func(o *Organizer) {
		if fn != nil {
			o.prompt = fn
		}
	}
}

// Organizer walks a tree and moves every regular file into its category.
type Organizer struct {
	cfg     RunConfig
	sink    Sink
	confirm Confirmer
	prompt  func(root string) string
	ignore  *filter.Filter
	protect Protected
}

// New validates cfg and returns an Organizer.
func New(cfg RunConfig, opts ...Option) (*Organizer, error) {
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("%w: no category rules", ErrInvalidConfig)
	}
	if cfg.Buckets == nil {
		cfg.Buckets = &datebucket.Bucketer{}
	}

	ignore, err := filter.New(cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	o := &Organizer{
		cfg:     cfg,
		sink:    NopSink{},
		ignore:  ignore,
	}
	o.prompt = o.defaultPrompt
	for _, opt := range opts {
		opt(o)
	}

	if cfg.Interactive && o.confirm == nil {
		return nil, fmt.Errorf("%w: interactive run without a confirmer", ErrInvalidConfig)
	}

	protect := append([]string{}, cfg.Protect...)
	if cfg.LogPath != "" {
		protect = append(protect, cfg.LogPath, cfg.LogPath+".lock")
	}
	o.protect = NewProtected(protect...)
	return o, nil
}

// Config returns the run configuration.
func (o *Organizer) Config() RunConfig {
	return o.cfg
}

// ValidateRoot resolves root to an absolute directory path.
func ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: path does not exist: %s", ErrInvalidRoot, abs)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: path is not a directory: %s", ErrInvalidRoot, abs)
	}
	return abs, nil
}

// Run organises the tree under root. Errors are returned only for problems
// that stop the run before any file is touched; per-file failures are
// recorded in the returned log.
func (o *Organizer) Run(root string) (*RunLog, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	if o.cfg.Interactive {
		ok, err := o.confirm.Confirm(o.prompt(abs))
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	log := &RunLog{
		ID:      uuid.NewString(),
		Root:    abs,
		DryRun:  o.cfg.DryRun,
		Started: time.Now(),
		Entries: []LogEntry{},
	}
	walkLog.Info("run started", "id", log.ID, "root", abs, "dry_run", o.cfg.DryRun)

	mover := NewMover(o.cfg.DryRun, o.sink)
	o.walk(abs, abs, entries, mover, log)

	log.Finished = time.Now()
	walkLog.Info("run finished", "id", log.ID, "entries", len(log.Entries), "elapsed", log.Duration())
	return log, nil
}

// walk handles one directory snapshot: subdirectories first, depth first,
// then the files of the snapshot.
func (o *Organizer) walk(root, dir string, entries []fs.DirEntry, mover *Mover, log *RunLog) {
	var files []fs.DirEntry

	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		path := filepath.Join(dir, name)

		if rel, err := filepath.Rel(root, path); err == nil && o.ignore.Match(rel) {
			walkLog.Debug("ignored", "path", path)
			continue
		}
		if o.protect.Has(path) {
			walkLog.Debug("protected", "path", path)
			continue
		}

		switch {
		case e.IsDir():
			if mover.Created(path) {
				walkLog.Debug("skipping folder created this run", "path", path)
				continue
			}
			sub, err := os.ReadDir(path)
			if err != nil {
				walkLog.Warn("cannot read directory", "path", path, "error", err)
				o.sink.Warn(fmt.Sprintf("skipping unreadable directory %s: %v", path, err))
				continue
			}
			o.walk(root, path, sub, mover, log)
		case e.Type().IsRegular():
			files = append(files, e)
		default:
			walkLog.Debug("not a regular file", "path", path, "mode", e.Type().String())
		}
	}

	for _, f := range files {
		path := filepath.Join(dir, f.Name())
		task, err := o.task(root, path, f)
		if err != nil {
			walkLog.Warn("stat failed", "path", path, "error", err)
			o.sink.Error(fmt.Sprintf("failed to stat %s: %v", path, err))
			log.append(LogEntry{
				Source:   path,
				Action:   ActionFailed,
				Error:    err.Error(),
				Category: task.Category,
			})
			continue
		}
		log.append(mover.Move(task))
	}
}

// task builds the FileTask for a discovered file.
func (o *Organizer) task(root, path string, d fs.DirEntry) (FileTask, error) {
	ext := classify.Ext(d.Name())
	category := o.cfg.Classifier.Classify(ext)
	task := FileTask{Source: path, Extension: classify.Normalize(ext), Category: category}

	info, err := d.Info()
	if err != nil {
		return task, err
	}
	task.Size = info.Size()

	bucket, _ := o.cfg.Buckets.Bucket(info.ModTime())
	task.Bucket = bucket
	task.Destination, task.Noop = Resolve(root, path, category, bucket)
	return task, nil
}

func (o *Organizer) defaultPrompt(root string) string {
	if o.cfg.DryRun {
		return fmt.Sprintf("Preview organising %s?", root)
	}
	return fmt.Sprintf("Organise files under %s?", root)
}
