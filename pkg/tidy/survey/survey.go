// Package survey previews what an organising run would touch. It walks the
// tree concurrently with fastwalk and never modifies anything.
package survey

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/datebucket"
	"github.com/jamesainslie/tidy/pkg/tidy/filter"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
)

// Options configures a survey.
type Options struct {
	// Root is the directory to survey.
	Root string

	// Classifier assigns categories. Required.
	Classifier *classify.Classifier

	// Buckets is used to tell misplaced files from placed ones. Nil
	// disables date buckets.
	Buckets *datebucket.Bucketer

	// Ignore holds the same glob patterns the organiser skips.
	Ignore []string

	// Protect lists files and directories the organiser never touches.
	// They are left out of the counts.
	Protect []string

	// Workers bounds walker concurrency. Zero lets fastwalk decide.
	Workers int

	// OnProgress is called from walker goroutines, at most every 10ms.
	OnProgress func(Progress)
}

// Progress is a snapshot of a survey in flight.
type Progress struct {
	Dirs  int64
	Files int64
	Bytes int64
	Path  string
}

// ScanError records a path the survey could not read.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CategoryCount is the number of files in one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Files int64  `json:"files"`
	Bytes int64  `json:"bytes"`
}

// Preview is the outcome of a survey.
type Preview struct {
	Root       string          `json:"root"`
	Dirs       int64           `json:"dirs"`
	Files      int64           `json:"files"`
	Bytes      int64           `json:"bytes"`
	Misplaced  int64           `json:"misplaced"`
	Categories []CategoryCount `json:"categories"`
	Errors     []ScanError     `json:"errors,omitempty"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Category returns the count for name, or a zero count.
func (p *Preview) Category(name string) CategoryCount {
	for _, c := range p.Categories {
		if c.Name == name {
			return c
		}
	}
	return CategoryCount{Name: name}
}

type surveyor struct {
	opts    Options
	root    string
	ignore  *filter.Filter
	protect organizer.Protected

	dirs, files, bytes, misplaced atomic.Int64
	lastProgress                  atomic.Int64

	mu         sync.Mutex
	categories map[string]*CategoryCount
	errors     []ScanError
}

// Scan surveys opts.Root. It blocks until the walk completes or ctx is
// cancelled, in which case ctx's error is returned.
func Scan(ctx context.Context, opts Options) (*Preview, error) {
	start := time.Now()

	if opts.Classifier == nil {
		return nil, errors.New("survey requires a classifier")
	}
	if opts.Buckets == nil {
		opts.Buckets = &datebucket.Bucketer{}
	}
	root, err := organizer.ValidateRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	ignore, err := filter.New(opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignore patterns: %w", err)
	}

	s := &surveyor{
		opts:       opts,
		root:       root,
		ignore:     ignore,
		protect:    organizer.NewProtected(opts.Protect...),
		categories: make(map[string]*CategoryCount),
	}

	conf := fastwalk.Config{Follow: false, NumWorkers: opts.Workers}
	walkErr := fastwalk.Walk(&conf, root, s.callback(ctx))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	return s.preview(time.Since(start)), nil
}

func (s *surveyor) callback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.addError(path, err)
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if path == s.root {
			return nil
		}
		skip := s.protect.Has(path)
		if rel, relErr := filepath.Rel(s.root, path); relErr == nil && s.ignore.Match(rel) {
			skip = true
		}
		if skip {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			s.dirs.Add(1)
			s.progress(path)
			return nil
		}
		if d.Type().IsRegular() {
			s.file(path, d)
		}
		return nil
	}
}

func (s *surveyor) file(path string, d fs.DirEntry) {
	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}
	size := info.Size()
	s.files.Add(1)
	s.bytes.Add(size)

	category := s.opts.Classifier.Classify(classify.Ext(d.Name()))
	bucket, _ := s.opts.Buckets.Bucket(info.ModTime())
	if _, noop := organizer.Resolve(s.root, path, category, bucket); !noop {
		s.misplaced.Add(1)
	}

	s.mu.Lock()
	c, ok := s.categories[category]
	if !ok {
		c = &CategoryCount{Name: category}
		s.categories[category] = c
	}
	c.Files++
	c.Bytes += size
	s.mu.Unlock()
}

func (s *surveyor) addError(path string, err error) {
	s.mu.Lock()
	s.errors = append(s.errors, ScanError{Path: path, Error: err.Error()})
	s.mu.Unlock()
}

func (s *surveyor) progress(path string) {
	if s.opts.OnProgress == nil {
		return
	}
	now := time.Now().UnixMilli()
	last := s.lastProgress.Load()
	if now-last < 10 || !s.lastProgress.CompareAndSwap(last, now) {
		return
	}
	s.opts.OnProgress(Progress{
		Dirs:  s.dirs.Load(),
		Files: s.files.Load(),
		Bytes: s.bytes.Load(),
		Path:  path,
	})
}

// preview orders categories the way the classifier lists them.
func (s *surveyor) preview(elapsed time.Duration) *Preview {
	p := &Preview{
		Root:       s.root,
		Dirs:       s.dirs.Load(),
		Files:      s.files.Load(),
		Bytes:      s.bytes.Load(),
		Misplaced:  s.misplaced.Load(),
		Categories: []CategoryCount{},
		Errors:     s.errors,
		Elapsed:    elapsed,
	}
	for _, name := range s.opts.Classifier.Categories() {
		if c, ok := s.categories[name]; ok {
			p.Categories = append(p.Categories, *c)
		}
	}
	sort.SliceStable(p.Errors, func(i, j int) bool { return p.Errors[i].Path < p.Errors[j].Path })
	return p
}
