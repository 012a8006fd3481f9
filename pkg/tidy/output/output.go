// Package output renders run results in the formats selected with
// --output (pretty, plain, json, jsonl, yaml).
//
// Formatters are registered by name:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.NewResult(runLog)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
)

// ErrUnknownFormat is returned by Get for unregistered names.
var ErrUnknownFormat = errors.New("unknown output format")

// Result is everything a formatter needs to render one run.
type Result struct {
	Root     string               `json:"root" yaml:"root"`
	RunID    string               `json:"run_id" yaml:"run_id"`
	DryRun   bool                 `json:"dry_run" yaml:"dry_run"`
	Duration time.Duration        `json:"duration" yaml:"duration"`
	Entries  []organizer.LogEntry `json:"entries" yaml:"entries"`
	Summary  report.Summary       `json:"summary" yaml:"summary"`

	// Verbose asks human formatters to list skipped entries too.
	Verbose bool `json:"-" yaml:"-"`

	// Warnings holds non-fatal messages collected during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewResult builds a Result from a finished run.
func NewResult(log *organizer.RunLog) *Result {
	entries := log.Entries
	if entries == nil {
		entries = []organizer.LogEntry{}
	}
	return &Result{
		Root:     log.Root,
		RunID:    log.ID,
		DryRun:   log.DryRun,
		Duration: log.Duration(),
		Entries:  entries,
		Summary:  report.Summarize(log),
	}
}

// Rel returns path relative to the result root when it lies beneath it.
func (r *Result) Rel(path string) string {
	if r.Root == "" {
		return path
	}
	rel, err := filepath.Rel(r.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// Formatter renders a Result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// formatDuration formats d for people.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
