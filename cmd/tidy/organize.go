package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
	"github.com/jamesainslie/tidy/pkg/tidy/survey"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cliLog = logging.Get("cli")

// runOrganize is the root command: one pass over the target directory.
func runOrganize(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sink := newConsoleSink(os.Stderr, getVerbose(), getQuiet())
	r, err := newRunner(cmd.Context(), cfg, runnerOptions{
		DryRun:      getDryRun(),
		NoHistory:   viper.GetBool("no_history"),
		Sink:        sink,
		Out:         os.Stdout,
		PersistIdle: true,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	if getVerbose() && !cfg.Interactive {
		if lines, err := r.preview(path); err == nil {
			for _, line := range lines {
				printVerbose("%s", line)
			}
		}
	}

	runLog, err := r.Run(path)
	if errors.Is(err, organizer.ErrAborted) {
		printInfo("Aborted, nothing was moved.")
		return nil
	}
	if err != nil {
		return err
	}
	return failureError(report.Summarize(runLog))
}

// failureError returns ErrRunFailed when s has failed entries.
func failureError(s report.Summary) error {
	if !s.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %d of %d files failed", ErrRunFailed, s.Errors, s.Total)
}

type runnerOptions struct {
	DryRun    bool
	NoHistory bool
	Sink      *consoleSink
	Out       io.Writer

	// PersistIdle also appends runs that neither moved nor failed
	// anything. Watch mode turns it off so idle re-runs leave no trace.
	PersistIdle bool

	// Confirmer overrides the terminal confirmer for interactive runs.
	Confirmer organizer.Confirmer
}

// runner owns everything a run needs beyond the organiser itself: the run
// log, the history store and the output formatter.
type runner struct {
	ctx       context.Context
	cfg       *config.Config
	opts      runnerOptions
	org       *organizer.Organizer
	formatter output.Formatter
	store     *history.Store
}

func newRunner(ctx context.Context, cfg *config.Config, opts runnerOptions) (*runner, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Sink == nil {
		opts.Sink = newConsoleSink(io.Discard, false, true)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(output.Available(), ", "))
	}

	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, err
	}
	buckets, err := cfg.Bucketer()
	if err != nil {
		return nil, err
	}

	r := &runner{ctx: ctx, cfg: cfg, opts: opts, formatter: formatter}

	runOpts := []organizer.Option{organizer.WithSink(opts.Sink)}
	if cfg.Interactive {
		confirm := opts.Confirmer
		if confirm == nil {
			confirm = newConfirmer(os.Stdin, os.Stderr, opts.DryRun)
		}
		runOpts = append(runOpts, organizer.WithConfirmer(confirm), organizer.WithPrompt(r.prompt))
	}

	r.org, err = organizer.New(organizer.RunConfig{
		Classifier:  classifier,
		Buckets:     buckets,
		LogPath:     cfg.LogFile,
		Protect:     cfg.Protected(),
		DryRun:      opts.DryRun,
		Interactive: cfg.Interactive,
		Ignore:      cfg.Ignore,
	}, runOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.History.Enabled && !opts.NoHistory && !opts.DryRun {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// The run log is the record of truth; history can be rebuilt.
			cliLog.Warn("history store unavailable", "path", cfg.History.Path, "error", err)
			opts.Sink.Warn(fmt.Sprintf("history disabled: %v", err))
		} else {
			r.store = store
		}
	}
	return r, nil
}

// Run organises root once, appends the run log, records history and
// prints the formatted result.
func (r *runner) Run(root string) (*organizer.RunLog, error) {
	runLog, err := r.org.Run(root)
	if err != nil {
		return nil, err
	}
	summary := report.Summarize(runLog)

	if r.opts.PersistIdle || summary.Moved > 0 || summary.Errors > 0 {
		if err := report.Persist(runLog, r.cfg.LogFile); err != nil {
			return runLog, fmt.Errorf("failed to write run log: %w", err)
		}
		if r.store != nil && !runLog.DryRun {
			if err := r.store.Record(history.FromRunLog(runLog)); err != nil {
				cliLog.Warn("failed to record history", "id", runLog.ID, "error", err)
				r.opts.Sink.Warn(fmt.Sprintf("failed to record history: %v", err))
			}
		}
	}

	if err := r.render(runLog); err != nil {
		return runLog, err
	}
	return runLog, nil
}

func (r *runner) render(runLog *organizer.RunLog) error {
	result := output.NewResult(runLog)
	result.Verbose = getVerbose()
	result.Warnings = r.opts.Sink.TakeWarnings()

	if getQuiet() && r.cfg.Output == config.DefaultOutput && !result.Summary.HasErrors() {
		return nil
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err := r.opts.Out.Write(buf.Bytes())
	return err
}

// Close releases the history store.
func (r *runner) Close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			cliLog.Warn("failed to close history store", "error", err)
		}
		r.store = nil
	}
}

// prompt builds the confirmation question with a preview of the tree.
func (r *runner) prompt(root string) string {
	title := fmt.Sprintf("Organise files under %s?", root)
	if r.opts.DryRun {
		title = fmt.Sprintf("Preview organising %s?", root)
	}
	lines, err := r.preview(root)
	if err != nil {
		cliLog.Warn("preview failed", "root", root, "error", err)
		return title
	}
	return title + "\n" + strings.Join(lines, "\n")
}

// preview surveys root and describes what a run would touch.
func (r *runner) preview(root string) ([]string, error) {
	classifier, err := r.cfg.Classifier()
	if err != nil {
		return nil, err
	}
	buckets, err := r.cfg.Bucketer()
	if err != nil {
		return nil, err
	}

	p, err := survey.Scan(r.ctx, survey.Options{
		Root:       root,
		Classifier: classifier,
		Buckets:    buckets,
		Ignore:     r.cfg.Ignore,
		Protect:    r.cfg.Protected(),
	})
	if err != nil {
		return nil, err
	}
	return previewLines(p), nil
}

func previewLines(p *survey.Preview) []string {
	lines := []string{
		fmt.Sprintf("%d files (%s) in %d folders, %d to move",
			p.Files, humanize.IBytes(uint64(p.Bytes)), p.Dirs, p.Misplaced),
	}
	for _, c := range p.Categories {
		if c.Files == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-10s %5d  %s", c.Name, c.Files, humanize.IBytes(uint64(c.Bytes))))
	}
	if n := len(p.Errors); n > 0 {
		lines = append(lines, fmt.Sprintf("%d paths could not be read", n))
	}
	return lines
}
