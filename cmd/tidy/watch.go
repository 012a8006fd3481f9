package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
	"github.com/jamesainslie/tidy/pkg/tidy/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep a directory organised",
	Long: `Organise a directory once, then watch it and organise again whenever it
has been quiet for the debounce period (watch.debounce, default 2s).

Only runs that moved or failed something are written to the run log and
history. Ignored names and the run log itself never trigger a run.
Interactive confirmation is not used in watch mode.

Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchDebounce string

func init() {
	watchCmd.Flags().StringVar(&watchDebounce, "debounce", "", "quiet period before re-running (e.g. 500ms, 5s)")
	_ = viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Interactive = false

	root, err := organizer.ValidateRoot(path)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := newConsoleSink(os.Stderr, getVerbose(), getQuiet())
	r, err := newRunner(ctx, cfg, runnerOptions{
		DryRun:    getDryRun(),
		NoHistory: viper.GetBool("no_history"),
		Sink:      sink,
		Out:       os.Stdout,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := watch.New(root, watch.Options{
		Ignore:   cfg.Ignore,
		Protect:  cfg.Protected(),
		Debounce: cfg.Watch.Debounce,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	defer w.Close()

	printInfo("Watching %s (Ctrl+C to stop)", root)
	cliLog.Info("watch started", "root", root, "debounce", cfg.Watch.Debounce)

	err = w.Run(ctx, func() error {
		runLog, err := r.Run(root)
		if err != nil {
			return err
		}
		return failureError(report.Summarize(runLog))
	})
	if errors.Is(err, watch.ErrClosed) {
		return nil
	}
	cliLog.Info("watch stopped", "root", root)
	return err
}
