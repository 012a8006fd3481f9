package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/output"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the runs recorded in the history store, newest first.

Only live runs are recorded; dry runs leave no history. The store is an
index over the run log file and can be rebuilt from it with
'tidy history rebuild'.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the entries of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove runs older than the retention period",
	Long:  `Remove history records older than history.retention_days (default 90). The run log file is not touched.`,
	RunE:  runHistoryClean,
}

var historyRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-index the history store from the run log file",
	RunE:  runHistoryRebuild,
}

var (
	historyLimit     int
	historyShowLimit int
	historyCleanDays int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show (0 for all)")
	historyShowCmd.Flags().IntVarP(&historyShowLimit, "limit", "l", 50, "maximum number of entries to show (0 for all)")
	historyCleanCmd.Flags().IntVar(&historyCleanDays, "days", 0, "override the retention period in days")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	historyCmd.AddCommand(historyRebuildCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, cfg, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		printInfo("No runs recorded yet.")
		printInfo("Run 'tidy [path]' to organise a directory.")
		return nil
	}

	fmt.Println(renderHistoryTable(records))
	printInfo("Use 'tidy history show <id>' for the entries of a run.")
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Println(renderRunDetail(rec))
	fmt.Println(renderEntryTable(rec, historyShowLimit))
	if historyShowLimit > 0 && len(rec.Entries) > historyShowLimit {
		fmt.Printf("\n... and %d more entries\n", len(rec.Entries)-historyShowLimit)
	}
	return nil
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	days := cfg.History.RetentionDays
	if historyCleanDays > 0 {
		days = historyCleanDays
	}
	if days <= 0 {
		printInfo("Retention is disabled; nothing to clean.")
		return nil
	}

	printInfo("Removing runs older than %d days...", days)
	removed, err := store.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d runs.", removed)
	return nil
}

func runHistoryRebuild(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := report.ReadRunsFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to read run log: %w", err)
	}
	printVerbose("Read %d runs from %s", len(runs), cfg.LogFile)

	n, err := store.Rebuild(runs)
	if err != nil {
		return fmt.Errorf("failed to rebuild history: %w", err)
	}
	printInfo("Indexed %d runs from %s", n, cfg.LogFile)
	return nil
}

// renderHistoryTable lists runs with their counts.
func renderHistoryTable(records []history.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "STARTED", "ROOT", "MOVED", "SKIPPED", "FAILED", "SIZE"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			rec.ID,
			rec.Started.Local().Format("2006-01-02 15:04"),
			truncatePath(rec.Root, 40),
			strconv.Itoa(rec.Summary.Moved),
			strconv.Itoa(rec.Summary.Skipped),
			strconv.Itoa(rec.Summary.Errors),
			humanize.IBytes(uint64(rec.Summary.BytesMoved)),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderRunDetail describes one run.
func renderRunDetail(rec *history.Record) string {
	var b strings.Builder
	b.WriteString("\nRun Details\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "ID:         %s\n", rec.ID)
	fmt.Fprintf(&b, "Root:       %s\n", rec.Root)
	fmt.Fprintf(&b, "Started:    %s\n", rec.Started.Local().Format("2006-01-02 15:04:05 MST"))
	if d := rec.Duration(); d > 0 {
		fmt.Fprintf(&b, "Duration:   %s\n", d.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "Files:      %d moved, %d skipped, %d failed (%s moved)\n",
		rec.Summary.Moved, rec.Summary.Skipped, rec.Summary.Errors,
		humanize.IBytes(uint64(rec.Summary.BytesMoved)))
	return b.String()
}

// renderEntryTable lists up to limit entries of rec; limit <= 0 shows all.
func renderEntryTable(rec *history.Record, limit int) string {
	entries := rec.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ACTION", "SOURCE", "DESTINATION", "ERROR"})
	for _, e := range entries {
		dest := relTo(rec.Root, e.Destination)
		if e.Action == organizer.ActionSkipped {
			dest = ""
		}
		tw.AppendRow(table.Row{string(e.Action), relTo(rec.Root, e.Source), dest, truncateString(e.Error, 60)})
	}
	return tw.Render()
}

func relTo(root, path string) string {
	return (&output.Result{Root: root}).Rel(path)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// truncatePath keeps the end of a path, which is the part that tells
// directories apart.
func truncatePath(p string, maxLen int) string {
	if len(p) <= maxLen {
		return p
	}
	if maxLen <= 3 {
		return p[len(p)-maxLen:]
	}
	return "..." + p[len(p)-(maxLen-3):]
}
