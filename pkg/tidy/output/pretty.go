package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
)

// PrettyFormatter renders a styled summary for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	if len(r.Summary.ErrorDetails) > 0 {
		w.WriteString(f.formatFailures(r))
		w.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	lines := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)),
	}

	mode := SuccessStyle.Render("live")
	if r.DryRun {
		mode = WarningStyle.Bold(true).Render("dry run (nothing was moved)")
	}
	info := []string{fmt.Sprintf("%s %s", LabelStyle.Render("Mode:"), mode)}
	if r.RunID != "" {
		info = append(info, fmt.Sprintf("%s %s", LabelStyle.Render("Run:"), MutedStyle.Render(r.RunID)))
	}
	lines = append(lines, strings.Join(info, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	var rows []organizer.LogEntry
	for _, e := range r.Entries {
		if e.Action == organizer.ActionSkipped && !r.Verbose {
			continue
		}
		rows = append(rows, e)
	}

	if len(rows) == 0 {
		if len(r.Entries) == 0 {
			return MutedStyle.Render("  No files found") + "\n"
		}
		return MutedStyle.Render("  Everything is already in place") + "\n"
	}

	width := 0
	for _, e := range rows {
		if n := len(e.Action); n > width {
			width = n
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s%s\n",
		TableHeaderStyle.Render(padRight("ACTION", width)),
		TableHeaderStyle.Render("FILE")))

	for _, e := range rows {
		action := ActionStyle(string(e.Action)).Render(padRight(string(e.Action), width))
		target := PathStyle.Render(r.Rel(e.Source))
		if e.Destination != "" && e.Destination != e.Source {
			target += MutedStyle.Render(" -> ") + PathStyle.Render(r.Rel(e.Destination))
		}
		sb.WriteString(fmt.Sprintf("  %s  %s\n", action, target))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	s := r.Summary
	parts := []string{
		fmt.Sprintf("%s %s", LabelStyle.Render("Files:"), ValueStyle.Render(fmt.Sprintf("%d", s.Total))),
	}
	if r.DryRun {
		parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Planned:"), WarningStyle.Render(fmt.Sprintf("%d", s.Planned))))
	} else {
		parts = append(parts,
			fmt.Sprintf("%s %s", LabelStyle.Render("Moved:"), SuccessStyle.Render(fmt.Sprintf("%d", s.Moved))),
			fmt.Sprintf("%s %s", LabelStyle.Render("Size:"), SizeStyle.Render(humanize.IBytes(uint64(s.BytesMoved)))),
		)
	}
	parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render("Skipped:"), MutedStyle.Render(fmt.Sprintf("%d", s.Skipped))))

	failed := fmt.Sprintf("%d", s.Errors)
	if s.Errors > 0 {
		failed = ErrorStyle.Bold(true).Render(failed)
	} else {
		failed = ValueStyle.Render(failed)
	}
	parts = append(parts,
		fmt.Sprintf("%s %s", LabelStyle.Render("Failed:"), failed),
		MutedStyle.Render("in "+formatDuration(r.Duration)),
	)

	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatFailures(r *Result) string {
	lines := []string{ErrorStyle.Bold(true).Render("Failures:")}
	for _, d := range r.Summary.ErrorDetails {
		lines = append(lines, fmt.Sprintf("%s %s", PathStyle.Render(r.Rel(d.Source)), ErrorStyle.Render(d.Error)))
	}
	return ErrorBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
