package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/tidy/cmd/tidy/tui"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/mattn/go-isatty"
)

var (
	sinkInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	sinkWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
	sinkErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC3545")).Bold(true)
)

// consoleSink prints run progress to the terminal. Info lines appear only
// in verbose mode; warnings are also kept for the formatted result.
type consoleSink struct {
	w       io.Writer
	verbose bool
	quiet   bool
	color   bool

	mu       sync.Mutex
	warnings []string
}

func newConsoleSink(w io.Writer, verbose, quiet bool) *consoleSink {
	s := &consoleSink{w: w, verbose: verbose, quiet: quiet}
	if f, ok := w.(*os.File); ok {
		s.color = isTerminal(f)
	}
	return s
}

func (s *consoleSink) Info(msg string) {
	if !s.verbose || s.quiet {
		return
	}
	s.print(sinkInfoStyle, "  ", msg)
}

func (s *consoleSink) Warn(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
	if s.quiet {
		return
	}
	s.print(sinkWarnStyle, "warning: ", msg)
}

// Error is printed even in quiet mode.
func (s *consoleSink) Error(msg string) {
	s.print(sinkErrorStyle, "error: ", msg)
}

// TakeWarnings returns the warnings collected since the last call.
func (s *consoleSink) TakeWarnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.warnings
	s.warnings = nil
	return w
}

func (s *consoleSink) print(style lipgloss.Style, prefix, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := prefix + msg
	if s.color {
		line = style.Render(line)
	}
	fmt.Fprintln(s.w, line)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newConfirmer picks the Bubble Tea dialog when both ends are a terminal
// and a plain line prompt otherwise. The first line of the prompt is the
// question; further lines are details.
func newConfirmer(in, out *os.File, dryRun bool) organizer.Confirmer {
	if isTerminal(in) && isTerminal(out) {
		return organizer.ConfirmFunc(func(prompt string) (bool, error) {
			title, details := splitPrompt(prompt)
			return tui.Confirm(tui.ConfirmOptions{
				Prompt:  title,
				Details: details,
				DryRun:  dryRun,
			}, in, out)
		})
	}
	return lineConfirmer{in: in, out: out}
}

func splitPrompt(prompt string) (string, []string) {
	lines := strings.Split(strings.TrimRight(prompt, "\n"), "\n")
	return lines[0], lines[1:]
}

// lineConfirmer asks on out and reads a y/n answer from in. Anything other
// than y or yes, including end of input, declines.
type lineConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c lineConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", strings.TrimRight(prompt, "\n"))

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
