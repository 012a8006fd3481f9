// Package report summarises run logs and appends them to the run log file.
package report

import (
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
)

// ErrorDetail itemises one failed entry.
type ErrorDetail struct {
	Source string `json:"source" yaml:"source"`
	Error  string `json:"error" yaml:"error"`
}

// Summary holds the counts shown at the end of a run.
type Summary struct {
	Total        int           `json:"total" yaml:"total"`
	Moved        int           `json:"moved" yaml:"moved"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	Planned      int           `json:"planned" yaml:"planned"`
	Errors       int           `json:"errors" yaml:"errors"`
	ErrorDetails []ErrorDetail `json:"error_details,omitempty" yaml:"error_details,omitempty"`
	BytesMoved   int64         `json:"bytes_moved" yaml:"bytes_moved"`
}

// Summarize counts the entries of log. Only failed entries count as
// errors; dry-run entries are counted as planned.
func Summarize(log *organizer.RunLog) Summary {
	var s Summary
	if log == nil {
		return s
	}
	return SummarizeEntries(log.Entries)
}

// SummarizeEntries is Summarize for a bare entry list.
func SummarizeEntries(entries []organizer.LogEntry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		switch e.Action {
		case organizer.ActionMoved:
			s.Moved++
			s.BytesMoved += e.Size
		case organizer.ActionSkipped:
			s.Skipped++
		case organizer.ActionDryRun:
			s.Planned++
		case organizer.ActionFailed:
			s.Errors++
			s.ErrorDetails = append(s.ErrorDetails, ErrorDetail{Source: e.Source, Error: e.Error})
		}
	}
	return s
}

// HasErrors reports whether any entry failed.
func (s Summary) HasErrors() bool {
	return s.Errors > 0
}
