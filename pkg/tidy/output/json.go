package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
)

// jsonOutput is the document written by JSONFormatter.
type jsonOutput struct {
	Root     string               `json:"root"`
	RunID    string               `json:"run_id,omitempty"`
	DryRun   bool                 `json:"dry_run"`
	Duration string               `json:"duration"`
	Entries  []organizer.LogEntry `json:"entries"`
	Summary  report.Summary       `json:"summary"`
	Warnings []string             `json:"warnings,omitempty"`
}

// JSONFormatter writes one indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	entries := r.Entries
	if entries == nil {
		entries = []organizer.LogEntry{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonOutput{
		Root:     r.Root,
		RunID:    r.RunID,
		DryRun:   r.DryRun,
		Duration: r.Duration.String(),
		Entries:  entries,
		Summary:  r.Summary,
		Warnings: r.Warnings,
	})
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per entry, for jq and
// other line-oriented tools.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, e := range r.Entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

var _ Formatter = (*JSONLFormatter)(nil)
