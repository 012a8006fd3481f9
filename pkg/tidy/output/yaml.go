package output

import (
	"bytes"

	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
	"github.com/jamesainslie/tidy/pkg/tidy/report"
	"gopkg.in/yaml.v3"
)

type yamlOutput struct {
	Root     string               `yaml:"root"`
	RunID    string               `yaml:"run_id,omitempty"`
	DryRun   bool                 `yaml:"dry_run"`
	Duration string               `yaml:"duration"`
	Entries  []organizer.LogEntry `yaml:"entries"`
	Summary  report.Summary       `yaml:"summary"`
	Warnings []string             `yaml:"warnings,omitempty"`
}

// YAMLFormatter writes the same document as JSONFormatter in YAML.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	entries := r.Entries
	if entries == nil {
		entries = []organizer.LogEntry{}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(yamlOutput{
		Root:     r.Root,
		RunID:    r.RunID,
		DryRun:   r.DryRun,
		Duration: r.Duration.String(),
		Entries:  entries,
		Summary:  r.Summary,
		Warnings: r.Warnings,
	}); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
