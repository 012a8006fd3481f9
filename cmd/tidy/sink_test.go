package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleSink(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		quiet    bool
		wantInfo bool
		wantWarn bool
	}{
		{"default", false, false, false, true},
		{"verbose", true, false, true, true},
		{"quiet", false, true, false, false},
		{"verbose and quiet", true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := newConsoleSink(&buf, tt.verbose, tt.quiet)
			s.Info("moved a -> b")
			s.Warn("skipping x")
			s.Error("failed to move c")

			out := buf.String()
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "moved a -> b"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "warning: skipping x"))
			assert.Contains(t, out, "error: failed to move c")
		})
	}
}

func TestConsoleSink_TakeWarnings(t *testing.T) {
	s := newConsoleSink(&bytes.Buffer{}, false, true)
	s.Warn("one")
	s.Warn("two")

	assert.Equal(t, []string{"one", "two"}, s.TakeWarnings())
	assert.Empty(t, s.TakeWarnings())
}

func TestLineConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := lineConfirmer{in: strings.NewReader(tt.input), out: &out}
		got, err := c.Confirm("Organise /x?\n3 files")
		if err != nil {
			t.Errorf("Confirm(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "3 files [y/N]: ") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestSplitPrompt(t *testing.T) {
	title, details := splitPrompt("Organise /x?\n3 files\n  images 3\n")
	assert.Equal(t, "Organise /x?", title)
	assert.Equal(t, []string{"3 files", "  images 3"}, details)

	title, details = splitPrompt("Just this")
	assert.Equal(t, "Just this", title)
	assert.Empty(t, details)
}
