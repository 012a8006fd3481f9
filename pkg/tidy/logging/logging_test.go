package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

// These tests share the package's global state and must not run in parallel.

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return string(data)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"walker": "debug", "mover": "warn"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Path:       filepath.Join(dir, "d.log"),
				Components: map[string]string{"walker": "chatty"},
			},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Path: filepath.Join(dir, "e.log"), ConsoleLevel: "shout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			_ = logging.Close()
		})
	}
}

func TestGet_DiscardsBeforeInit(t *testing.T) {
	_ = logging.Close()

	logger := logging.Get("quiet")
	logger.Info("nobody hears this")

	if logger.Component() != "quiet" {
		t.Errorf("Component() = %q, want %q", logger.Component(), "quiet")
	}
	if logging.Get("quiet") != logger {
		t.Error("Get() returned a different logger for the same component")
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.log")

	early := logging.Get("early")
	if err := logging.Init(logging.Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer logging.Close()

	early.Info("configured after creation", "key", "value")
	logging.Get("walker").With("root", "/tmp/x").Debug("walking")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content := readLog(t, path)
	for _, want := range []string{"configured after creation", "key=value", "walking", "root=/tmp/x", "walker"} {
		if !strings.Contains(content, want) {
			t.Errorf("log does not contain %q:\n%s", want, content)
		}
	}
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.log")

	err := logging.Init(logging.Config{
		Level:      "warn",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("chatty").Debug("chatty debug")
	logging.Get("strict").Info("strict info")
	logging.Get("strict").Warn("strict warn")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content := readLog(t, path)
	if !strings.Contains(content, "chatty debug") {
		t.Error("expected debug entry from overridden component")
	}
	if strings.Contains(content, "strict info") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(content, "strict warn") {
		t.Error("expected warn entry")
	}
}

func TestConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	err := logging.Init(logging.Config{
		Path:         filepath.Join(t.TempDir(), "console.log"),
		ConsoleLevel: "warn",
		Console:      &console,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer logging.Close()

	logger := logging.Get("console")
	logger.Info("file only")
	logger.Warn("both places")

	out := console.String()
	if strings.Contains(out, "file only") {
		t.Error("info entry should not reach console at warn level")
	}
	if !strings.Contains(out, "both places") {
		t.Errorf("console output missing warn entry: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"fatal", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, logging.ErrInvalidLevel) {
			t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if logging.LevelWarn.String() != "warn" {
		t.Errorf("LevelWarn.String() = %q", logging.LevelWarn.String())
	}
	if logging.Level(42).String() != "unknown" {
		t.Errorf("Level(42).String() = %q", logging.Level(42).String())
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	if !strings.HasSuffix(path, filepath.Join("tidy", "tidy.log")) {
		t.Errorf("DefaultLogPath() = %q, want suffix tidy/tidy.log", path)
	}
	if logging.DefaultConfig().Path != path {
		t.Error("DefaultConfig().Path should equal DefaultLogPath()")
	}
}
