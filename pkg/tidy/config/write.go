package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the file is present.
var ErrConfigExists = errors.New("config file already exists")

const defaultHeader = `# tidy configuration
#
# categories are checked in order; the first rule listing an extension
# wins. Exactly one category must have no extensions: it catches
# everything else.
#
# date_buckets.format accepts strftime tokens such as %Y, %m and %d;
# "/" creates nested folders.
#
# Empty paths fall back to the XDG defaults:
#   log_file      $XDG_STATE_HOME/tidy/runs.log
#   history.path  $XDG_DATA_HOME/tidy/history
#   logging.path  $XDG_STATE_HOME/tidy/tidy.log

`

// Default returns the configuration used when no file is present, with
// paths left empty.
func Default() *Config {
	return &Config{
		Categories:  classify.Defaults(),
		DateBuckets: DateBucketConfig{Format: DefaultDateFormat},
		Ignore:      append([]string(nil), DefaultIgnore...),
		Output:      DefaultOutput,
		History:     HistoryConfig{Enabled: true, RetentionDays: DefaultRetentionDays},
		Watch:       WatchConfig{Debounce: DefaultDebounce},
		Logging: LoggingConfig{
			Level: "info",
			Rotation: RotationConfig{
				MaxSize:    DefaultLogMaxSize,
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
			Components: copyComponents(),
		},
	}
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path, creating its
// directory. It refuses to replace an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), body...), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

func copyComponents() map[string]string {
	m := make(map[string]string, len(DefaultComponents))
	for k, v := range DefaultComponents {
		m[k] = v
	}
	return m
}
