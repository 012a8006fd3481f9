package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/datebucket"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// DateBucketConfig configures date subfolders.
type DateBucketConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Format  string `mapstructure:"format" yaml:"format"`
}

// HistoryConfig configures the run history index.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	Categories  classify.Rules   `mapstructure:"categories" yaml:"categories"`
	DateBuckets DateBucketConfig `mapstructure:"date_buckets" yaml:"date_buckets"`
	LogFile     string           `mapstructure:"log_file" yaml:"log_file"`
	Ignore      []string         `mapstructure:"ignore" yaml:"ignore"`
	Interactive bool             `mapstructure:"interactive" yaml:"interactive"`
	Output      string           `mapstructure:"output" yaml:"output"`
	History     HistoryConfig    `mapstructure:"history" yaml:"history"`
	Watch       WatchConfig      `mapstructure:"watch" yaml:"watch"`
	Logging     LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("categories", classify.Defaults())
	v.SetDefault("date_buckets.enabled", false)
	v.SetDefault("date_buckets.format", DefaultDateFormat)
	v.SetDefault("log_file", "") // empty means DefaultRunLogPath
	v.SetDefault("ignore", DefaultIgnore)
	v.SetDefault("interactive", false)
	v.SetDefault("output", DefaultOutput)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // empty means DefaultHistoryPath
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("watch.debounce", DefaultDebounce)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponents)
}

// Configure points v at the config file and environment. An explicit file
// wins over the search path:
//   - $XDG_CONFIG_HOME/tidy/config.yaml
//   - $HOME/.config/tidy/config.yaml
//
// Environment variables are prefixed with TIDY_ (e.g. TIDY_OUTPUT,
// TIDY_DATE_BUCKETS_ENABLED).
func Configure(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, AppName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// Read reads the config file into v. A missing file on the search path is
// not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Decode unmarshals v into a Config, fills derived paths, and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load builds a Config from file (or the search path when empty) and the
// environment, using a fresh viper instance.
func Load(file string) (*Config, error) {
	v := viper.New()
	Configure(v, file)
	if err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

func (c *Config) resolvePaths() error {
	var err error
	if c.LogFile == "" {
		c.LogFile = DefaultRunLogPath()
	} else if c.LogFile, err = ExpandPath(c.LogFile); err != nil {
		return err
	}

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	} else if c.History.Path, err = ExpandPath(c.History.Path); err != nil {
		return err
	}

	if c.Logging.Path != "" {
		if c.Logging.Path, err = ExpandPath(c.Logging.Path); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every setting that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if _, err := c.Classifier(); err != nil {
		return fmt.Errorf("%w: categories: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Bucketer(); err != nil {
		return fmt.Errorf("%w: date_buckets: %w", ErrInvalidConfig, err)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("%w: history.retention_days must not be negative", ErrInvalidConfig)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	if c.Logging.Rotation.MaxSize != "" {
		if _, err := ParseSize(c.Logging.Rotation.MaxSize); err != nil {
			return fmt.Errorf("%w: logging.rotation.max_size: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Classifier builds the classifier for the configured categories.
func (c *Config) Classifier() (*classify.Classifier, error) {
	return classify.New(c.Categories)
}

// Bucketer builds the date bucketer.
func (c *Config) Bucketer() (*datebucket.Bucketer, error) {
	format := c.DateBuckets.Format
	if format == "" {
		format = DefaultDateFormat
	}
	return datebucket.New(c.DateBuckets.Enabled, format)
}

// ParseSize parses sizes such as "10MiB", "512K" or "1G". Suffixes
// without "i" are decimal, as in go-humanize.
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// DefaultConfigPath returns the config file used when --config is unset.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/tidy/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// DataDir returns $XDG_DATA_HOME/tidy/ for the history store.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultRunLogPath returns the default run log file.
func DefaultRunLogPath() string {
	return filepath.Join(StateDir(), "runs.log")
}

// DefaultHistoryPath returns the default history store directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// Protected returns the paths tidy appends to or holds open while it
// runs. Organising a tree that contains them leaves them in place.
func (c *Config) Protected() []string {
	logPath := c.Logging.Path
	if logPath == "" {
		logPath = logging.DefaultLogPath()
	}
	return []string{c.LogFile, c.LogFile + ".lock", logPath, c.History.Path}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
