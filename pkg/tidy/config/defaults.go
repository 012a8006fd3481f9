// Package config loads tidy's configuration from file, environment and
// flags.
package config

import "time"

// Default configuration values for tidy.
const (
	// DefaultPath is the directory organised when none is given.
	DefaultPath = "."

	// DefaultOutput is the default output format.
	DefaultOutput = "pretty"

	// DefaultDateFormat is the default date bucket pattern.
	DefaultDateFormat = "%Y-%m"

	// DefaultRetentionDays is how long run history is kept.
	DefaultRetentionDays = 90

	// DefaultDebounce is the quiet period before watch mode re-runs.
	DefaultDebounce = 2 * time.Second

	// DefaultLogMaxSize is the default rotation threshold.
	DefaultLogMaxSize = "10MiB"

	// EnvPrefix prefixes environment overrides, e.g. TIDY_OUTPUT.
	EnvPrefix = "TIDY"

	// AppName names the XDG subdirectories.
	AppName = "tidy"
)

// DefaultIgnore lists names the organiser leaves alone by default.
var DefaultIgnore = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

// DefaultComponents holds the default per-component log levels.
var DefaultComponents = map[string]string{
	"walker":  "info",
	"mover":   "info",
	"report":  "info",
	"history": "info",
	"watch":   "info",
}
