// Package datebucket derives date-named subfolders from file modification
// times using strftime-style format strings.
package datebucket

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/ncruces/go-strftime"
)

var log = logging.Get("datebucket")

// DefaultFormat buckets by year and month, e.g. "2024-03".
const DefaultFormat = "%Y-%m"

// ErrInvalidFormat is returned for formats that cannot name a subfolder.
var ErrInvalidFormat = errors.New("invalid date bucket format")

// probe is a fixed timestamp used to validate formats up front.
var probe = time.Date(2024, time.March, 15, 13, 4, 5, 0, time.UTC)

// Bucketer formats modification times into bucket names.
// The zero value is a disabled Bucketer.
type Bucketer struct {
	enabled bool
	format  string
}

// New returns a Bucketer. When enabled, format must render to a relative
// path that stays below its parent.
func New(enabled bool, format string) (*Bucketer, error) {
	if !enabled {
		return &Bucketer{}, nil
	}
	if strings.TrimSpace(format) == "" {
		return nil, fmt.Errorf("%w: format is empty", ErrInvalidFormat)
	}
	if err := validate(strftime.Format(format, probe)); err != nil {
		return nil, fmt.Errorf("%w: %q %s", ErrInvalidFormat, format, err.Error())
	}
	return &Bucketer{enabled: true, format: format}, nil
}

// Enabled reports whether bucketing is on.
func (b *Bucketer) Enabled() bool {
	return b != nil && b.enabled
}

// Format returns the configured format, or "" when disabled.
func (b *Bucketer) Format() string {
	if !b.Enabled() {
		return ""
	}
	return b.format
}

// Bucket returns the bucket name for modTime, or false when bucketing is
// disabled. Slashes in the rendered name become nested folders. A name that
// fails validation for this particular time is logged and the file is
// placed without a bucket.
func (b *Bucketer) Bucket(modTime time.Time) (string, bool) {
	if !b.Enabled() {
		return "", false
	}
	name := strftime.Format(b.format, modTime)
	if err := validate(name); err != nil {
		log.Warn("date bucket rejected", "format", b.format, "rendered", name, "error", err)
		return "", false
	}
	return filepath.Clean(filepath.FromSlash(name)), true
}

func validate(rendered string) error {
	if strings.TrimSpace(rendered) == "" {
		return errors.New("renders to an empty name")
	}
	p := filepath.FromSlash(rendered)
	if filepath.IsAbs(p) {
		return errors.New("renders to an absolute path")
	}
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == "." || seg == ".." {
			return errors.New("renders to a relative path element")
		}
	}
	return nil
}
