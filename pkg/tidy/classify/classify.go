// Package classify maps file extensions to category names using an ordered
// rule table with a single catch-all category.
//
// Basic usage:
//
//	c, err := classify.New(classify.Rules{
//	    {Name: "images", Extensions: []string{"jpg", "png"}},
//	    {Name: "other"},
//	})
//	if err != nil {
//	    return err
//	}
//	c.Classify(classify.Ext("photo.JPG")) // "images"
package classify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRules is wrapped by every rule validation error.
var ErrInvalidRules = errors.New("invalid category rules")

// Rule validation errors.
var (
	ErrNoCatchAll       = fmt.Errorf("%w: no catch-all category", ErrInvalidRules)
	ErrMultipleCatchAll = fmt.Errorf("%w: more than one catch-all category", ErrInvalidRules)
	ErrEmptyName        = fmt.Errorf("%w: category name is empty", ErrInvalidRules)
	ErrDuplicateName    = fmt.Errorf("%w: duplicate category name", ErrInvalidRules)
	ErrInvalidName      = fmt.Errorf("%w: category name must be a single folder name", ErrInvalidRules)
)

// Rule assigns a set of extensions to a category. A rule with no
// extensions is the catch-all.
type Rule struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// Rules is an ordered rule table. Earlier rules win.
type Rules []Rule

// Classifier is a validated, immutable rule table.
type Classifier struct {
	names    []string
	sets     []map[string]struct{}
	catchAll string
}

// New validates rules and builds a Classifier.
func New(rules Rules) (*Classifier, error) {
	c := &Classifier{}
	seen := make(map[string]struct{}, len(rules))

	for i, r := range rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("%w (rule %d)", ErrEmptyName, i)
		}
		if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}

		if len(r.Extensions) == 0 {
			if c.catchAll != "" {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleCatchAll, c.catchAll, name)
			}
			c.catchAll = name
			continue
		}

		set := make(map[string]struct{}, len(r.Extensions))
		for _, ext := range r.Extensions {
			set[Normalize(ext)] = struct{}{}
		}
		c.names = append(c.names, name)
		c.sets = append(c.sets, set)
	}

	if c.catchAll == "" {
		return nil, ErrNoCatchAll
	}
	return c, nil
}

// Classify returns the category for ext. The catch-all is returned when no
// rule contains the extension.
func (c *Classifier) Classify(ext string) string {
	key := Normalize(ext)
	for i, set := range c.sets {
		if _, ok := set[key]; ok {
			return c.names[i]
		}
	}
	return c.catchAll
}

// CatchAll returns the name of the catch-all category.
func (c *Classifier) CatchAll() string {
	return c.catchAll
}

// Categories returns every category name in evaluation order, catch-all last.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.names)+1)
	out = append(out, c.names...)
	return append(out, c.catchAll)
}

// Normalize lowercases an extension and strips surrounding space and one
// leading dot, so "JPG", ".jpg" and " .Jpg" are the same key.
func Normalize(ext string) string {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimPrefix(ext, ".")
	return strings.ToLower(ext)
}

// Ext returns the extension of a base name without the dot. Names without a
// dot, and names whose only dot is the leading one (".bashrc"), have none.
func Ext(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx+1:]
}
