package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	m "github.com/mouse-blink/qidicom/internal/model"
)

// ErrBadExclude is returned for exclude patterns that do not compile.
var ErrBadExclude = errors.New("invalid exclude pattern")

// ExcludeRules passes over files whose path, relative to a root and with
// forward slashes, matches any of a set of regular expressions.
type ExcludeRules struct {
	root     m.Path
	patterns []*regexp.Regexp
}

// NewExcludeRules compiles patterns. Empty patterns are ignored. It returns
// nil when nothing is left, and a nil *ExcludeRules excludes nothing.
func NewExcludeRules(root m.Path, patterns []string) (*ExcludeRules, error) {
	var compiled []*regexp.Regexp

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrBadExclude, p, err)
		}

		compiled = append(compiled, re)
	}

	if len(compiled) == 0 {
		return nil, nil
	}

	return &ExcludeRules{root: root, patterns: compiled}, nil
}

// Excludes reports whether path matches any pattern.
func (r *ExcludeRules) Excludes(path m.Path) bool {
	if r == nil {
		return false
	}

	rel := r.relative(path)

	for _, re := range r.patterns {
		if re.MatchString(rel) {
			return true
		}
	}

	return false
}

// Skip returns Excludes as a skip function, or nil for no rules.
func (r *ExcludeRules) Skip() func(m.Path) bool {
	if r == nil {
		return nil
	}

	return r.Excludes
}

func (r *ExcludeRules) relative(path m.Path) string {
	if r.root != "" {
		if rel, err := filepath.Rel(string(r.root), string(path)); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return filepath.ToSlash(string(path))
}
