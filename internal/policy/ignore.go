// Package policy implements file exclusion rules and language detection.
// These are the collaborators the heartbeat engine consults before an
// activity event becomes trackable.
package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// Fixed literal rules, always applied regardless of configured patterns.
const (
	terminalBufferPrefix  = "term:"
	ephemeralBufferMarker = "MiniBufExplorer"
	noNameSentinel        = "--NO NAME--"
)

// DefaultIgnorePatterns excludes transient VCS edit buffers.
var DefaultIgnorePatterns = []string{
	`COMMIT_EDITMSG$`,
	`PULLREQ_EDITMSG$`,
	`MERGE_MSG$`,
	`TAG_EDITMSG$`,
}

// Matcher implements domain.IgnoreMatcher over a set of compiled regexes
// plus the fixed literal rules.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the given patterns. An invalid pattern is a
// configuration error and fails construction.
func NewMatcher(patterns []string) (*Matcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Matcher{patterns: compiled}, nil
}

// NewDefaultMatcher builds a matcher with the default pattern set.
func NewDefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultIgnorePatterns)
	if err != nil {
		// Defaults are compile-time constants; this cannot happen.
		panic(err)
	}
	return m
}

// Ignored reports whether entity is excluded from tracking.
// An empty identifier is always ignored.
func (m *Matcher) Ignored(entity string) bool {
	if entity == "" {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(entity) {
			return true
		}
	}
	return strings.HasPrefix(entity, terminalBufferPrefix) ||
		strings.Contains(entity, ephemeralBufferMarker) ||
		entity == noNameSentinel
}

// Ensure Matcher implements domain.IgnoreMatcher.
var _ domain.IgnoreMatcher = (*Matcher)(nil)
