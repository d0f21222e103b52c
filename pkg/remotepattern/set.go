package remotepattern

import (
	"errors"
	"fmt"
)

// Set is the compiled, read-only rule set. It is built once at startup and then shared by
// all request handlers without locking.
type Set struct {
	patterns []Pattern
}

// NewSet compiles all rules. If any rule is invalid, the whole set is refused and the error
// lists every offending rule by index.
func NewSet(rules []AllowRule) (*Set, error) {
	patterns := make([]Pattern, 0, len(rules))
	errs := []error{}

	for idx, rule := range rules {
		pattern, err := Compile(rule)
		if err != nil {
			errs = append(errs, fmt.Errorf("remotePatterns[%d] (%s): %w", idx, rule, err))
			continue
		}

		patterns = append(patterns, pattern)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Set{patterns: patterns}, nil
}

// IsAllowed on a nil or empty Set denies everything
func (s *Set) IsAllowed(rawURL string) bool {
	if s == nil {
		return false
	}

	return IsAllowed(rawURL, s.patterns)
}

// Match returns a rule that admits rawURL. Which one is unspecified when several match.
func (s *Set) Match(rawURL string) (AllowRule, bool) {
	if s == nil {
		return AllowRule{}, false
	}

	idx := firstMatch(rawURL, s.patterns)
	if idx == -1 {
		return AllowRule{}, false
	}

	return s.patterns[idx].rule, true
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.patterns)
}

// Rules returns a copy of the source rules, in configuration order
func (s *Set) Rules() []AllowRule {
	if s == nil {
		return nil
	}

	rules := make([]AllowRule, 0, len(s.patterns))
	for _, pattern := range s.patterns {
		rules = append(rules, pattern.rule)
	}

	return rules
}
