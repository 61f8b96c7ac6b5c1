package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter reports whether the check with the given ID should run.
type Filter func(TestID) bool

// RegexFilters selects checks by matching their slash-separated IDs.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// AsFilter runs a check when it matches any MustMatch pattern (or none are
// defined) and matches no MustNotMatch pattern.
func (r RegexFilters) AsFilter(id TestID) bool {
	name := id.String()
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(name)) &&
		!r.MustNotMatch.AnyMatch(name)
}

// Describe returns a one-line summary of the active filters, or "" when none are set.
func (r RegexFilters) Describe() string {
	var parts []string
	if r.MustMatch.IsDefined() {
		parts = append(parts, "running only checks matching "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		parts = append(parts, "skipping checks matching "+r.MustNotMatch.String())
	}
	return strings.Join(parts, "; ")
}

// RegexList is an ordered set of compiled patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

// ParseRegexList compiles each pattern in order.
func ParseRegexList(patterns []string) (RegexList, error) {
	var r RegexList
	for _, p := range patterns {
		if err := r.Set(p); err != nil {
			return RegexList{}, err
		}
	}
	return r, nil
}

func (r RegexList) String() string {
	ss := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		ss[i] = `"` + p.String() + `"`
	}
	return strings.Join(ss, " or ")
}

// Set compiles and appends a pattern.
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("harness: invalid regex %q: %w", value, err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// IsDefined reports whether any pattern was added.
func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

// AnyMatch reports whether s matches at least one pattern.
func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
