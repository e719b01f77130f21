// Package keyword implements whole-word, case-insensitive keyword matching.
// A keyword never matches inside a longer word: "CEO" does not match
// "CEOship".
package keyword

import (
	"regexp"
	"strings"
)

// Matcher matches a single keyword on word boundaries.
type Matcher struct {
	Term string
	re   *regexp.Regexp
}

// Compile builds a matcher for term. Empty terms never match.
func Compile(term string) *Matcher {
	term = strings.TrimSpace(term)
	m := &Matcher{Term: term}
	if term == "" {
		return m
	}
	m.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
	return m
}

// Count returns the number of non-overlapping whole-word occurrences in
// text. The text is lowercased before matching.
func (m *Matcher) Count(text string) int {
	if m.re == nil || text == "" {
		return 0
	}
	return len(m.re.FindAllStringIndex(strings.ToLower(text), -1))
}

// Match reports whether the keyword occurs in text.
func (m *Matcher) Match(text string) bool {
	if m.re == nil || text == "" {
		return false
	}
	return m.re.MatchString(strings.ToLower(text))
}

// List is an ordered set of matchers.
type List []*Matcher

// NewList compiles terms in order, skipping blanks.
func NewList(terms []string) List {
	out := make(List, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, Compile(t))
	}
	return out
}

// First returns the first keyword in list order that matches text.
func (l List) First(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, m := range l {
		if m.re != nil && m.re.MatchString(lower) {
			return m.Term, true
		}
	}
	return "", false
}

// Any reports whether any keyword in the list matches text.
func (l List) Any(text string) bool {
	_, ok := l.First(text)
	return ok
}
