// Package pattern compiles and evaluates single text patterns against message bodies.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// caseInsensitiveMarker is the embedded flag a pattern may start with.
const caseInsensitiveMarker = "(?i)"

// Flags are the matching modes derived from a pattern's source text.
type Flags struct {
	CaseInsensitive bool
}

// Matcher is a compiled pattern. It is safe for concurrent use.
type Matcher struct {
	re      *regexp.Regexp
	source  string
	literal string
	flags   Flags
}

// Compile strips a leading case-insensitive marker into a flag and compiles the
// remaining literal pattern.
func Compile(source string) (*Matcher, error) {
	literal, flags := splitFlags(source)
	if literal == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	expr := literal
	if flags.CaseInsensitive {
		expr = caseInsensitiveMarker + literal
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}

	return &Matcher{
		re:      re,
		source:  source,
		literal: literal,
		flags:   flags,
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixed patterns.
func MustCompile(source string) *Matcher {
	m, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return m
}

func splitFlags(source string) (string, Flags) {
	var flags Flags
	trimmed := strings.TrimLeft(source, " \t")
	for strings.HasPrefix(trimmed, caseInsensitiveMarker) {
		flags.CaseInsensitive = true
		trimmed = trimmed[len(caseInsensitiveMarker):]
	}
	if !flags.CaseInsensitive {
		return source, flags
	}
	return trimmed, flags
}

// Source returns the pattern text as configured.
func (m *Matcher) Source() string { return m.source }

// Literal returns the pattern text with the marker stripped.
func (m *Matcher) Literal() string { return m.literal }

// Flags returns the matching modes.
func (m *Matcher) Flags() Flags { return m.flags }

// NumGroups returns the number of parenthesized groups.
func (m *Matcher) NumGroups() int { return m.re.NumSubexp() }

// TryMatch performs a single first-match scan over body.
func (m *Matcher) TryMatch(body string) (CaptureSet, bool) {
	loc := m.re.FindStringSubmatchIndex(body)
	if loc == nil {
		return CaptureSet{}, false
	}

	groups := make([]capture, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		groups[i] = capture{text: body[start:end], matched: true}
	}
	return CaptureSet{groups: groups}, true
}

type capture struct {
	text    string
	matched bool
}

// CaptureSet holds the groups of one match: 0 is the whole match, 1..N the
// parenthesized groups.
type CaptureSet struct {
	groups []capture
}

// NewCaptureSet builds a capture set where every given group participated.
func NewCaptureSet(groups ...string) CaptureSet {
	cs := CaptureSet{groups: make([]capture, len(groups))}
	for i, g := range groups {
		cs.groups[i] = capture{text: g, matched: true}
	}
	return cs
}

// Len returns the number of groups including group 0.
func (c CaptureSet) Len() int { return len(c.groups) }

// Group returns the text of group i and whether that group participated in
// the match. Out-of-range indices report false.
func (c CaptureSet) Group(i int) (string, bool) {
	if i < 0 || i >= len(c.groups) {
		return "", false
	}
	g := c.groups[i]
	return g.text, g.matched
}

// Whole returns group 0.
func (c CaptureSet) Whole() string {
	text, _ := c.Group(0)
	return text
}
