// Package blacklist excludes informational and security messages before any
// rule is consulted.
package blacklist

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTerms is the vocabulary applied when none is configured.
var DefaultTerms = []string{
	"otp",
	"password",
	"verification",
	"one time password",
	"e-statement",
	"statement ready",
	"login using otp",
}

// Filter matches message bodies against a fixed vocabulary. Terms match
// case-insensitively as whole words, and the spaces inside a multi-word term
// match any run of whitespace. A Filter is safe for concurrent use.
type Filter struct {
	re    *regexp.Regexp
	terms []string
}

// New builds a filter from terms. Blank and duplicate terms are ignored; an
// empty vocabulary excludes nothing.
func New(terms ...string) *Filter {
	seen := make(map[string]struct{}, len(terms))
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Join(strings.Fields(strings.ToLower(t)), " ")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		normalized = append(normalized, t)
	}

	f := &Filter{terms: normalized}
	if len(normalized) == 0 {
		return f
	}

	// Longest first so alternation prefers "login using otp" over "otp".
	ordered := append([]string(nil), normalized...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	alternatives := make([]string, len(ordered))
	for i, t := range ordered {
		words := strings.Split(t, " ")
		for k, w := range words {
			words[k] = regexp.QuoteMeta(w)
		}
		alternatives[i] = strings.Join(words, `\s+`)
	}

	f.re = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(alternatives, "|") + `)(?:$|[^\p{L}\p{N}_])`)
	return f
}

// Default returns a filter over DefaultTerms plus any extra terms.
func Default(extra ...string) *Filter {
	return New(append(append([]string(nil), DefaultTerms...), extra...)...)
}

// IsExcluded reports whether body contains any vocabulary term as a whole word.
func (f *Filter) IsExcluded(body string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(body)
}

// Terms returns the normalized vocabulary in configuration order.
func (f *Filter) Terms() []string {
	return append([]string(nil), f.terms...)
}
