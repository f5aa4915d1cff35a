// Package ruleset holds the declarative rule model used to classify messages.
//
// A Ruleset is built once, compiles every pattern at build time and is then
// shared read-only by any number of concurrent classifications.
package ruleset

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/pattern"
)

// SubRule derives a categorical value from a captured group. A nil Match is a
// wildcard.
type SubRule struct {
	Match    *string
	Type     string
	Position string
}

// Matches reports whether the sub-rule accepts the normalized capture.
func (s SubRule) Matches(normalized string) bool {
	if s.Match == nil {
		return true
	}
	return strings.Contains(normalized, *s.Match)
}

// FieldSpec maps a field to a capture group, optionally through sub-rules.
type FieldSpec struct {
	Rules   []SubRule
	GroupID int
}

// Categorical reports whether the field resolves through sub-rules.
func (f FieldSpec) Categorical() bool {
	return len(f.Rules) > 0
}

// Pattern is one matching template of a Rule.
type Pattern struct {
	DataFields map[string]FieldSpec
	matcher    *pattern.Matcher
	err        error
	Regex      string
	SMSType    string
	fieldNames []string
}

// Matcher returns the compiled matcher, or the compile error for a malformed
// pattern.
func (p *Pattern) Matcher() (*pattern.Matcher, error) {
	return p.matcher, p.err
}

// FieldNames returns the data field names in sorted order.
func (p *Pattern) FieldNames() []string {
	return p.fieldNames
}

// Rule groups the patterns that apply to a set of senders.
type Rule struct {
	senders  map[string]struct{}
	Senders  []string
	Patterns []*Pattern
	Index    int
}

// HasSender reports exact membership of a sender code already reduced by
// NormalizeSender.
func (r *Rule) HasSender(sender string) bool {
	_, ok := r.senders[sender]
	return ok
}

// Ruleset is an ordered, immutable collection of rules.
type Ruleset struct {
	rules       []*Rule
	diagnostics []error
	warnings    []error
}

// RuleSpec is the plain-data input used to build a Ruleset.
type RuleSpec struct {
	Senders  []string
	Patterns []PatternSpec
}

// PatternSpec is the plain-data input for a Pattern.
type PatternSpec struct {
	DataFields map[string]FieldSpec
	Regex      string
	SMSType    string
}

// New builds a Ruleset. Structural problems fail the build; patterns that do
// not compile are kept, reported through Diagnostics and skipped at match
// time.
func New(specs []RuleSpec) (*Ruleset, error) {
	rs := &Ruleset{rules: make([]*Rule, 0, len(specs))}

	for i, spec := range specs {
		if len(spec.Senders) == 0 {
			return nil, fmt.Errorf("%w: rules[%d]: no senders", common.ErrInvalidRuleset, i)
		}

		rule := &Rule{
			Index:    i,
			senders:  make(map[string]struct{}, len(spec.Senders)),
			Patterns: make([]*Pattern, 0, len(spec.Patterns)),
		}
		for _, s := range spec.Senders {
			canonical, err := ParseSender(s)
			if err != nil {
				return nil, fmt.Errorf("%w: rules[%d]: %w", common.ErrInvalidRuleset, i, err)
			}
			if _, dup := rule.senders[canonical]; !dup {
				rule.Senders = append(rule.Senders, canonical)
			}
			rule.senders[canonical] = struct{}{}
		}

		for j, ps := range spec.Patterns {
			p, err := buildPattern(ps)
			if err != nil {
				return nil, fmt.Errorf("%w: rules[%d].patterns[%d]: %v", common.ErrInvalidRuleset, i, j, err)
			}
			if p.err != nil {
				diag := &common.PatternError{Rule: i, Pattern: j, Regex: ps.Regex, Err: p.err}
				rs.diagnostics = append(rs.diagnostics, diag)
				slog.Warn("Skipping malformed pattern",
					"rule", i,
					"pattern", j,
					"regex", ps.Regex,
					"error", p.err)
			}
			for _, err := range p.missingGroups() {
				rs.warnings = append(rs.warnings, &common.PatternError{Rule: i, Pattern: j, Regex: ps.Regex, Err: err})
				slog.Warn("Field will never be extracted",
					"rule", i,
					"pattern", j,
					"error", err)
			}
			rule.Patterns = append(rule.Patterns, p)
		}

		rs.rules = append(rs.rules, rule)
	}

	return rs, nil
}

func buildPattern(ps PatternSpec) (*Pattern, error) {
	if strings.TrimSpace(ps.Regex) == "" {
		return nil, fmt.Errorf("missing regex")
	}
	if strings.TrimSpace(ps.SMSType) == "" {
		return nil, fmt.Errorf("missing sms_type")
	}

	p := &Pattern{
		Regex:      ps.Regex,
		SMSType:    strings.TrimSpace(ps.SMSType),
		DataFields: make(map[string]FieldSpec, len(ps.DataFields)),
	}

	for name, field := range ps.DataFields {
		if field.GroupID < 0 {
			return nil, fmt.Errorf("data_fields.%s: negative group_id %d", name, field.GroupID)
		}
		normalized := FieldSpec{GroupID: field.GroupID}
		for k, sub := range field.Rules {
			if strings.TrimSpace(sub.Type) == "" {
				return nil, fmt.Errorf("data_fields.%s.rules[%d]: missing type", name, k)
			}
			normalized.Rules = append(normalized.Rules, normalizeSubRule(sub))
		}
		p.DataFields[name] = normalized
		p.fieldNames = append(p.fieldNames, name)
	}
	sort.Strings(p.fieldNames)

	m, err := pattern.Compile(ps.Regex)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", common.ErrMalformedPattern, err)
	} else {
		p.matcher = m
	}

	return p, nil
}

// missingGroups reports data fields whose group_id is beyond the groups of
// the compiled regex. Such fields are always absent from the extraction.
func (p *Pattern) missingGroups() []error {
	if p.matcher == nil {
		return nil
	}
	var errs []error
	n := p.matcher.NumGroups()
	for _, name := range p.fieldNames {
		if id := p.DataFields[name].GroupID; id > n {
			errs = append(errs, fmt.Errorf("%w: data_fields.%s uses group %d of %d", common.ErrMissingGroup, name, id, n))
		}
	}
	return errs
}

func normalizeSubRule(sub SubRule) SubRule {
	out := SubRule{
		Type:     strings.TrimSpace(sub.Type),
		Position: strings.TrimSpace(sub.Position),
	}
	if sub.Match != nil {
		match := strings.ToLower(strings.TrimSpace(*sub.Match))
		out.Match = &match
	}
	return out
}

// Rules returns the rules in declaration order.
func (rs *Ruleset) Rules() []*Rule {
	return rs.rules
}

// Len returns the number of rules.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// Diagnostics returns the pattern compile failures found while building.
func (rs *Ruleset) Diagnostics() []error {
	return rs.diagnostics
}

// Warnings returns problems that leave a pattern usable, such as a data field
// pointing at a capture group the regex does not have.
func (rs *Ruleset) Warnings() []error {
	return rs.warnings
}

// PatternCount returns the total number of patterns and how many of them
// compiled.
func (rs *Ruleset) PatternCount() (total, usable int) {
	for _, r := range rs.rules {
		for _, p := range r.Patterns {
			total++
			if p.err == nil {
				usable++
			}
		}
	}
	return total, usable
}
