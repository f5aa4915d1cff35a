// Package extract turns the capture groups of a pattern match into named
// fields.
package extract

import (
	"strings"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/pattern"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

// Strategy identifies how a field is derived from its capture group.
type Strategy int

const (
	// DirectCapture stores the trimmed group text.
	DirectCapture Strategy = iota
	// CategoricalSubRule maps the group text through ordered sub-rules.
	CategoricalSubRule
)

func (s Strategy) String() string {
	switch s {
	case DirectCapture:
		return "direct"
	case CategoricalSubRule:
		return "categorical"
	default:
		return "unknown"
	}
}

// StrategyFor returns the strategy a field spec resolves through.
func StrategyFor(spec ruleset.FieldSpec) Strategy {
	if spec.Categorical() {
		return CategoricalSubRule
	}
	return DirectCapture
}

// Fields extracts every field the pattern declares. A field whose group is out
// of range, did not participate in the match or is blank after trimming is
// omitted. Categorical fields with no accepting sub-rule are omitted as well.
func Fields(p *ruleset.Pattern, captures pattern.CaptureSet) model.ExtractedFields {
	out := make(model.ExtractedFields, len(p.DataFields))

	for _, name := range p.FieldNames() {
		spec := p.DataFields[name]

		text, ok := captures.Group(spec.GroupID)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch StrategyFor(spec) {
		case DirectCapture:
			out[name] = text
		case CategoricalSubRule:
			sub, ok := Resolve(spec.Rules, text)
			if !ok {
				continue
			}
			out[name] = sub.Type
			if sub.Position != "" {
				out[model.FieldPosition] = sub.Position
			}
		}
	}

	return out
}

// Resolve returns the first sub-rule accepting the capture. Matching is done
// on the lower-cased, trimmed capture.
func Resolve(rules []ruleset.SubRule, capture string) (ruleset.SubRule, bool) {
	normalized := strings.ToLower(strings.TrimSpace(capture))
	for _, r := range rules {
		if r.Matches(normalized) {
			return r, true
		}
	}
	return ruleset.SubRule{}, false
}
