// Package classification decides whether a message is a transaction and
// extracts its fields using a declarative ruleset.
package classification

import "github.com/Veraticus/the-sms-must-flow/internal/ruleset"

// SelectCandidates returns, in declaration order, the rules whose sender set
// contains the normalized sender. A sender that cannot be normalized selects
// no rules.
func SelectCandidates(sender string, rs *ruleset.Ruleset) []*ruleset.Rule {
	if rs == nil {
		return nil
	}
	normalized, ok := ruleset.NormalizeSender(sender)
	if !ok {
		return nil
	}

	var candidates []*ruleset.Rule
	for _, r := range rs.Rules() {
		if r.HasSender(normalized) {
			candidates = append(candidates, r)
		}
	}
	return candidates
}
