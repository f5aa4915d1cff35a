package classification

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-sms-must-flow/internal/blacklist"
	"github.com/Veraticus/the-sms-must-flow/internal/extract"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

// Outcome is the terminal state of a single classification.
type Outcome int

// Classification outcomes.
const (
	// NoMatch means no candidate pattern matched the body.
	NoMatch Outcome = iota
	// Rejected means the blacklist excluded the message.
	Rejected
	// Emitted means a pattern matched and Result is populated.
	Emitted
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "no_match"
	case Rejected:
		return "rejected"
	case Emitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Decision is the result of classifying one message.
type Decision struct {
	Result  *model.ClassificationResult
	Outcome Outcome
}

// Engine classifies messages against a ruleset. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	rules     *ruleset.Ruleset
	blacklist *blacklist.Filter
}

// NewEngine creates an engine. A nil filter excludes nothing.
func NewEngine(rules *ruleset.Ruleset, filter *blacklist.Filter) *Engine {
	return &Engine{
		rules:     rules,
		blacklist: filter,
	}
}

// Ruleset returns the ruleset the engine classifies against.
func (e *Engine) Ruleset() *ruleset.Ruleset {
	return e.rules
}

// Classify runs the blacklist check and then scans the candidate rules'
// patterns in declaration order. The first matching pattern wins; patterns
// that failed to compile are skipped.
func (e *Engine) Classify(ctx context.Context, msg model.Message) Decision {
	if e.blacklist.IsExcluded(msg.Body) {
		slog.DebugContext(ctx, "Message excluded by blacklist", "sender", msg.Sender)
		return Decision{Outcome: Rejected}
	}

	for _, rule := range SelectCandidates(msg.Sender, e.rules) {
		for j, p := range rule.Patterns {
			m, err := p.Matcher()
			if err != nil {
				continue
			}
			captures, ok := m.TryMatch(msg.Body)
			if !ok {
				continue
			}

			slog.DebugContext(ctx, "Message matched pattern",
				"sender", msg.Sender,
				"rule", rule.Index,
				"pattern", j,
				"sms_type", p.SMSType)

			return Decision{
				Outcome: Emitted,
				Result: &model.ClassificationResult{
					Sender:       msg.Sender,
					Body:         msg.Body,
					SMSType:      p.SMSType,
					Extracted:    extract.Fields(p, captures),
					RuleIndex:    rule.Index,
					PatternIndex: j,
				},
			}
		}
	}

	return Decision{Outcome: NoMatch}
}
