package classification

import (
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

// Shared fragments for the built-in patterns.
const (
	amountExpr  = `(?:rs\.?|inr|₹)\s?([\d,]+(?:\.\d{1,2})?)`
	accountExpr = `((?:x{2,}|\*{2,})\d{3,5})`
	dateExpr    = `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`
)

func match(s string) *string { return &s }

// directionRules maps a debited/credited capture to a transaction type.
func directionRules() []ruleset.SubRule {
	return []ruleset.SubRule{
		{Match: match("debit"), Type: "debit"},
		{Match: match("spent"), Type: "debit"},
		{Match: match("withdrawn"), Type: "debit"},
		{Match: match("credit"), Type: "credit"},
		{Match: match("received"), Type: "credit"},
	}
}

// DefaultRules returns the built-in rules used when no ruleset file is
// configured. They cover the common message shapes of a handful of Indian
// banks.
func DefaultRules() []ruleset.RuleSpec {
	return []ruleset.RuleSpec{
		// HDFC Bank
		{
			Senders: []string{"HDFCBK", "HDFCBN"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)` + amountExpr + `\s+(debited|credited)\s+(?:from|to)\s+a/c\s+` + accountExpr + `(?:\s+on\s+` + dateExpr + `)?`,
					SMSType: "transaction",
					DataFields: map[string]ruleset.FieldSpec{
						"amount":           {GroupID: 1},
						"transaction_type": {GroupID: 2, Rules: directionRules()},
						"account":          {GroupID: 3},
						"date":             {GroupID: 4},
					},
				},
				{
					Regex:   `(?i)sent\s+` + amountExpr + `\s+from\s+.*?a/c\s+(\*{1,}\d{3,5}|x{2,}\d{3,5})\s+to\s+(.+?)\s+on\s+` + dateExpr,
					SMSType: "debit",
					DataFields: map[string]ruleset.FieldSpec{
						"amount":       {GroupID: 1},
						"account":      {GroupID: 2},
						"counterparty": {GroupID: 3},
						"date":         {GroupID: 4},
					},
				},
			},
		},
		// ICICI Bank
		{
			Senders: []string{"ICICIB", "ICICIT"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)acct\s+` + accountExpr + `\s+(debited|credited)\s+(?:for|with)\s+` + amountExpr + `(?:.*?;\s*(.+?)\s+credited)?`,
					SMSType: "transaction",
					DataFields: map[string]ruleset.FieldSpec{
						"account":          {GroupID: 1},
						"transaction_type": {GroupID: 2, Rules: directionRules()},
						"amount":           {GroupID: 3},
						"counterparty":     {GroupID: 4},
					},
				},
			},
		},
		// State Bank of India
		{
			Senders: []string{"SBIINB", "SBIPSG", "ATMSBI"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)a/c\s+` + accountExpr + `\s+(?:has been\s+)?(debited|credited)\s+by\s+` + amountExpr + `(?:\s+on\s+` + dateExpr + `)?(?:.*?transfer\s+(?:to|from)\s+([a-z][a-z ]*[a-z]))?`,
					SMSType: "transaction",
					DataFields: map[string]ruleset.FieldSpec{
						"account":          {GroupID: 1},
						"transaction_type": {GroupID: 2, Rules: directionRules()},
						"amount":           {GroupID: 3},
						"date":             {GroupID: 4},
						"counterparty":     {GroupID: 5},
					},
				},
			},
		},
		// Axis Bank
		{
			Senders: []string{"AXISBK"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)` + amountExpr + `\s+spent\s+on\s+.*?card\s+no\.?\s+` + accountExpr + `\s+at\s+(.+?)\s+on\s+` + dateExpr,
					SMSType: "debit",
					DataFields: map[string]ruleset.FieldSpec{
						"amount":   {GroupID: 1},
						"account":  {GroupID: 2},
						"merchant": {GroupID: 3},
						"date":     {GroupID: 4},
					},
				},
			},
		},
		// Kotak Mahindra Bank
		{
			Senders: []string{"KOTAKB"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)received\s+` + amountExpr + `\s+in\s+your\s+.*?a/c\s+` + accountExpr + `\s+from\s+(.+?)\s+on\s+` + dateExpr,
					SMSType: "credit",
					DataFields: map[string]ruleset.FieldSpec{
						"amount":       {GroupID: 1},
						"account":      {GroupID: 2},
						"counterparty": {GroupID: 3},
						"date":         {GroupID: 4},
					},
				},
			},
		},
	}
}

// DefaultRuleset builds the built-in rules.
func DefaultRuleset() (*ruleset.Ruleset, error) {
	return ruleset.New(DefaultRules())
}
