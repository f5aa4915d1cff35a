package model

// Well-known extracted field names.
const (
	FieldAmount          = "amount"
	FieldTransactionType = "transaction_type"
	FieldAccount         = "account"
	FieldCounterparty    = "counterparty"
	FieldMerchant        = "merchant"
	FieldDate            = "date"

	// FieldPosition is reserved for the positional override emitted by a
	// categorical sub-rule.
	FieldPosition = "position"
)

// ExtractedFields maps a field name to its trimmed, non-empty captured value.
type ExtractedFields map[string]string

// Get returns the value of a field and whether it was populated.
func (f ExtractedFields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok && v != ""
}

// Clone returns an independent copy.
func (f ExtractedFields) Clone() ExtractedFields {
	out := make(ExtractedFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ClassificationResult is emitted for a message matched by a rule pattern.
type ClassificationResult struct {
	Extracted ExtractedFields
	Sender    string
	Body      string
	SMSType   string
	// RuleIndex and PatternIndex locate the matching pattern in the ruleset.
	RuleIndex    int
	PatternIndex int
}
