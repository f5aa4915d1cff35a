package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement.
type TransactionType string

// Transaction types.
const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// ParseTransactionType accepts "credit" or "debit" in any case.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeCredit:
		return TypeCredit, true
	case TypeDebit:
		return TypeDebit, true
	}
	return "", false
}

// DateSource records where a transaction's date came from.
type DateSource string

// Date sources.
const (
	DateFromField     DateSource = "field"
	DateFromBody      DateSource = "body"
	DateFromTimestamp DateSource = "timestamp"
)

// Transaction is derived once per successfully classified message.
type Transaction struct {
	OccurredAt    time.Time
	MaskedAccount *string
	Counterparty  *string
	Fields        ExtractedFields
	ID            string
	Type          TransactionType
	BankName      string
	Sender        string
	SMSType       string
	RawBody       string
	DateSource    DateSource
	// Amount is invalid (Valid=false) when the amount was missing or could
	// not be parsed; it is never silently zero.
	Amount decimal.NullDecimal
	// Heuristic is true when no rule matched and the transaction was
	// accepted by the keyword/account/amount gate.
	Heuristic bool
}

// HasAmount reports whether the amount is valid.
func (t *Transaction) HasAmount() bool {
	return t.Amount.Valid
}

// GenerateHash creates a stable identifier for the transaction.
func (t *Transaction) GenerateHash() string {
	amount := "invalid"
	if t.Amount.Valid {
		amount = t.Amount.Decimal.StringFixed(2)
	}
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.OccurredAt.Format(time.RFC3339),
		amount,
		t.Type,
		t.Sender,
		t.RawBody)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or the empty string.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
