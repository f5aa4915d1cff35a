package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-sms-must-flow/internal/bank"
		"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

var (
	bodyAmountRe     = regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s?([\d,]+\.?\d{0,2})`)
	currencyPrefixRe = regexp.MustCompile(`(?i)^(?:rs\.?|inr|₹)\s*`)
	amountValueRe    = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
	maskedAccountRe  = regexp.MustCompile(`(?:x{2,}|X{2,}|\*{2,})\d{3,5}`)
	creditKeywordRe  = regexp.MustCompile(`(?i)credited|received`)
	numericDateRe    = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})\b`)
	namedMonthDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})[-/ ]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[-/ ,]*(\d{2,4})\b`)

	gateAmountRe = regexp.MustCompile(`(?i)(rs\.?|inr|₹)\s?\d+([,.]\d{1,2})?`)
)

// transactionKeywords is the vocabulary of the heuristic acceptance gate.
var transactionKeywords = []string{
	"debited",
	"credited",
	"spent",
	"withdrawn",
	"purchase",
	"paid",
	"received",
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseAmount converts an amount field value such as "1,250.00" or "Rs.500"
// into a decimal. Thousands separators are ignored and at most two decimal
// digits are accepted.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = currencyPrefixRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, ".")
	if !amountValueRe.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", common.ErrUnparseableAmount, text)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q: %v", common.ErrUnparseableAmount, text, err)
	}
	return d, nil
}

// ScanAmount finds the first currency-marked amount in a message body.
func ScanAmount(body string) (decimal.Decimal, error) {
	m := bodyAmountRe.FindStringSubmatch(body)
	if m == nil {
		return decimal.Decimal{}, common.ErrMissingAmount
	}
	return ParseAmount(m[1])
}

// InferType returns credit when the body mentions money being credited or
// received, and debit otherwise.
func InferType(body string) model.TransactionType {
	if creditKeywordRe.MatchString(body) {
		return model.TypeCredit
	}
	return model.TypeDebit
}

// FindMaskedAccount returns the first masked account number in body.
func FindMaskedAccount(body string) (string, bool) {
	m := maskedAccountRe.FindString(body)
	return m, m != ""
}

// ParseDate reads a day-month-year date from text. Numeric forms use '-' or
// '/' separators; abbreviated month names are also accepted. Two-digit years
// are in the 2000s. Impossible calendar dates are rejected.
func ParseDate(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		month, err := strconv.Atoi(m[2])
		if err == nil {
			if t, ok := buildDate(m[1], time.Month(month), m[3], loc); ok {
				return t, true
			}
		}
	}

	if m := namedMonthDateRe.FindStringSubmatch(text); m != nil {
		if month, ok := monthsByPrefix[strings.ToLower(m[2])]; ok {
			return buildDate(m[1], month, m[3], loc)
		}
	}

	return time.Time{}, false
}

func buildDate(dayText string, month time.Month, yearText string, loc *time.Location) (time.Time, bool) {
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	switch len(yearText) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// PassesGate reports whether a body looks transactional: it carries a masked
// account, a currency-marked amount and a transaction keyword.
func PassesGate(body string) bool {
	if !maskedAccountRe.MatchString(body) || !gateAmountRe.MatchString(body) {
		return false
	}
	lower := strings.ToLower(body)
	for _, kw := range transactionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Deriver builds transactions from classification results.
type Deriver struct {
	directory *bank.Directory
	location  *time.Location
}

// NewDeriver creates a deriver. A nil location means time.Local.
func NewDeriver(directory *bank.Directory, loc *time.Location) *Deriver {
	if directory == nil {
		directory = bank.NewDirectory(nil)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Deriver{directory: directory, location: loc}
}

// Transaction derives the transaction for a classified message. It never
// fails: problems with individual fields leave those fields absent or
// invalid.
func (d *Deriver) Transaction(msg model.Message, res *model.ClassificationResult) model.Transaction {
	fields := res.Extracted
	if fields == nil {
		fields = model.ExtractedFields{}
	}

	txn := model.Transaction{
		Sender:   msg.Sender,
		SMSType:  res.SMSType,
		RawBody:  msg.Body,
		Fields:   fields.Clone(),
		BankName: d.bankName(msg.Sender),
		Type:     d.transactionType(fields, res.SMSType, msg.Body),
		Amount:   d.amount(fields, msg.Body),
	}

	if account, ok := fields.Get(model.FieldAccount); ok {
		txn.MaskedAccount = model.StringPtr(account)
	} else if account, ok := FindMaskedAccount(msg.Body); ok {
		txn.MaskedAccount = model.StringPtr(account)
	}

	if cp, ok := fields.Get(model.FieldCounterparty); ok {
		txn.Counterparty = model.StringPtr(cp)
	} else if merchant, ok := fields.Get(model.FieldMerchant); ok {
		txn.Counterparty = model.StringPtr(merchant)
	}

	txn.OccurredAt, txn.DateSource = d.occurredAt(fields, msg)
	txn.ID = txn.GenerateHash()

	return txn
}

// Heuristic accepts an unmatched message from a known bank sender when it
// passes the transactional gate.
func (d *Deriver) Heuristic(msg model.Message) (model.Transaction, bool) {
	code, ok := ruleset.NormalizeSender(msg.Sender)
	if !ok {
		return model.Transaction{}, false
	}
	if _, known := d.directory.Lookup(code); !known {
		return model.Transaction{}, false
	}
	if !PassesGate(msg.Body) {
		return model.Transaction{}, false
	}

	txn := d.Transaction(msg, &model.ClassificationResult{
		Sender:    msg.Sender,
		Body:      msg.Body,
		Extracted: model.ExtractedFields{},
	})
	txn.Heuristic = true
	return txn, true
}

func (d *Deriver) amount(fields model.ExtractedFields, body string) decimal.NullDecimal {
	var (
		amt decimal.Decimal
		err error
	)
	// A rule-supplied amount is authoritative even when it cannot be parsed.
	if text, ok := fields.Get(model.FieldAmount); ok {
		amt, err = ParseAmount(text)
	} else {
		amt, err = ScanAmount(body)
	}
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amt)
}

func (d *Deriver) transactionType(fields model.ExtractedFields, smsType, body string) model.TransactionType {
	if text, ok := fields.Get(model.FieldTransactionType); ok {
		if t, ok := model.ParseTransactionType(text); ok {
			return t
		}
	}
	if t, ok := model.ParseTransactionType(smsType); ok {
		return t
	}
	return InferType(body)
}

func (d *Deriver) occurredAt(fields model.ExtractedFields, msg model.Message) (time.Time, model.DateSource) {
	if text, ok := fields.Get(model.FieldDate); ok {
		if t, ok := ParseDate(text, d.location); ok {
			return t, model.DateFromField
		}
	}
	if t, ok := ParseDate(msg.Body, d.location); ok {
		return t, model.DateFromBody
	}
	if msg.HasTimestamp() {
		return msg.Timestamp.In(d.location), model.DateFromTimestamp
	}
	return time.Time{}, ""
}

func (d *Deriver) bankName(sender string) string {
	code, ok := ruleset.NormalizeSender(sender)
	if !ok {
		return d.directory.Resolve("", sender)
	}
	return d.directory.Resolve(code, code, sender)
}
