package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Filter selects transactions for presentation. Zero values disable a
// criterion.
type Filter struct {
	From time.Time
	To   time.Time
	Bank string
}

// Matches reports whether txn falls within the filter. The date range is
// [From, To+24h) so the whole end day is included.
func (f Filter) Matches(txn model.Transaction) bool {
	if f.Bank != "" && txn.BankName != f.Bank {
		return false
	}
	if !f.From.IsZero() && txn.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !txn.OccurredAt.Before(f.To.Add(24*time.Hour)) {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving order.
func (f Filter) Apply(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Totals aggregates a set of transactions. Transactions with an invalid
// amount are counted but contribute nothing to the sums.
type Totals struct {
	Credit  decimal.Decimal
	Debit   decimal.Decimal
	Count   int
	Credits int
	Debits  int
	Invalid int
}

// Net returns credits minus debits.
func (t Totals) Net() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// Summarize computes totals over txns.
func Summarize(txns []model.Transaction) Totals {
	totals := Totals{
		Credit: decimal.Zero,
		Debit:  decimal.Zero,
		Count:  len(txns),
	}
	for _, t := range txns {
		if !t.Amount.Valid {
			totals.Invalid++
			continue
		}
		switch t.Type {
		case model.TypeCredit:
			totals.Credit = totals.Credit.Add(t.Amount.Decimal)
			totals.Credits++
		case model.TypeDebit:
			totals.Debit = totals.Debit.Add(t.Amount.Decimal)
			totals.Debits++
		}
	}
	return totals
}

// Banks returns the distinct non-empty bank names in sorted order.
func Banks(txns []model.Transaction) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, t := range txns {
		if t.BankName == "" {
			continue
		}
		if _, ok := seen[t.BankName]; ok {
			continue
		}
		seen[t.BankName] = struct{}{}
		names = append(names, t.BankName)
	}
	sort.Strings(names)
	return names
}
