package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
)

func sampleTransactions() []model.Transaction {
	return []model.Transaction{
		{
			OccurredAt:    time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
			BankName:      "HDFC Bank",
			Type:          model.TypeDebit,
			Amount:        decimal.NewNullDecimal(decimal.RequireFromString("1250.5")),
			MaskedAccount: model.StringPtr("XX1234"),
			Counterparty:  model.StringPtr("AMAZON PAY INDIA PRIVATE LIMITED BANGALORE"),
		},
		{
			BankName:  "ICICI Bank",
			Type:      model.TypeCredit,
			Heuristic: true,
		},
	}
}

func TestTransactionRow(t *testing.T) {
	txns := sampleTransactions()

	row := TransactionRow(txns[0])
	assert.Equal(t, []string{"2024-03-07", "HDFC Bank", "debit", "1250.50", "XX1234", "AMAZON PAY INDIA PRIVATE LI…"}, row)

	row = TransactionRow(txns[1])
	assert.Equal(t, []string{"-", "ICICI Bank", "credit*", "?", "", ""}, row)
}

func TestRenderTransactions(t *testing.T) {
	out := RenderTransactions(sampleTransactions())

	for _, want := range []string{"Date", "Counterparty", "HDFC Bank", "1250.50", "credit*"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderTotals(t *testing.T) {
	totals := reconcile.Summarize(sampleTransactions())

	out := RenderTotals(totals, "INR")
	assert.Contains(t, out, "Transactions: 2 (0 credit, 1 debit)")
	assert.Contains(t, out, "1250.50")
	assert.Contains(t, out, "-1250.50 INR")
	assert.Contains(t, out, "1 without a readable amount")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(reconcile.Summary{Total: 5, Emitted: 2, Heuristic: 1, Rejected: 1, Unmatched: 1})
	assert.Contains(t, out, "Messages: 5")
	assert.Contains(t, out, "Matched by rules: 2")
	assert.Contains(t, out, "Rejected (blacklisted): 1")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		limit int
	}{
		{name: "short", in: "abc", limit: 5, want: "abc"},
		{name: "exact", in: "abcde", limit: 5, want: "abcde"},
		{name: "long", in: "abcdef", limit: 5, want: "abcd…"},
		{name: "multibyte", in: "₹₹₹₹₹₹", limit: 3, want: "₹₹…"},
		{name: "no limit", in: "abc", limit: 0, want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.limit))
		})
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "Classifying messages...")
	tick := Tick(bar)
	for i := 0; i < 3; i++ {
		tick()
	}
	assert.True(t, bar.IsFinished())
	assert.Contains(t, buf.String(), "Classifying messages...")
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("bad"), ErrorIcon)
	assert.Contains(t, FormatTitle("Inbox"), "Inbox")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}
