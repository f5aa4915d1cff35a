package reconcile

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-sms-must-flow/internal/bank"
	"github.com/Veraticus/the-sms-must-flow/internal/blacklist"
	"github.com/Veraticus/the-sms-must-flow/internal/classification"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

func testRules() []ruleset.RuleSpec {
	return []ruleset.RuleSpec{
		{
			Senders: []string{"CITYBK"},
			Patterns: []ruleset.PatternSpec{
				{
					Regex:   `(?i)rs\.?\s?([\d,]+(?:\.\d{1,2})?) (debited|credited) from a/c (\w+) on (\d{2}-\d{2}-\d{2})`,
					SMSType: "transaction",
					DataFields: map[string]ruleset.FieldSpec{
						"amount":  {GroupID: 1},
						"account": {GroupID: 3},
						"date":    {GroupID: 4},
						"transaction_type": {GroupID: 2, Rules: []ruleset.SubRule{
							{Match: strPtr("debited"), Type: "debit"},
							{Match: strPtr("credited"), Type: "credit"},
						}},
					},
				},
				{
					Regex:   `(?i)you have received`,
					SMSType: "alert",
				},
				{
					Regex:   `(?i)refund of (rs\.?\s?\S+)`,
					SMSType: "refund",
					DataFields: map[string]ruleset.FieldSpec{
						"amount": {GroupID: 1},
					},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func newTestReconciler(t *testing.T, opts Options) *Reconciler {
	t.Helper()
	rs, err := ruleset.New(testRules())
	require.NoError(t, err)
	engine := classification.NewEngine(rs, blacklist.Default())
	deriver := NewDeriver(bank.NewDirectory(map[string]string{"CITYBK": "City Bank", "TOWNBK": "Town Bank"}), time.UTC)
	return New(engine, deriver, opts)
}

func TestReconciler_ScenarioA(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	txns, err := r.ClassifyAll(context.Background(), []model.Message{
		{Sender: "VM-CITYBK", Body: "Rs.500 debited from a/c XX1234 on 05-06-24 for purchase"},
	})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, "500.00", txn.Amount.Decimal.StringFixed(2))
	assert.Equal(t, model.TypeDebit, txn.Type)
	assert.Equal(t, "XX1234", model.Deref(txn.MaskedAccount))
	assert.True(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC).Equal(txn.OccurredAt))
	assert.Equal(t, "City Bank", txn.BankName)
}

func TestReconciler_ScenarioB(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	batch, err := r.Run(context.Background(), []model.Message{
		{Sender: "VM-CITYBK", Body: "OTP is 4532 for login to a/c XX1234, Rs.500 debited"},
	})
	require.NoError(t, err)
	assert.Empty(t, batch.Transactions)
	assert.Equal(t, 1, batch.Summary.Rejected)
}

func TestReconciler_ScenarioC(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	txns, err := r.ClassifyAll(context.Background(), []model.Message{
		{Sender: "CITYBK", Body: "You have received Rs 2,500.00 in your account"},
	})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "2500.00", txns[0].Amount.Decimal.StringFixed(2))
	assert.Equal(t, model.TypeCredit, txns[0].Type)
}

func TestReconciler_ScenarioD(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	txns, err := r.ClassifyAll(context.Background(), []model.Message{
		{Sender: "CITYBK", Body: "Rs.100 credited from a/c XX1111 on 01-06-24"},
		{Sender: "CITYBK", Body: "Refund of Rs.abc processed"},
	})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.False(t, txns[1].HasAmount())

	totals := Summarize(txns)
	assert.Equal(t, "100.00", totals.Credit.StringFixed(2))
	assert.True(t, totals.Debit.IsZero())
	assert.Equal(t, 1, totals.Credits)
	assert.Equal(t, 0, totals.Debits)
	assert.Equal(t, 1, totals.Invalid)
	assert.Equal(t, 2, totals.Count)
}

func TestReconciler_ScenarioE(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	batch, err := r.Run(context.Background(), []model.Message{
		{Sender: "VM-TOWNBK", Body: "Your a/c statement for May is available"},
		{Sender: "VM-TOWNBK", Body: "Rs.250 spent on card XX9876 at CAFE"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Transactions, 1)
	assert.Equal(t, "Rs.250 spent on card XX9876 at CAFE", batch.Transactions[0].RawBody)
	assert.True(t, batch.Transactions[0].Heuristic)
	assert.Equal(t, 1, batch.Summary.Heuristic)
	assert.Equal(t, 1, batch.Summary.Unmatched)
}

func TestReconciler_HeuristicsDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Heuristics = false
	r := newTestReconciler(t, opts)

	txns, err := r.ClassifyAll(context.Background(), []model.Message{
		{Sender: "VM-TOWNBK", Body: "Rs.250 spent on card XX9876 at CAFE"},
	})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestReconciler_OrderPreserved(t *testing.T) {
	var processed atomic.Int64
	opts := Options{Workers: 8, Heuristics: true, Progress: func() { processed.Add(1) }}
	r := newTestReconciler(t, opts)

	msgs := make([]model.Message, 0, 200)
	for i := 0; i < 200; i++ {
		body := fmt.Sprintf("Rs.%d debited from a/c XX1234 on 05-06-24", i+1)
		if i%3 == 0 {
			body = "Your OTP is 1234"
		}
		msgs = append(msgs, model.Message{Sender: "CITYBK", Body: body})
	}

	txns, err := r.ClassifyAll(context.Background(), msgs)
	require.NoError(t, err)
	assert.EqualValues(t, 200, processed.Load())

	var want []string
	for i := 0; i < 200; i++ {
		if i%3 != 0 {
			want = append(want, fmt.Sprintf("%d", i+1))
		}
	}
	got := make([]string, len(txns))
	for i, txn := range txns {
		got[i] = txn.Amount.Decimal.String()
	}
	assert.Equal(t, want, got)
}

func TestReconciler_Idempotent(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())
	msgs := []model.Message{
		{Sender: "CITYBK", Body: "Rs.500 debited from a/c XX1234 on 05-06-24"},
		{Sender: "CITYBK", Body: "You have received Rs 20 in your account"},
		{Sender: "VM-TOWNBK", Body: "Rs.250 spent on card XX9876"},
	}

	first, err := r.ClassifyAll(context.Background(), msgs)
	require.NoError(t, err)
	second, err := r.ClassifyAll(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReconciler_EmptyBatch(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())
	txns, err := r.ClassifyAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, txns)
	assert.Empty(t, txns)
}

func TestReconciler_Cancelled(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txns, err := r.ClassifyAll(ctx, []model.Message{{Sender: "CITYBK", Body: "Rs.1 debited from a/c XX1 on 01-01-24"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, txns)
}

func TestReconciler_ClassifyOne(t *testing.T) {
	r := newTestReconciler(t, DefaultOptions())

	txn, ok := r.ClassifyOne(context.Background(), model.Message{Sender: "CITYBK", Body: "Rs.9 credited from a/c XX4321 on 02-03-24"})
	require.True(t, ok)
	assert.Equal(t, model.TypeCredit, txn.Type)

	_, ok = r.ClassifyOne(context.Background(), model.Message{Sender: "CITYBK", Body: "hello"})
	assert.False(t, ok)
}
