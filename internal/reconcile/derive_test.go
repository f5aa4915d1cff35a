package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-sms-must-flow/internal/bank"
	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "500", want: "500"},
		{input: "1,250.00", want: "1250"},
		{input: " 2,500.5 ", want: "2500.5"},
		{input: "Rs.500", want: "500"},
		{input: "INR 1,00,000", want: "100000"},
		{input: "₹ 75.25", want: "75.25"},
		{input: "500.", want: "500"},
		{input: "0", want: "0"},
		{input: "12.345", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "Rs.", wantErr: true},
		{input: ",", wantErr: true},
		{input: "", wantErr: true},
		{input: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrUnparseableAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestScanAmount(t *testing.T) {
	got, err := ScanAmount("You have received Rs 2,500.00 in your account")
	require.NoError(t, err)
	assert.Equal(t, "2500.00", got.StringFixed(2))

	got, err = ScanAmount("INR1,000 spent. Avl bal INR 5,000")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", got.StringFixed(2))

	_, err = ScanAmount("Your card has been blocked")
	assert.ErrorIs(t, err, common.ErrMissingAmount)

	_, err = ScanAmount("Rs., debited")
	assert.ErrorIs(t, err, common.ErrUnparseableAmount)
}

func TestInferType(t *testing.T) {
	assert.Equal(t, model.TypeCredit, InferType("You have RECEIVED Rs 10"))
	assert.Equal(t, model.TypeCredit, InferType("Rs 10 credited to a/c"))
	assert.Equal(t, model.TypeDebit, InferType("Rs 10 spent at store"))
	assert.Equal(t, model.TypeDebit, InferType(""))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		want   time.Time
		name   string
		text   string
		wantOK bool
	}{
		{name: "dash two digit year", text: "on 05-06-24 for", want: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "slash four digit year", text: "31/12/2023", want: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "single digits", text: "1/2/25", want: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "named month", text: "on 05-Jun-24;", want: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "compact named month", text: "on 07Mar2024 at", want: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "impossible day", text: "31-02-24", wantOK: false},
		{name: "month out of range", text: "05-13-24", wantOK: false},
		{name: "three digit year", text: "05-06-202", wantOK: false},
		{name: "no date", text: "Rs.500 debited", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.text, time.UTC)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestPassesGate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "complete", body: "Rs.500 debited from a/c XX1234", want: true},
		{name: "star mask", body: "INR 20.50 spent on card **4321", want: true},
		{name: "no account", body: "Rs.500 debited from your account", want: false},
		{name: "no amount", body: "a/c XX1234 debited", want: false},
		{name: "no keyword", body: "Rs.500 due on a/c XX1234", want: false},
		{name: "short mask", body: "Rs.500 debited from a/c X1234", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PassesGate(tt.body))
		})
	}
}

func TestDeriver_Transaction(t *testing.T) {
	d := NewDeriver(bank.NewDirectory(map[string]string{"CITYBK": "City Bank"}), time.UTC)
	ts := time.Date(2024, 7, 1, 10, 30, 0, 0, time.UTC)

	t.Run("fields take precedence", func(t *testing.T) {
		msg := model.Message{Sender: "VM-CITYBK", Body: "Rs.500 debited from a/c XX1234 on 05-06-24 for purchase", Timestamp: ts}
		txn := d.Transaction(msg, &model.ClassificationResult{
			SMSType: "transaction",
			Extracted: model.ExtractedFields{
				"amount":           "500",
				"account":          "XX1234",
				"date":             "05-06-24",
				"transaction_type": "debit",
				"merchant":         "STORE",
			},
		})

		require.True(t, txn.HasAmount())
		assert.Equal(t, "500.00", txn.Amount.Decimal.StringFixed(2))
		assert.Equal(t, model.TypeDebit, txn.Type)
		assert.Equal(t, "XX1234", model.Deref(txn.MaskedAccount))
		assert.Equal(t, "STORE", model.Deref(txn.Counterparty))
		assert.True(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC).Equal(txn.OccurredAt))
		assert.Equal(t, model.DateFromField, txn.DateSource)
		assert.Equal(t, "City Bank", txn.BankName)
		assert.Equal(t, "transaction", txn.SMSType)
		assert.NotEmpty(t, txn.ID)
		assert.False(t, txn.Heuristic)
	})

	t.Run("body fallbacks", func(t *testing.T) {
		msg := model.Message{Sender: "AD-OTHERB", Body: "You have received Rs 2,500.00 in a/c **5678 on 03/02/2024", Timestamp: ts}
		txn := d.Transaction(msg, &model.ClassificationResult{SMSType: "alert"})

		assert.Equal(t, "2500.00", txn.Amount.Decimal.StringFixed(2))
		assert.Equal(t, model.TypeCredit, txn.Type)
		assert.Equal(t, "**5678", model.Deref(txn.MaskedAccount))
		assert.Nil(t, txn.Counterparty)
		assert.True(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC).Equal(txn.OccurredAt))
		assert.Equal(t, model.DateFromBody, txn.DateSource)
		assert.Equal(t, "OTHERB", txn.BankName)
	})

	t.Run("timestamp fallback", func(t *testing.T) {
		msg := model.Message{Sender: "CITYBK", Body: "Rs 10 paid", Timestamp: ts}
		txn := d.Transaction(msg, &model.ClassificationResult{SMSType: "credit"})
		assert.Equal(t, model.TypeCredit, txn.Type, "sms_type wins over keyword inference")
		assert.True(t, ts.Equal(txn.OccurredAt))
		assert.Equal(t, model.DateFromTimestamp, txn.DateSource)
		assert.Nil(t, txn.MaskedAccount)
	})

	t.Run("unparseable rule amount does not fall back to body", func(t *testing.T) {
		msg := model.Message{Sender: "CITYBK", Body: "Rs.abc debited, bal Rs 900"}
		txn := d.Transaction(msg, &model.ClassificationResult{
			SMSType:   "debit",
			Extracted: model.ExtractedFields{"amount": "abc"},
		})
		assert.False(t, txn.HasAmount())
		assert.False(t, txn.Amount.Decimal.IsZero() && txn.Amount.Valid)
	})

	t.Run("unusable sender falls back to raw address", func(t *testing.T) {
		txn := d.Transaction(model.Message{Sender: "--", Body: "Rs 1 debited"}, &model.ClassificationResult{})
		assert.Equal(t, "--", txn.BankName)
		assert.True(t, txn.OccurredAt.IsZero())
	})

	t.Run("fields are copied", func(t *testing.T) {
		fields := model.ExtractedFields{"amount": "5"}
		txn := d.Transaction(model.Message{Sender: "CITYBK"}, &model.ClassificationResult{Extracted: fields})
		fields["amount"] = "6"
		assert.Equal(t, "5", txn.Fields["amount"])
	})
}

func TestDeriver_Heuristic(t *testing.T) {
	d := NewDeriver(bank.NewDirectory(map[string]string{"CITYBK": "City Bank"}), time.UTC)

	txn, ok := d.Heuristic(model.Message{Sender: "VM-CITYBK", Body: "Rs.500 debited from a/c XX1234"})
	require.True(t, ok)
	assert.True(t, txn.Heuristic)
	assert.Equal(t, model.TypeDebit, txn.Type)
	assert.Equal(t, "City Bank", txn.BankName)

	_, ok = d.Heuristic(model.Message{Sender: "VM-UNKNWN", Body: "Rs.500 debited from a/c XX1234"})
	assert.False(t, ok, "unknown senders are never guessed")

	_, ok = d.Heuristic(model.Message{Sender: "VM-CITYBK", Body: "Your statement is ready"})
	assert.False(t, ok)

	_, ok = d.Heuristic(model.Message{Sender: "---", Body: "Rs.500 debited from a/c XX1234"})
	assert.False(t, ok)
}
