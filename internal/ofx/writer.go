// Package ofx writes derived transactions as OFX bank statements.
package ofx

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Element length limits from the OFX specification.
const (
	maxNameLength = 32
	maxMemoLength = 255
)

// unknownAccount is used when a transaction carries no masked account.
const unknownAccount = "UNKNOWN"

// Writer renders transactions as an OFX 2.0.3 response with one bank
// statement per (bank, account) pair.
type Writer struct {
	now      func() time.Time
	newUID   func() string
	currency string
}

// NewWriter creates a writer for statements in the given ISO 4217 currency.
func NewWriter(currency string) *Writer {
	return &Writer{
		currency: currency,
		now:      time.Now,
		newUID:   uuid.NewString,
	}
}

type statementKey struct {
	bank    string
	account string
}

// Write encodes txns to w. Transactions without a valid amount cannot be
// represented and are skipped; the number skipped is returned.
func (wr *Writer) Write(w io.Writer, txns []model.Transaction) (int, error) {
	curDef, err := ofxgo.NewCurrSymbol(wr.currency)
	if err != nil {
		return 0, fmt.Errorf("invalid currency %q: %w", wr.currency, err)
	}

	now := wr.now()
	var (
		order   []statementKey
		grouped = make(map[statementKey][]model.Transaction)
		skipped int
	)
	for _, txn := range txns {
		if !txn.HasAmount() {
			skipped++
			slog.Warn("Skipping transaction without a valid amount",
				"id", txn.ID,
				"sender", txn.Sender)
			continue
		}
		key := statementKey{bank: txn.BankName, account: model.Deref(txn.MaskedAccount)}
		if key.account == "" {
			key.account = unknownAccount
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], txn)
	}

	resp := ofxgo.Response{
		Version: ofxgo.OfxVersion203,
		Signon: ofxgo.SignonResponse{
			Status: ofxgo.Status{
				Code:     0,
				Severity: "INFO",
			},
			DtServer: ofxgo.Date{Time: now},
			Language: "ENG",
		},
	}

	for _, key := range order {
		stmt := wr.statement(key, grouped[key], *curDef, now)
		resp.Bank = append(resp.Bank, stmt)
	}

	buf, err := resp.Marshal()
	if err != nil {
		return skipped, fmt.Errorf("failed to marshal OFX: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return skipped, fmt.Errorf("failed to write OFX: %w", err)
	}
	return skipped, nil
}

func (wr *Writer) statement(key statementKey, txns []model.Transaction, curDef ofxgo.CurrSymbol, now time.Time) *ofxgo.StatementResponse {
	bankID := key.bank
	if bankID == "" {
		bankID = unknownAccount
	}

	list := &ofxgo.TransactionList{}
	for i, txn := range txns {
		posted := txn.OccurredAt
		if posted.IsZero() {
			posted = now
		}
		if i == 0 || posted.Before(list.DtStart.Time) {
			list.DtStart = ofxgo.Date{Time: posted}
		}
		if i == 0 || posted.After(list.DtEnd.Time) {
			list.DtEnd = ofxgo.Date{Time: posted}
		}

		list.Transactions = append(list.Transactions, convertTransaction(txn, posted))
	}

	stmt := &ofxgo.StatementResponse{
		TrnUID: ofxgo.UID(wr.newUID()),
		Status: ofxgo.Status{
			Code:     0,
			Severity: "INFO",
		},
		CurDef: curDef,
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   ofxgo.String(bankID),
			AcctID:   ofxgo.String(key.account),
			AcctType: ofxgo.AcctTypeChecking,
		},
		BankTranList: list,
		DtAsOf:       ofxgo.Date{Time: now},
	}
	return stmt
}

// convertTransaction converts a transaction to its OFX form. Debits are
// negative.
func convertTransaction(txn model.Transaction, posted time.Time) ofxgo.Transaction {
	var amount ofxgo.Amount
	amount.Rat.Set(txn.Amount.Decimal.Rat())

	trnType := ofxgo.TrnTypeCredit
	if txn.Type == model.TypeDebit {
		trnType = ofxgo.TrnTypeDebit
		amount.Rat.Neg(&amount.Rat)
	}

	name := model.Deref(txn.Counterparty)
	if name == "" {
		name = txn.BankName
	}

	return ofxgo.Transaction{
		TrnType:  trnType,
		DtPosted: ofxgo.Date{Time: posted},
		TrnAmt:   amount,
		FiTID:    ofxgo.String(txn.ID),
		Name:     ofxgo.String(truncate(name, maxNameLength)),
		Memo:     ofxgo.String(truncate(txn.RawBody, maxMemoLength)),
	}
}

func truncate(s string, limit int) string {
	if runes := []rune(s); len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
