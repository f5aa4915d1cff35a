// Package export writes derived transactions in spreadsheet-friendly form.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Header is the column layout written by WriteCSV.
var Header = []string{
	"date",
	"bank",
	"type",
	"amount",
	"account",
	"counterparty",
	"sender",
	"sms_type",
	"date_source",
	"heuristic",
	"body",
}

// WriteCSV writes txns with a header row. Invalid amounts are written as an
// empty cell, never as zero.
func WriteCSV(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, txn := range txns {
		if err := cw.Write(record(txn)); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", txn.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func record(txn model.Transaction) []string {
	date := ""
	if !txn.OccurredAt.IsZero() {
		date = txn.OccurredAt.Format(time.DateOnly)
	}
	amount := ""
	if txn.Amount.Valid {
		amount = txn.Amount.Decimal.StringFixed(2)
	}
	heuristic := "false"
	if txn.Heuristic {
		heuristic = "true"
	}

	return []string{
		date,
		txn.BankName,
		string(txn.Type),
		amount,
		model.Deref(txn.MaskedAccount),
		model.Deref(txn.Counterparty),
		txn.Sender,
		txn.SMSType,
		string(txn.DateSource),
		heuristic,
		txn.RawBody,
	}
}
