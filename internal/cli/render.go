package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
)

const (
	counterpartyWidth = 28
	dateLayout        = "2006-01-02"
)

// FormatAmount renders an amount with two decimals, or "?" when the amount
// could not be determined.
func FormatAmount(txn model.Transaction) string {
	if !txn.Amount.Valid {
		return "?"
	}
	return txn.Amount.Decimal.StringFixed(2)
}

// FormatDate renders the transaction date, or "-" when none was found.
func FormatDate(txn model.Transaction) string {
	if txn.OccurredAt.IsZero() {
		return "-"
	}
	return txn.OccurredAt.Format(dateLayout)
}

// TransactionRow returns the display columns for txn: date, bank, type,
// amount, account and counterparty.
func TransactionRow(txn model.Transaction) []string {
	kind := string(txn.Type)
	if txn.Heuristic {
		kind += "*"
	}
	return []string{
		FormatDate(txn),
		txn.BankName,
		kind,
		FormatAmount(txn),
		model.Deref(txn.MaskedAccount),
		Truncate(model.Deref(txn.Counterparty), counterpartyWidth),
	}
}

// TransactionHeaders are the column titles matching TransactionRow.
var TransactionHeaders = []string{"Date", "Bank", "Type", "Amount", "Account", "Counterparty"}

// RenderTransactions draws txns as a bordered table. Credits and debits are
// colored in the amount column.
func RenderTransactions(txns []model.Transaction) string {
	rows := make([][]string, len(txns))
	for i, txn := range txns {
		rows[i] = TransactionRow(txn)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(TransactionHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			style := TableCellStyle
			if col == 3 && row >= 0 && row < len(txns) {
				switch txns[row].Type {
				case model.TypeCredit:
					style = style.Foreground(CreditColor)
				case model.TypeDebit:
					style = style.Foreground(DebitColor)
				}
			}
			return style
		}).
		Render()
}

// RenderTotals draws a totals box.
func RenderTotals(totals reconcile.Totals, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transactions: %d (%d credit, %d debit)\n", totals.Count, totals.Credits, totals.Debits)
	fmt.Fprintf(&b, "Credited:     %s %s\n", CreditStyle.Render(totals.Credit.StringFixed(2)), currency)
	fmt.Fprintf(&b, "Debited:      %s %s\n", DebitStyle.Render(totals.Debit.StringFixed(2)), currency)
	fmt.Fprintf(&b, "Net:          %s %s", totals.Net().StringFixed(2), currency)
	if totals.Invalid > 0 {
		fmt.Fprintf(&b, "\n%s", FormatWarning(fmt.Sprintf("%d without a readable amount", totals.Invalid)))
	}
	return RenderBox(ChartIcon+" Totals", b.String())
}

// RenderSummary describes a batch run.
func RenderSummary(s reconcile.Summary) string {
	content := fmt.Sprintf("  • Messages: %d\n", s.Total) +
		fmt.Sprintf("  • Matched by rules: %d\n", s.Emitted) +
		fmt.Sprintf("  • Accepted by heuristics: %d\n", s.Heuristic) +
		fmt.Sprintf("  • Rejected (blacklisted): %d\n", s.Rejected) +
		fmt.Sprintf("  • Unmatched: %d\n", s.Unmatched) +
		fmt.Sprintf("  • Time taken: %s", s.ProcessingTime.Round(time.Millisecond))
	return RenderBox("Reconciliation Complete", content)
}

// Truncate shortens s to limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}
