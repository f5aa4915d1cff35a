package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/export"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/ofx"
	"github.com/Veraticus/the-sms-must-flow/internal/storage"
)

func exportCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV or OFX",
		Long: `Classify the inbox and write the resulting transactions to a file or
standard output.

Examples:
  # Spreadsheet-friendly CSV for March
  smspice export --format csv --from 2024-03-01 --to 2024-03-31 -o march.csv

  # OFX statement for a personal finance app
  smspice export --format ofx --bank "HDFC Bank" -o hdfc.ofx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, ff)
		},
	}

	ff.register(cmd)
	cmd.Flags().StringP("format", "f", "csv", "output format (csv, ofx)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, ff filterFlags) error {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "ofx" {
		return common.NewUserError(fmt.Sprintf("unknown export format %q (use csv or ofx)", format), nil)
	}
	output, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	filter, err := ff.filter(cfg.Location)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Export")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	batch, err := classifyInbox(ctx, cfg, storage.MessageFilter{}, cmd.ErrOrStderr(), output != "")
	if err != nil {
		return err
	}
	txns := filter.Apply(batch.Transactions)

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		path := config.ExpandPath(output)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				slog.Warn("Failed to close output file", "path", path, "error", cerr)
			}
		}()
		w = f
	}

	written, err := writeTransactions(w, format, cfg.Currency, txns)
	if err != nil {
		return err
	}

	if output != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", written, output)))
	}
	return nil
}

// writeTransactions encodes txns in format and returns how many were written.
func writeTransactions(w io.Writer, format, currency string, txns []model.Transaction) (int, error) {
	switch format {
	case "ofx":
		skipped, err := ofx.NewWriter(currency).Write(w, txns)
		if err != nil {
			return 0, fmt.Errorf("failed to write OFX: %w", err)
		}
		if skipped > 0 {
			slog.Warn("Transactions without an amount were left out of the OFX file", "count", skipped)
		}
		return len(txns) - skipped, nil
	default:
		if err := export.WriteCSV(w, txns); err != nil {
			return 0, fmt.Errorf("failed to write CSV: %w", err)
		}
		return len(txns), nil
	}
}
