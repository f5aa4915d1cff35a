package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
	"github.com/Veraticus/the-sms-must-flow/internal/storage"
)

func syncCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Classify the inbox and show the resulting transactions",
		Long: `Run every stored message through the ruleset and print the transactions
found, followed by credit and debit totals.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, ff)
		},
	}

	ff.register(cmd)
	cmd.Flags().Bool("no-heuristics", false, "Only report messages matched by a rule")
	cmd.Flags().Bool("quiet", false, "Print totals only")
	cmd.Flags().String("sender", "", "only messages from this sender code, e.g. HDFCBK")

	return cmd
}

func runSync(cmd *cobra.Command, ff filterFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if noHeuristics, _ := cmd.Flags().GetBool("no-heuristics"); noHeuristics {
		cfg.Heuristics = false
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	sender, _ := cmd.Flags().GetString("sender")

	filter, err := ff.filter(cfg.Location)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Sync")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	batch, err := classifyInbox(ctx, cfg, storage.MessageFilter{Sender: sender}, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batch.Summary.Total == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No messages to classify. Run 'smspice import' to fill the inbox."))
		return nil
	}

	txns := filter.Apply(batch.Transactions)

	fmt.Fprintln(out, cli.RenderSummary(batch.Summary))
	if !quiet {
		if len(txns) == 0 {
			fmt.Fprintln(out, cli.FormatWarning("No transactions match the filter"))
		} else {
			fmt.Fprintln(out, cli.RenderTransactions(txns))
		}
	}
	fmt.Fprintln(out, cli.RenderTotals(reconcile.Summarize(txns), cfg.Currency))

	if banks := reconcile.Banks(batch.Transactions); len(banks) > 0 {
		fmt.Fprintf(out, "Banks: %s\n", strings.Join(banks, ", "))
	}
	return nil
}
