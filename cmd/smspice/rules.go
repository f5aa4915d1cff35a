package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/classification"
	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and try out classification rules",
	}
	cmd.AddCommand(rulesValidateCmd())
	cmd.AddCommand(rulesTestCmd())
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a ruleset file for errors",
		Long: `Load a ruleset and report structural errors and patterns that do not
compile. Without a file the configured ruleset (or the built-in one) is
checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRulesValidate,
	}
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.RulesPath = config.ExpandPath(args[0])
	}

	rs, err := loadRuleset(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reportRuleset(out, cfg.RulesPath, rs)
	if diags := rs.Diagnostics(); len(diags) > 0 {
		return common.NewUserError(fmt.Sprintf("%d pattern(s) will be skipped", len(diags)), nil)
	}
	return nil
}

func reportRuleset(w io.Writer, path string, rs *ruleset.Ruleset) {
	if path == "" {
		path = "built-in rules"
	}
	total, usable := rs.PatternCount()

	var senders []string
	for _, r := range rs.Rules() {
		senders = append(senders, r.Senders...)
	}
	sort.Strings(senders)

	content := fmt.Sprintf("  • Rules: %d\n", rs.Len()) +
		fmt.Sprintf("  • Patterns: %d (%d usable)\n", total, usable) +
		fmt.Sprintf("  • Senders: %s", strings.Join(senders, ", "))
	fmt.Fprintln(w, cli.RenderBox(path, content))

	for _, diag := range rs.Diagnostics() {
		fmt.Fprintln(w, cli.FormatWarning(diag.Error()))
	}
	for _, warn := range rs.Warnings() {
		fmt.Fprintln(w, cli.FormatWarning(warn.Error()))
	}
	if len(rs.Diagnostics()) == 0 {
		fmt.Fprintln(w, cli.FormatSuccess("All patterns compile"))
	}
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [body...]",
		Short: "Classify message bodies without touching the inbox",
		Long: `Run one or more message bodies through the ruleset as if they came from
--sender. Bodies are read one per line from standard input when none are
given.

Example:
  smspice rules test --sender VM-HDFCBK "Rs.500 debited from a/c XX1234 on 05-06-24"`,
		RunE: runRulesTest,
	}
	cmd.Flags().StringP("sender", "s", "", "sender address, e.g. VM-HDFCBK")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func runRulesTest(cmd *cobra.Command, args []string) error {
	sender, _ := cmd.Flags().GetString("sender")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	bodies := args
	if len(bodies) == 0 {
		bodies, err = cli.NewLineReader(cmd.InOrStdin()).ReadAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read message bodies: %w", err)
		}
	}
	if len(bodies) == 0 {
		return common.NewUserError("no message bodies given", nil)
	}

	p, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}

	if code, err := ruleset.ParseSender(sender); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(err.Error()))
	} else {
		candidates := classification.SelectCandidates(code, p.engine.Ruleset())
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Sender %s matches %d rule(s)", code, len(candidates))))
	}

	now := time.Now()
	for _, body := range bodies {
		msg := model.Message{Sender: sender, Body: body, Timestamp: now}
		describeDecision(cmd.Context(), cmd.OutOrStdout(), p, msg, cfg.Heuristics)
	}
	return nil
}

func describeMatch(w io.Writer, rs *ruleset.Ruleset, res *model.ClassificationResult, body string) {
	m, err := rs.Rules()[res.RuleIndex].Patterns[res.PatternIndex].Matcher()
	if err != nil {
		return
	}
	regex := m.Literal()
	if m.Flags().CaseInsensitive {
		regex += " (case-insensitive)"
	}
	fmt.Fprintf(w, "  %-18s %s\n", "regex", regex)
	if caps, ok := m.TryMatch(body); ok {
		fmt.Fprintf(w, "  %-18s %s\n", "matched text", caps.Whole())
	}
}

func describeDecision(ctx context.Context, w io.Writer, p *pipeline, msg model.Message, heuristics bool) {
	decision := p.engine.Classify(ctx, msg)
	fmt.Fprintf(w, "\n%s\n", cli.SubtleStyle.Render(cli.Truncate(msg.Body, 80)))

	switch decision.Outcome {
	case classification.Rejected:
		fmt.Fprintln(w, cli.FormatWarning("rejected by blacklist"))
	case classification.NoMatch:
		if heuristics {
			if txn, ok := p.deriver.Heuristic(msg); ok {
				fmt.Fprintln(w, cli.FormatInfo("no rule matched; accepted by heuristics"))
				fmt.Fprintln(w, cli.RenderTransactions([]model.Transaction{txn}))
				return
			}
		}
		fmt.Fprintln(w, cli.FormatError("no match"))
	case classification.Emitted:
		res := decision.Result
		fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("matched rule %d pattern %d as %s",
			res.RuleIndex, res.PatternIndex, res.SMSType)))
		describeMatch(w, p.engine.Ruleset(), res, msg.Body)
		names := make([]string, 0, len(res.Extracted))
		for name := range res.Extracted {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-18s %s\n", name, res.Extracted[name])
		}
		txn := p.deriver.Transaction(msg, res)
		fmt.Fprintln(w, cli.RenderTransactions([]model.Transaction{txn}))
	}
}
