package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/common"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/smsbackup"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import SMS backup files into the inbox",
		Long: `Import messages from SMS Backup & Restore XML exports or JSON arrays of
{address, body, date} records. Messages already in the inbox are skipped.

Examples:
  # Import a single backup
  smspice import ~/Downloads/sms-20240601.xml

  # Import every backup in a directory
  smspice import ~/Downloads/sms-*.xml

  # Show previous imports
  smspice import --list`,
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Read and count messages without saving")
	cmd.Flags().BoolP("list", "l", false, "List previous imports instead of importing")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	list, _ := cmd.Flags().GetBool("list")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if list {
		return listImports(cmd, cfg)
	}
	if len(args) == 0 {
		return common.NewUserError("no backup files given", nil)
	}

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx, stop := interrupts.HandleInterrupts(cmd.Context())
	defer stop()

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(files), "Reading backups...")
	tick := cli.Tick(bar)

	var all []model.RawMessage
	perFile := make(map[string]int, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		msgs, err := smsbackup.ReadFile(path)
		tick()
		if err != nil {
			common.LogError(err, "Failed to read backup", common.Fields{"file": path})
			continue
		}
		perFile[filepath.Base(path)] = len(msgs)
		all = append(all, msgs...)
	}

	unique := smsbackup.Dedupe(all)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, cli.FormatTitle("Backup summary"))
	for _, path := range files {
		if n, ok := perFile[filepath.Base(path)]; ok {
			fmt.Fprintf(out, "  - %s: %d messages\n", filepath.Base(path), n)
		}
	}

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d unique messages read, nothing saved", len(unique))))
		return nil
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	source := files[0]
	if len(files) > 1 {
		source = fmt.Sprintf("%s (+%d more)", files[0], len(files)-1)
	}

	result, err := store.SaveMessages(ctx, source, unique)
	if err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}

	slog.Info("Import complete",
		"import_id", result.ID,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates(),
		"skipped", result.Skipped)

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new messages (%d already in the inbox)",
		result.Inserted, result.Duplicates())))
	if result.Skipped > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %d message(s) without a sender or body", result.Skipped)))
	}

	count, err := store.CountMessages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Inbox now holds %d messages", count)))
	return nil
}

func listImports(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListImports(ctx)
	if err != nil {
		return err
	}
	count, err := store.CountMessages(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No imports yet"))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d imports, %d messages in the inbox", len(runs), count)))
	for _, run := range runs {
		line := fmt.Sprintf("  #%d %s  %s: %d read, %d new",
			run.ID, run.ImportedAt.Format("2006-01-02 15:04"), run.Source, run.Total, run.Inserted)
		if run.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", run.Skipped)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
