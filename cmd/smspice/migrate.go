package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run inbox database migrations",
		Long: `Initialize or update the inbox database schema to the latest version.

Every command that uses the inbox migrates it automatically; this command is
useful to check the schema or prepare a database ahead of time.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		content := fmt.Sprintf("  • Database: %s\n", cfg.DatabasePath) +
			fmt.Sprintf("  • Current version: %d\n", current) +
			fmt.Sprintf("  • Latest version: %d", storage.ExpectedSchemaVersion)
		fmt.Fprintln(out, cli.RenderBox("Migration Status", content))
		return nil
	}

	slog.Info("Running database migrations",
		"database", cfg.DatabasePath,
		"from_version", current)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if current == storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatSuccess("Database already up to date"))
	} else {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated database from version %d to %d", current, storage.ExpectedSchemaVersion)))
	}
	return nil
}
