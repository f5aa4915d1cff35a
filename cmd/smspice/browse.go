package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/config"
	"github.com/Veraticus/the-sms-must-flow/internal/storage"
	"github.com/Veraticus/the-sms-must-flow/internal/tui"
	"github.com/Veraticus/the-sms-must-flow/internal/tui/themes"
)

func browseCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse transactions interactively",
		Long: `Open a full-screen table of the inbox's transactions. Press b to cycle
through banks, ? for help and q to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd, ff)
		},
	}

	ff.register(cmd)
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")

	return cmd
}

func runBrowse(cmd *cobra.Command, ff filterFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	filter, err := ff.filter(cfg.Location)
	if err != nil {
		return err
	}
	theme, _ := cmd.Flags().GetString("theme")

	batch, err := classifyInbox(cmd.Context(), cfg, storage.MessageFilter{}, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	if batch.Summary.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No messages to classify. Run 'smspice import' to fill the inbox."))
		return nil
	}

	return tui.Run(cmd.Context(), batch.Transactions, tui.Config{
		Theme:    themes.GetTheme(theme),
		Filter:   filter,
		Currency: cfg.Currency,
	})
}
