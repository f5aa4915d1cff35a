package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
	"github.com/Veraticus/the-sms-must-flow/internal/tui/themes"
)

// Config holds the browser settings.
type Config struct {
	Theme    themes.Theme
	Filter   reconcile.Filter
	Currency string
	Width    int
	Height   int
}

func (c Config) withDefaults() Config {
	if c.Theme.Primary == "" {
		c.Theme = themes.Default
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.Width <= 0 {
		c.Width = 100
	}
	if c.Height <= 0 {
		c.Height = 30
	}
	return c
}

// Run starts the browser on the alternate screen and blocks until the user
// quits or ctx is canceled.
func Run(ctx context.Context, txns []model.Transaction, cfg Config) error {
	p := tea.NewProgram(New(txns, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}
