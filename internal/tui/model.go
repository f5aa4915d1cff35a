// Package tui implements the interactive transaction browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-sms-must-flow/internal/cli"
	"github.com/Veraticus/the-sms-must-flow/internal/model"
	"github.com/Veraticus/the-sms-must-flow/internal/reconcile"
	"github.com/Veraticus/the-sms-must-flow/internal/tui/themes"
)

// chromeHeight is the number of lines used around the table: title, footer
// box and help.
const chromeHeight = 9

// Model holds the browser state. Transactions are fixed at construction; only
// the bank selection changes while browsing.
type Model struct {
	theme    themes.Theme
	help     help.Model
	keymap   KeyMap
	table    table.Model
	base     reconcile.Filter
	currency string
	all      []model.Transaction
	visible  []model.Transaction
	banks    []string
	totals   reconcile.Totals
	bank     int // 0 is "all banks", i>0 is banks[i-1]
	width    int
	height   int
	quitting bool
}

// New creates the browser for txns. filter restricts the date range and, when
// its Bank is set, the initial bank selection.
func New(txns []model.Transaction, cfg Config) Model {
	cfg = cfg.withDefaults()

	base := cfg.Filter
	initialBank := base.Bank
	base.Bank = ""
	inRange := base.Apply(txns)

	t := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(max(cfg.Height-chromeHeight, 3)),
	)
	s := table.DefaultStyles()
	s.Header = cfg.Theme.Header
	s.Selected = cfg.Theme.Selected
	t.SetStyles(s)

	m := Model{
		theme:    cfg.Theme,
		help:     help.New(),
		keymap:   DefaultKeyMap(),
		table:    t,
		base:     base,
		currency: cfg.Currency,
		all:      inRange,
		banks:    reconcile.Banks(inRange),
		width:    cfg.Width,
		height:   cfg.Height,
	}
	for i, b := range m.banks {
		if b == initialBank {
			m.bank = i + 1
		}
	}
	m.refresh()
	return m
}

func columns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Bank", Width: 16},
		{Title: "Type", Width: 7},
		{Title: "Amount", Width: 12},
		{Title: "Account", Width: 10},
		{Title: "Counterparty", Width: 24},
	}
	used := 0
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 2
	}
	if rest := width - used - 4; rest > cols[len(cols)-1].Width {
		cols[len(cols)-1].Width = rest
	}
	return cols
}

// SelectedBank returns the bank being shown, or "" for all banks.
func (m Model) SelectedBank() string {
	if m.bank == 0 {
		return ""
	}
	return m.banks[m.bank-1]
}

// Visible returns the transactions currently listed.
func (m Model) Visible() []model.Transaction {
	return m.visible
}

// Totals returns the totals over the visible transactions.
func (m Model) Totals() reconcile.Totals {
	return m.totals
}

func (m *Model) refresh() {
	f := m.base
	f.Bank = m.SelectedBank()
	m.visible = f.Apply(m.all)
	m.totals = reconcile.Summarize(m.visible)

	rows := make([]table.Row, len(m.visible))
	for i, txn := range m.visible {
		rows[i] = cli.TransactionRow(txn)
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) cycleBank(step int) {
	n := len(m.banks) + 1
	m.bank = ((m.bank+step)%n + n) % n
	m.refresh()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.NextBank):
			m.cycleBank(1)
			return m, nil
		case key.Matches(msg, m.keymap.PrevBank):
			m.cycleBank(-1)
			return m, nil
		case key.Matches(msg, m.keymap.AllBanks):
			m.bank = 0
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	bank := m.SelectedBank()
	if bank == "" {
		bank = "All banks"
	}
	title := m.theme.Title.Render(cli.InboxIcon+" Transactions") + "  " +
		m.theme.Subtitle.Render(fmt.Sprintf("%s (%d of %d)", bank, len(m.visible), len(m.all)))

	var body string
	if len(m.visible) == 0 {
		body = m.theme.Muted.Render("No transactions to show.")
	} else {
		body = m.table.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		body,
		m.footer(),
		m.help.View(m.keymap),
	)
}

func (m Model) footer() string {
	t := m.totals
	parts := []string{
		fmt.Sprintf("In %s", m.theme.Credit.Render(t.Credit.StringFixed(2))),
		fmt.Sprintf("Out %s", m.theme.Debit.Render(t.Debit.StringFixed(2))),
		fmt.Sprintf("Net %s %s", t.Net().StringFixed(2), m.currency),
	}
	if t.Invalid > 0 {
		parts = append(parts, m.theme.Muted.Render(fmt.Sprintf("%d without amount", t.Invalid)))
	}
	return m.theme.Footer.Render(strings.Join(parts, "  │  "))
}
