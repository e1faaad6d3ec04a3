package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Screens", "Navigation", "Filters", "Records", "New order", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 34)))
	b.WriteString("\n\n")

	groups := m.keys.FullHelp()
	for i, group := range groups {
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
		for _, binding := range group {
			b.WriteString(m.renderHelpItem(binding))
		}
		if i < len(groups)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(46)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func (m Model) renderHelpItem(binding key.Binding) string {
	h := binding.Help()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	return keyStyle.Render(h.Key) + m.theme.Styles().Text.Render(h.Desc) + "\n"
}

// renderHints renders the one-line key hints for the current screen.
func (m Model) renderHints() string {
	var bindings []key.Binding
	switch m.screen {
	case screenLogin:
		bindings = []key.Binding{m.keys.Tab, m.keys.Confirm}
	case screenNewOrder:
		bindings = []key.Binding{m.keys.Tab, m.keys.AddToCart, m.keys.Increase, m.keys.Decrease, m.keys.EditQuantity, m.keys.RemoveLine, m.keys.CyclePayment, m.keys.Submit, m.keys.Escape}
	case screenProducts:
		bindings = []key.Binding{m.keys.Filter, m.keys.CycleFilter, m.keys.ToggleActive, m.keys.AddToCart, m.keys.StockLog, m.keys.StockIn, m.keys.Delete, m.keys.NextPage, m.keys.PrevPage}
	case screenOrders:
		bindings = []key.Binding{m.keys.OpenOrder, m.keys.CycleFilter, m.keys.SetStatus, m.keys.Delete, m.keys.ClearFilters, m.keys.NextPage, m.keys.PrevPage}
	case screenOrderDetail:
		bindings = []key.Binding{m.keys.Refresh, m.keys.Escape}
	case screenDashboard:
		bindings = []key.Binding{m.keys.Refresh, m.keys.CycleGrouping, m.keys.Escape}
	case screenCategories:
		bindings = []key.Binding{m.keys.Create, m.keys.Delete, m.keys.Refresh, m.keys.NextPage, m.keys.PrevPage}
	case screenUsers:
		bindings = []key.Binding{m.keys.Delete, m.keys.Refresh, m.keys.NextPage, m.keys.PrevPage}
	case screenStockLog:
		bindings = []key.Binding{m.keys.Refresh, m.keys.NextPage, m.keys.PrevPage, m.keys.Escape}
	case screenActivity:
		bindings = []key.Binding{m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom, m.keys.Refresh}
	}
	bindings = append(bindings, m.keys.ShortHelp()...)

	styles := m.theme.Styles()
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, styles.WarningText.Render(h.Key)+" "+styles.MutedText.Render(h.Desc))
	}
	return strings.Join(parts, styles.FaintText.Render(" · "))
}
