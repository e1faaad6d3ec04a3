package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/checkout"
)

var tabs = []screen{screenProducts, screenOrders, screenCategories, screenUsers, screenActivity, screenDashboard, screenNewOrder}

// renderHeader renders the top bar: logo, screen tabs, user and cart summary.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)

	parts := []string{bg.Render("tally", styles.Logo)}

	for i, s := range tabs {
		label := s.String()
		if compact {
			label = fmt.Sprintf("%d", i+1)
			if s == screenNewOrder {
				label = "n"
			}
		}
		active := s == m.screen ||
			(s == screenProducts && m.screen == screenStockLog) ||
			(s == screenOrders && m.screen == screenOrderDetail)
		if active {
			parts = append(parts, bg.Render(label, styles.AccentText.Bold(true).Underline(true)))
		} else {
			parts = append(parts, bg.Render(label, styles.MutedText))
		}
	}

	if m.ws != nil {
		if u := m.ws.User; u != nil {
			parts = append(parts, bg.Render(u.Username, styles.Text)+bg.Space()+bg.Render("("+u.Role+")", styles.FaintText))
		}
		if n := m.ws.Cart.Len(); n > 0 {
			parts = append(parts,
				bg.Render("Cart:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", n), styles.Text)+bg.Space()+
					bg.Render(formatMoney(m.ws.Cart.Total()), styles.SuccessText))
		}
		if m.ws.Checkout.State() == checkout.Submitting {
			parts = append(parts, bg.Render("Submitting...", styles.WarningText.Bold(true)))
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// renderFooter renders the flash message line and the key hints line.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	line := ""
	if m.flash.text != "" && m.now().Sub(m.flash.at) < FlashDuration {
		switch m.flash.kind {
		case flashError:
			line = styles.DangerText.Render(m.flash.text)
		case flashWarn:
			line = styles.WarningText.Render(m.flash.text)
		default:
			line = styles.SuccessText.Render(m.flash.text)
		}
	}
	hints := lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(m.renderHints())
	return strings.TrimRight(line, "\n") + "\n" + hints
}
