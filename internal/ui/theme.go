package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Every screen draws from these roles only.
type Theme struct {
	Name string

	Background  string
	Surface     string // header bar
	Selection   string // selected table row
	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Info    string
	Success string
	Warning string
	Danger  string
}

// themes is also the cycling order.
var themes = []Theme{
	{
		Name:       "Nightfox",
		Background: "#131a24", Surface: "#192330", Selection: "#2b3b51",
		Border: "#212e3f", BorderFocus: "#719cd6",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b",
		Accent: "#719cd6", Info: "#63cdcf",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d",
	},
	{
		Name:       "Kanagawa",
		Background: "#16161D", Surface: "#1F1F28", Selection: "#2D4F67",
		Border: "#2A2A37", BorderFocus: "#7E9CD8",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169",
		Accent: "#7E9CD8", Info: "#7FB4CA",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876",
	},
	{
		Name:       "Slate",
		Background: "#020617", Surface: "#0f172a", Selection: "#0284c7",
		Border: "#1e293b", BorderFocus: "#38bdf8",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b",
		Accent: "#38bdf8", Info: "#06b6d4",
		Success: "#22c55e", Warning: "#f59e0b", Danger: "#ef4444",
	},
}

// GetTheme returns a theme by name, falling back to the first.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// NextTheme returns the theme after current, wrapping around.
func NextTheme(current string) string {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)].Name
		}
	}
	return themes[0].Name
}

// ThemeNames returns the available theme names in cycling order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// StatusColor maps an order status or stock change type to a palette role.
// Unknown values are muted.
func (t Theme) StatusColor(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "adjustment_minus":
		return t.Warning
	case "completed", "stock_in":
		return t.Success
	case "shipped", "sale":
		return t.Accent
	case "delivered", "adjustment_plus":
		return t.Info
	case "cancelled":
		return t.Danger
	case "initial_stock":
		return t.Faint
	}
	return t.Muted
}

// Styles holds the lipgloss styles built from a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	theme Theme
}

func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Header:   fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:     fg(t.Warning).Bold(true),
		Selected: fg(t.Text).Background(lipgloss.Color(t.Selection)),

		theme: t,
	}
}

// StatusStyle returns the badge style for an order status or stock change.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(s.theme.StatusColor(status))).
		Padding(0, 1)
}

// WithBackground paints every text style onto bgColor, for text drawn on a
// coloured bar.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText,
		&out.Header, &out.Logo, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}
