package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal asks a yes/no question before a destructive action.
type confirmModal struct {
	title     string
	body      string
	onConfirm tea.Cmd
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.ConfirmChoice):
		return c, c.onConfirm, true
	case key.Matches(km, keys.CancelChoice):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Render(c.body) + "\n\n" +
		styles.WarningText.Render("y") + styles.MutedText.Render(" confirm  ") +
		styles.WarningText.Render("n") + styles.MutedText.Render(" cancel")
	return frame(theme, width, height, c.title, body)
}

// promptModal collects one line of text.
type promptModal struct {
	title    string
	input    textinput.Model
	onSubmit func(string) tea.Cmd
}

func newPromptModal(title, placeholder, value string, onSubmit func(string) tea.Cmd) promptModal {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 120
	in.Width = 32
	in.SetValue(value)
	in.Focus()
	return promptModal{title: title, input: in, onSubmit: onSubmit}
}

func (p promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Confirm):
			return p, p.onSubmit(p.input.Value()), true
		case key.Matches(km, keys.Escape):
			return p, nil, true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := p.input.View() + "\n\n" +
		styles.WarningText.Render("enter") + styles.MutedText.Render(" save  ") +
		styles.WarningText.Render("esc") + styles.MutedText.Render(" cancel")
	return frame(theme, width, height, p.title, body)
}

// choiceModal picks one value from a fixed list.
type choiceModal struct {
	title    string
	choices  []string
	selected int
	onChoose func(string) tea.Cmd
}

func newChoiceModal(title string, choices []string, current string, onChoose func(string) tea.Cmd) choiceModal {
	c := choiceModal{title: title, choices: choices, onChoose: onChoose}
	for i, choice := range choices {
		if strings.EqualFold(choice, current) {
			c.selected = i
		}
	}
	return c
}

func (c choiceModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Up):
		if c.selected > 0 {
			c.selected--
		}
	case key.Matches(km, keys.Down):
		if c.selected < len(c.choices)-1 {
			c.selected++
		}
	case key.Matches(km, keys.Confirm):
		if len(c.choices) == 0 {
			return c, nil, true
		}
		return c, c.onChoose(c.choices[c.selected]), true
	case key.Matches(km, keys.Escape):
		return c, nil, true
	}
	return c, nil, false
}

func (c choiceModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	for i, choice := range c.choices {
		line := padRight(titleCase(choice), 24)
		if i == c.selected {
			b.WriteString(styles.Selected.Render("› " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return frame(theme, width, height, c.title, strings.TrimRight(b.String(), "\n"))
}

func frame(theme Theme, width, height int, title, body string) string {
	styles := theme.Styles()
	content := styles.AccentText.Bold(true).Render(title) + "\n\n" + body
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(ModalWidth).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
