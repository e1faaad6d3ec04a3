package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/query"
)

// loginForm is the sign-in screen.
type loginForm struct {
	inputs [2]textinput.Model // username, password
	focus  int
	busy   bool
	err    string
}

func newLoginForm() loginForm {
	username := textinput.New()
	username.Prompt = "Username  "
	username.CharLimit = 64
	username.Width = 28
	username.Focus()

	password := textinput.New()
	password.Prompt = "Password  "
	password.CharLimit = 128
	password.Width = 28
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginForm{inputs: [2]textinput.Model{username, password}}
}

func (l *loginForm) focusOn(i int) {
	l.focus = i
	for j := range l.inputs {
		if j == i {
			l.inputs[j].Focus()
		} else {
			l.inputs[j].Blur()
		}
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab), msg.Type == tea.KeyDown:
		m.login.focusOn((m.login.focus + 1) % len(m.login.inputs))
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab), msg.Type == tea.KeyUp:
		m.login.focusOn((m.login.focus + len(m.login.inputs) - 1) % len(m.login.inputs))
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		if m.login.focus == 0 {
			m.login.focusOn(1)
			return m, nil
		}
		return m.submitLogin()
	}

	i := m.login.focus
	var cmd tea.Cmd
	m.login.inputs[i], cmd = m.login.inputs[i].Update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.busy || m.session == nil || m.api == nil {
		return m, nil
	}
	username := strings.TrimSpace(m.login.inputs[0].Value())
	password := m.login.inputs[1].Value()
	if username == "" || password == "" {
		m.login.err = "Username and password are required"
		return m, nil
	}
	m.login.busy = true
	m.login.err = ""

	s, api, ctx := m.session, m.api, m.ctx
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		user, err := s.Login(ctx, api, username, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		m.login.err = query.Message(msg.err)
		m.login.inputs[1].SetValue("")
		m.login.focusOn(1)
		return m, nil
	}
	if m.open == nil {
		m.login.err = "No workspace configured"
		return m, nil
	}
	m.ws = m.open(msg.user)
	m.login = newLoginForm()
	m.screen = screenProducts
	m.setFlash(flashInfo, "Signed in as "+msg.user.Username)
	return m, m.mountProducts()
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("tally"))
	b.WriteString(styles.MutedText.Render("  sign in"))
	b.WriteString("\n\n")
	for _, in := range m.login.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.login.busy:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(m.login.err))
	default:
		b.WriteString(styles.FaintText.Render("enter to continue · esc to quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
