package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/logtail"
)

// activityView shows the tail of the application log.
type activityView struct {
	entries []logtail.Entry
	err     error
	loaded  bool
	// offset counts lines scrolled up from the newest entry.
	offset int
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

func (a *activityView) load(msg activityMsg) {
	a.entries = msg.entries
	a.err = msg.err
	a.loaded = true
	a.offset = min(a.offset, max(len(a.entries)-1, 0))
}

func (m Model) readActivity() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		entries, err := logtail.Read(path, logtail.DefaultLines)
		return activityMsg{entries: entries, err: err}
	}
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := max(len(m.activity.entries)-1, 0)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.activity.offset = min(m.activity.offset+1, last)
	case key.Matches(msg, m.keys.Down):
		m.activity.offset = max(m.activity.offset-1, 0)
	case key.Matches(msg, m.keys.Top):
		m.activity.offset = last
	case key.Matches(msg, m.keys.Bottom):
		m.activity.offset = 0
	case key.Matches(msg, m.keys.Refresh):
		return m, m.readActivity()
	case key.Matches(msg, m.keys.Escape):
		m.screen = m.back
		if m.screen == screenActivity || m.screen == screenLogin {
			m.screen = screenProducts
		}
	}
	return m, nil
}

func (m Model) renderActivity(height int) string {
	styles := m.theme.Styles()
	a := m.activity

	title := styles.AccentText.Bold(true).Render("Activity")
	if m.logPath != "" {
		title += "  " + styles.FaintText.Render(m.logPath)
	}

	var body string
	switch {
	case m.logPath == "":
		body = styles.MutedText.Render("Logging is disabled (no log_file configured)")
	case a.err != nil:
		body = styles.DangerText.Render(a.err.Error()) + styles.FaintText.Render("  (r to retry)")
	case !a.loaded:
		body = styles.WarningText.Render("Loading...")
	case len(a.entries) == 0:
		body = styles.MutedText.Render("Nothing logged yet")
	default:
		rows := max(height-2, 1)
		end := len(a.entries) - a.offset
		start := max(end-rows, 0)
		lines := make([]string, 0, end-start)
		for _, e := range a.entries[start:end] {
			lines = append(lines, m.renderActivityEntry(e))
		}
		body = strings.Join(lines, "\n")
	}
	return title + "\n\n" + body
}

func (m Model) renderActivityEntry(e logtail.Entry) string {
	styles := m.theme.Styles()

	when := "--:--:--"
	if !e.Time.IsZero() {
		when = e.Time.Local().Format("15:04:05")
	}
	levelStyle := styles.MutedText
	switch e.Level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		levelStyle = styles.DangerText
	case "WARN":
		levelStyle = styles.WarningText
	case "INFO":
		levelStyle = styles.SuccessText
	}

	parts := []string{
		styles.FaintText.Render(when),
		levelStyle.Render(padRight(e.Level, 5)),
	}
	if e.Logger != "" {
		parts = append(parts, styles.AccentText.Render(padRight(e.Logger, 10)))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	if e.Error != "" {
		parts = append(parts, styles.DangerText.Render(e.Error))
	}
	if len(e.Fields) > 0 {
		parts = append(parts, styles.FaintText.Render(truncate(strings.Join(e.Fields, " "), max(m.width/2, 20))))
	}
	return strings.Join(parts, " ")
}
