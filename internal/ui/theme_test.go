package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/resources"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}

	names[0] = "mutated"
	if got := ThemeNames()[0]; got != "Nightfox" {
		t.Fatalf("ThemeNames()[0] after caller mutation = %q, want Nightfox", got)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Kanagawa").Name; got != "Kanagawa" {
		t.Fatalf("GetTheme(Kanagawa).Name = %q, want Kanagawa", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestThemesColorEveryOrderStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		seen := map[string]string{}
		for _, status := range resources.OrderStatuses {
			color := th.StatusColor(status)
			if color == "" || color == th.Muted {
				t.Fatalf("%s theme has no color for order status %q", name, status)
			}
			if other, dup := seen[color]; dup {
				t.Fatalf("%s theme draws %q and %q in the same color", name, other, status)
			}
			seen[color] = status
		}
	}
}

func TestStatusStyle_NormalizesAndFallsBack(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()

	got := styles.StatusStyle("  Cancelled ").GetBackground()
	if got != lipgloss.Color(th.Danger) {
		t.Fatalf("StatusStyle(Cancelled) background = %v, want danger %q", got, th.Danger)
	}
	got = styles.StatusStyle("refunded").GetBackground()
	if got != lipgloss.Color(th.Muted) {
		t.Fatalf("StatusStyle(refunded) background = %v, want muted %q", got, th.Muted)
	}

	surfaced := styles.WithBackground(th.Surface)
	got = surfaced.StatusStyle("pending").GetBackground()
	if got != lipgloss.Color(th.Warning) {
		t.Fatalf("WithBackground lost status colors: %v", got)
	}
	if got := surfaced.MutedText.GetBackground(); got != lipgloss.Color(th.Surface) {
		t.Fatalf("WithBackground MutedText background = %v, want %q", got, th.Surface)
	}
}
