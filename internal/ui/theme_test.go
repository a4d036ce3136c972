package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeLookups(t *testing.T) {
	th := GetTheme("Dracula")
	styles := th.Styles()

	if got := styles.StateColor("Playing"); got != lipgloss.Color(th.StateColors["Playing"]) {
		t.Fatalf("StateColor(Playing) = %q, want %q", got, th.StateColors["Playing"])
	}
	if got := styles.StateColor("unknown"); got != lipgloss.Color(th.Muted) {
		t.Fatalf("StateColor(unknown) = %q, want %q", got, th.Muted)
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("nope").Name; got != "Dracula" {
		t.Fatalf("GetTheme(nope).Name = %q, want Dracula", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}
