package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title    string
	bindings []key.Binding
}

var helpTitles = []string{"Views", "Navigation", "Playback", "Queue and history", "General"}

// renderHelp lists every binding grouped the way FullHelp groups them.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	groups := m.keys.FullHelp()
	sections := make([]helpSection, 0, len(groups))
	for i, g := range groups {
		title := "More"
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		sections = append(sections, helpSection{title: title, bindings: g})
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(14)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	for _, section := range sections {
		b.WriteString("\n\n")
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString("\n")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Theme: " + m.theme.Name))

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(0, 2)
	return panel.Render(b.String())
}
