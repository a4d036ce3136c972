package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/smqueue/internal/state"
)

const labelWidth = 10

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newBgStyle(m.theme.Surface)
	surface := styles.WithBackground(m.theme.Surface)

	title := bg.render("smqueue", surface.Logo)
	var indicators []string
	if m.client != nil && m.client.Unreachable() {
		indicators = append(indicators, bg.render("daemon unreachable", surface.DangerText))
	}
	if m.volume == nil {
		indicators = append(indicators, bg.render("volume unavailable", surface.WarningText))
	}
	if m.snapshot.IsDegraded() {
		indicators = append(indicators, bg.render("state files unreadable", surface.WarningText))
	}
	if m.historyPage.IsDegraded() {
		indicators = append(indicators, bg.render("history unreadable", surface.WarningText))
	}
	line := title
	if len(indicators) > 0 {
		line = bg.join([]string{title, bg.join(indicators, " | ")}, "  ")
	}

	lines := []string{
		bg.fill(line, m.width),
		m.playbackLine(),
		m.volumeLine(),
		"",
	}
	return strings.Join(lines, "\n")
}

func (m Model) playbackLine() string {
	styles := m.theme.Styles()
	playback := m.snapshot.PlaybackState
	label := styles.StateStyle(playback.String()).Width(labelWidth).Render(playback.String())
	percent := m.snapshot.PlaybackTime
	if playback == state.Idle || playback == state.Stopped {
		percent = 0
	}
	gauge := m.playGauge.ViewAs(clampUnit(percent / 100))
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", gauge, " ", styles.MutedText.Render(fmt.Sprintf("%5.1f%%", percent)))
}

func (m Model) volumeLine() string {
	styles := m.theme.Styles()
	label := styles.StateStyle("Volume").Width(labelWidth).Render("Volume")
	if m.volume == nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", styles.FaintText.Render("disabled"))
	}
	gauge := m.volumeGauge.ViewAs(clampUnit(m.loudness))
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", gauge, " ", styles.MutedText.Render(m.volumeDesc))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		text := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			parts = append(parts, styles.TabActive.Render(text))
		} else {
			parts = append(parts, styles.TabInactive.Render(text))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := newBgStyle(m.theme.Surface)
	surface := styles.WithBackground(m.theme.Surface)

	var status string
	switch {
	case m.prompting:
		label := "Add: "
		if m.promptRaw {
			label = "Add stream: "
		}
		status = bg.render(label, surface.AccentText) + m.prompt.View()
	case m.statusErr:
		status = bg.render(truncate(m.status, m.width-1), surface.DangerText)
	default:
		status = bg.render(truncate(m.status, m.width-1), surface.Text)
	}

	hints := make([]string, 0, 8)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, bg.render(h.Key, surface.AccentText)+bg.spaces(1)+bg.render(h.Desc, surface.MutedText))
	}
	return bg.fill(status, m.width) + "\n" + bg.fill(bg.join(hints, "  "), m.width)
}

func clampUnit(v float64) float64 {
	return max(0, min(1, v))
}
