package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bgStyle renders segments that share one background color. Styling each
// word separately keeps ANSI resets between segments from leaving gaps.
type bgStyle struct {
	bg    lipgloss.Color
	space string
}

func newBgStyle(color string) bgStyle {
	bg := lipgloss.Color(color)
	return bgStyle{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

// render applies style to text with the shared background on every rune,
// spaces included.
func (b bgStyle) render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.bg)
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b bgStyle) spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// join separates parts with sep drawn on the shared background.
func (b bgStyle) join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

// fill pads rendered content out to width.
func (b bgStyle) fill(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}
