package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/smqueue/internal/state"
)

func (m Model) renderContent() string {
	var body string
	switch m.tab {
	case TabHistory:
		body = m.renderHistory()
	case TabLog:
		body = m.logView.View()
	case TabHelp:
		body = m.renderHelp()
	default:
		body = m.renderQueue()
	}
	return fitHeight(body, m.contentHeight())
}

// visibleRange returns the [start, end) window of rows that keeps the cursor
// on screen.
func visibleRange(cursor TabsElement, rows int) (int, int) {
	if rows <= 0 || cursor.Size == 0 {
		return 0, 0
	}
	start := 0
	if cursor.Position >= rows {
		start = cursor.Position - rows + 1
	}
	end := min(cursor.Size, start+rows)
	return start, end
}

func (m Model) renderQueue() string {
	styles := m.theme.Styles()
	entries := m.snapshot.Entries
	if len(entries) == 0 {
		return styles.FaintText.Render("Queue is empty. Press a to add media.")
	}

	compact := m.width < LayoutCompactWidth
	idW, prioW, typeW := 6, 10, 13
	locW := m.width - idW - 1
	if !compact {
		locW -= prioW + typeW + 2
	}
	locW = max(10, locW)

	var b strings.Builder
	headers := []string{cell("ID", idW)}
	if !compact {
		headers = append(headers, cell("PRIORITY", prioW), cell("TYPE", typeW))
	}
	headers = append(headers, "LOCATION")
	b.WriteString(styles.MutedText.Bold(true).Render(strings.Join(headers, " ")))

	start, end := visibleRange(m.queueCursor, m.contentHeight()-1)
	for i := start; i < end; i++ {
		e := entries[i]
		b.WriteString("\n")
		b.WriteString(m.queueRow(e, i == m.queueCursor.Position, compact, idW, prioW, typeW, locW))
	}
	return b.String()
}

func (m Model) queueRow(e state.QueueEntry, selected, compact bool, idW, prioW, typeW, locW int) string {
	styles := m.theme.Styles()
	location := truncateMiddle(e.Location, locW)
	if selected {
		cols := []string{cell(strconv.FormatUint(e.ID, 10), idW)}
		if !compact {
			cols = append(cols, cell(strconv.FormatUint(e.Priority, 10), prioW), cell(e.EntryType, typeW))
		}
		cols = append(cols, padRight(location, locW))
		return styles.Selected.Render(strings.Join(cols, " "))
	}
	cols := []string{styles.FaintText.Render(cell(strconv.FormatUint(e.ID, 10), idW))}
	if !compact {
		cols = append(cols,
			styles.MutedText.Render(cell(strconv.FormatUint(e.Priority, 10), prioW)),
			styles.Text.Foreground(styles.StateColor(e.EntryType)).Render(cell(e.EntryType, typeW)),
		)
	}
	cols = append(cols, styles.Text.Render(location))
	return strings.Join(cols, " ")
}

func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	page := m.historyPage
	var b strings.Builder

	summary := fmt.Sprintf("History, newest first (skipping %d)", page.Offset)
	if page.LastError != nil {
		summary += "  " + styles.WarningText.Render(truncate(page.LastError.Error(), 60))
	}
	b.WriteString(styles.MutedText.Render(summary))
	if len(page.Entries) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Nothing played yet."))
		return b.String()
	}

	timeW := 19
	nameW := max(10, (m.width-timeW-2)/2)
	locW := max(10, m.width-timeW-nameW-2)
	start, end := visibleRange(m.historyCursor, m.contentHeight()-1)
	for i := start; i < end; i++ {
		e := page.Entries[i]
		b.WriteString("\n")
		if i == m.historyCursor.Position {
			row := strings.Join([]string{cell(e.Timestamp, timeW), cell(e.Name, nameW), padRight(truncateMiddle(e.Location, locW), locW)}, " ")
			b.WriteString(styles.Selected.Render(row))
			continue
		}
		b.WriteString(strings.Join([]string{
			styles.FaintText.Render(cell(e.Timestamp, timeW)),
			styles.Text.Render(cell(e.Name, nameW)),
			styles.MutedText.Render(truncateMiddle(e.Location, locW)),
		}, " "))
	}
	return b.String()
}

func (m *Model) setLogLines(msg logMsg) {
	follow := m.logView.AtBottom() || m.logView.TotalLineCount() == 0
	switch {
	case msg.err != nil:
		m.logView.SetContent(msg.err.Error())
	case len(msg.lines) == 0:
		m.logView.SetContent("(log is empty)")
	default:
		m.logView.SetContent(strings.Join(msg.lines, "\n"))
	}
	if follow {
		m.logView.GotoBottom()
	}
}

// fitHeight pads or cuts body to exactly height lines.
func fitHeight(body string, height int) string {
	lines := strings.Split(body, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
