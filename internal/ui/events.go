package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/smqueue/internal/logtail"
)

// tickMsg triggers key dispatch and periodic refreshes.
type tickMsg time.Time

type changeSource int

const (
	sourceState changeSource = iota
	sourceHistory
	sourceVolume
)

// changeMsg reports that a watcher or the mixer signalled a change.
type changeMsg struct {
	source changeSource
}

// commandMsg carries the outcome of a daemon command.
type commandMsg struct {
	feedback string
	err      error
}

// volumeMsg carries the outcome of a mixer read or write.
type volumeMsg struct {
	err error
}

// logMsg is the current tail of the log file.
type logMsg struct {
	lines []string
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until one of the change signals fires. Only one is
// outstanding at a time; the handler for changeMsg re-arms it.
func (m Model) waitForChange() tea.Cmd {
	ctx := m.ctx
	stateCh := m.store.Changed()
	historyCh := m.history.Changed()
	var volumeCh <-chan struct{}
	if m.volume != nil {
		volumeCh = m.volume.Changed()
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-stateCh:
			return changeMsg{source: sourceState}
		case <-historyCh:
			return changeMsg{source: sourceHistory}
		case <-volumeCh:
			return changeMsg{source: sourceVolume}
		}
	}
}

func readLogCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logMsg{lines: lines, err: err}
	}
}
