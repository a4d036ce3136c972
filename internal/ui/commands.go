package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/smqueue/internal/queue"
	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/volume"
)

func (m Model) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, CommandTimeout)
}

func (m Model) controlCmd(done string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.commandContext()
		defer cancel()
		if err := fn(ctx); err != nil {
			return commandMsg{err: describeError(err)}
		}
		return commandMsg{feedback: done}
	}
}

// playPauseCmd toggles based on the playback state shown when the key was
// dispatched.
func (m Model) playPauseCmd() tea.Cmd {
	if m.snapshot.PlaybackState == state.Playing {
		return m.controlCmd("paused", m.client.Pause)
	}
	return m.controlCmd("playing", m.client.Start)
}

// removeCmd and promoteCmd look the entry up again when they run, so a queue
// rewrite between the key press and the send cannot hit a different row.
func (m Model) removeCmd(index int) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		entry, ok := store.EntryAt(index)
		if !ok {
			return commandMsg{err: errors.New("entry no longer in queue")}
		}
		ctx, cancel := m.commandContext()
		defer cancel()
		if err := m.client.Remove(ctx, entry.ID); err != nil {
			return commandMsg{err: describeError(err)}
		}
		return commandMsg{feedback: fmt.Sprintf("removed %s", truncateMiddle(entry.Location, 60))}
	}
}

func (m Model) promoteCmd(index int) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		entry, ok := store.EntryAt(index)
		if !ok {
			return commandMsg{err: errors.New("entry no longer in queue")}
		}
		ctx, cancel := m.commandContext()
		defer cancel()
		if err := m.client.Promote(ctx, entry.ID); err != nil {
			return commandMsg{err: describeError(err)}
		}
		return commandMsg{feedback: fmt.Sprintf("promoted %s", truncateMiddle(entry.Location, 60))}
	}
}

// requeueCmd adds a history entry back to the queue. Locations that no
// longer resolve are retried as raw streams.
func (m Model) requeueCmd(index int) tea.Cmd {
	history := m.history
	priority := m.priority
	return func() tea.Msg {
		entry, ok := history.EntryAt(index)
		if !ok {
			return commandMsg{err: errors.New("entry no longer in history")}
		}
		ctx, cancel := m.commandContext()
		defer cancel()
		feedback, err := m.client.AddEntry(ctx, entry.Location, priority, false)
		var unrecognized *queue.UnrecognizedInputError
		if errors.As(err, &unrecognized) {
			feedback, err = m.client.AddEntry(ctx, entry.Location, priority, true)
		}
		if err != nil {
			return commandMsg{err: describeError(err)}
		}
		return commandMsg{feedback: feedback}
	}
}

func (m Model) addCmd(input string, raw bool) tea.Cmd {
	priority := m.priority
	return func() tea.Msg {
		ctx, cancel := m.commandContext()
		defer cancel()
		feedback, err := m.client.AddEntry(ctx, input, priority, raw)
		if err != nil {
			return commandMsg{feedback: feedback, err: describeError(err)}
		}
		return commandMsg{feedback: feedback}
	}
}

func (m Model) volumeCmd(up bool) tea.Cmd {
	if m.volume == nil {
		return func() tea.Msg {
			return volumeMsg{err: errors.New("volume unavailable")}
		}
	}
	vol := m.volume
	steps := m.step
	return func() tea.Msg {
		ctx, cancel := m.commandContext()
		defer cancel()
		var err error
		if up {
			err = vol.Increment(ctx, steps)
		} else {
			err = vol.Decrement(ctx, steps)
		}
		return volumeMsg{err: describeError(err)}
	}
}

func (m Model) readVolumeCmd() tea.Cmd {
	vol := m.volume
	if vol == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := m.commandContext()
		defer cancel()
		_, err := vol.Read(ctx)
		return volumeMsg{err: describeError(err)}
	}
}

func (m Model) pageCmd(older bool) tea.Cmd {
	pager := m.pager
	if pager == nil {
		return nil
	}
	return func() tea.Msg {
		var err error
		if older {
			err = pager.NextPage()
		} else {
			err = pager.PrevPage()
		}
		if err != nil {
			return commandMsg{err: fmt.Errorf("history: %w", err)}
		}
		return nil
	}
}

// describeError adds a hint for errors the user can act on.
func describeError(err error) error {
	if err == nil {
		return nil
	}
	var (
		transport    *queue.TransportError
		unrecognized *queue.UnrecognizedInputError
	)
	switch {
	case errors.As(err, &unrecognized):
		return fmt.Errorf("%w (press A to add it as a raw stream)", err)
	case errors.As(err, &transport):
		return fmt.Errorf("%w (is the daemon running? retry or start it with 'smq daemon')", err)
	case errors.Is(err, volume.ErrDegenerateRange):
		return fmt.Errorf("%w; volume keys have no effect on this control", err)
	}
	return err
}
