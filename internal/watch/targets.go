package watch

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/state"
)

// StatusReloader parses the status file at path into store.
func StatusReloader(store *state.Store, path string) ReloadFunc {
	return func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			store.RecordFailure(state.StatusSource, err)
			return fmt.Errorf("read status: %w", err)
		}
		playback, percent, err := ParseStatus(data)
		if err != nil {
			err = withFile(err, path)
			store.RecordFailure(state.StatusSource, err)
			return err
		}
		store.SetStatus(playback, percent)
		return nil
	}
}

// QueueReloader parses the queue file at path into store.
func QueueReloader(store *state.Store, path string) ReloadFunc {
	return func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			store.RecordFailure(state.QueueSource, err)
			return fmt.Errorf("read queue: %w", err)
		}
		entries, err := ParseQueue(data)
		if err != nil {
			err = withFile(err, path)
			store.RecordFailure(state.QueueSource, err)
			return err
		}
		store.SetQueue(entries)
		return nil
	}
}

// NewStateWatcher watches the daemon status and queue files.
func NewStateWatcher(store *state.Store, statusPath, queuePath string, log zerolog.Logger) *Watcher {
	w := New("state", log)
	w.Add(statusPath, StatusReloader(store, statusPath))
	w.Add(queuePath, QueueReloader(store, queuePath))
	return w
}

// NewHistoryWatcher watches the history file behind loader.
func NewHistoryWatcher(loader *HistoryLoader, log zerolog.Logger) *Watcher {
	w := New("history", log)
	w.Add(loader.Path(), loader.Reload)
	return w
}

func withFile(err error, path string) error {
	var malformed *MalformedStateFileError
	if errors.As(err, &malformed) && malformed.File == "" {
		malformed.File = path
	}
	return err
}
