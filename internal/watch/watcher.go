package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// State is the lifecycle phase of a Watcher.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateReparsing
)

func (s State) String() string {
	switch s {
	case StateWatching:
		return "watching"
	case StateReparsing:
		return "reparsing"
	default:
		return "idle"
	}
}

// ReloadFunc rereads one target file and publishes the result. It returns
// an error when the content could not be used.
type ReloadFunc func() error

type target struct {
	path   string
	reload ReloadFunc
}

// Watcher reparses its targets whenever the files change on disk.
type Watcher struct {
	name    string
	log     zerolog.Logger
	targets map[string]target // keyed by cleaned absolute path

	state   atomic.Int32
	started bool
	done    chan struct{}
	mu      sync.Mutex
}

// New returns an idle watcher. name appears in log lines.
func New(name string, log zerolog.Logger) *Watcher {
	return &Watcher{
		name:    name,
		log:     log.With().Str("watcher", name).Logger(),
		targets: make(map[string]target),
		done:    make(chan struct{}),
	}
}

// Add registers a file and its reload function. It must be called before Start.
func (w *Watcher) Add(path string, reload ReloadFunc) {
	clean := filepath.Clean(path)
	w.targets[clean] = target{path: clean, reload: reload}
}

// State reports the current lifecycle phase.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Done is closed once the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Start parses every target once, subscribes to filesystem events and
// runs the watch loop in the background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher %s already started", w.name)
	}
	w.started = true

	for _, t := range w.targets {
		w.run(t)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return &WatchSetupError{Path: w.name, Err: err}
	}
	dirs := make(map[string]struct{})
	for path := range w.targets {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return &WatchSetupError{Path: dir, Err: err}
		}
	}

	w.state.Store(int32(StateWatching))
	w.log.Debug().Int("targets", len(w.targets)).Msg("watching")
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Msg("watch stopped")
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			t, ok := w.targets[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			w.run(t)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) run(t target) {
	prev := w.state.Swap(int32(StateReparsing))
	defer w.state.Store(prev)

	if err := t.reload(); err != nil {
		var malformed *MalformedStateFileError
		if errors.As(err, &malformed) {
			w.log.Warn().Str("file", t.path).Err(err).Msg("state file parse failed, keeping last good snapshot")
			return
		}
		w.log.Warn().Str("file", t.path).Err(err).Msg("state file reload failed")
		return
	}
	w.log.Trace().Str("file", t.path).Msg("reparsed")
}
