package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/mediainfo"
	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/wire"
)

// statusInterval limits how often progress rewrites the status file.
const statusInterval = 500 * time.Millisecond

// Peers pauses and resumes other players around smqueue playback.
type Peers interface {
	PauseAll(ctx context.Context)
	ResumePaused(ctx context.Context)
}

// Options configure a Daemon.
type Options struct {
	Queue   *Queue
	Files   *StateFiles
	Player  Player
	Fetcher Fetcher
	Peers   Peers // nil disables peer coordination
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Daemon owns playback state. All mutations happen on the goroutine running
// Serve; other goroutines talk to it through Submit.
type Daemon struct {
	queue   *Queue
	files   *StateFiles
	player  Player
	fetcher Fetcher
	peers   Peers
	log     zerolog.Logger
	now     func() time.Time

	requests chan wire.Message
	fetched  chan fetchResult
	peerOps  chan bool

	playback    state.PlaybackState
	percent     float64
	current     *Entry
	currentFile string // downloaded file to remove when playback ends
	loading     bool   // waiting for the player to leave idle after a load
	cancelFetch context.CancelFunc
	lastStatus  time.Time
}

type fetchResult struct {
	id   uint64
	path string
	err  error
}

// New returns a daemon. Queue and Files default to empty values.
func New(opts Options) *Daemon {
	if opts.Queue == nil {
		opts.Queue = NewQueue()
	}
	if opts.Files == nil {
		opts.Files = &StateFiles{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Daemon{
		queue:    opts.Queue,
		files:    opts.Files,
		player:   opts.Player,
		fetcher:  opts.Fetcher,
		peers:    opts.Peers,
		log:      opts.Logger.With().Str("component", "daemon").Logger(),
		now:      opts.Now,
		requests: make(chan wire.Message, 32),
		fetched:  make(chan fetchResult, 1),
		peerOps:  make(chan bool, 8),
		playback: state.Idle,
	}
}

// Submit hands a decoded frame to the playback loop.
func (d *Daemon) Submit(ctx context.Context, msg wire.Message) error {
	select {
	case d.requests <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs the playback loop until ctx is done.
func (d *Daemon) Serve(ctx context.Context) error {
	d.publishStatus(true)
	d.publishQueue()
	defer d.shutdown()

	var events <-chan PlayerEvent
	if d.player != nil {
		events = d.player.Events()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.requests:
			d.handle(ctx, msg)
		case ev := <-events:
			d.handlePlayer(ctx, ev)
		case res := <-d.fetched:
			d.handleFetched(ctx, res)
		}
	}
}

func (d *Daemon) String() string { return "playback" }

func (d *Daemon) shutdown() {
	if d.cancelFetch != nil {
		d.cancelFetch()
	}
	d.removeDownload()
}

func (d *Daemon) handle(ctx context.Context, msg wire.Message) {
	switch msg.Kind {
	case wire.EntryRequest:
		t, location, err := wire.ParseEntryPayload(msg.Payload)
		if err != nil {
			d.log.Warn().Err(err).Msg("dropping entry request")
			return
		}
		if location == "" {
			d.log.Warn().Stringer("type", t).Msg("dropping entry with empty location")
			return
		}
		e := d.queue.Add(msg.Priority, t, location)
		d.log.Info().Uint64("id", e.ID).Uint64("priority", e.Priority).Stringer("type", t).Str("location", location).Msg("queued")
		d.publishQueue()
		if d.playback == state.Idle && d.current == nil {
			d.playNext(ctx)
		}
	case wire.ControlRequest:
		cmd, id, err := wire.ParseControlPayload(msg.Payload)
		if err != nil {
			d.log.Warn().Err(err).Msg("dropping control request")
			return
		}
		d.control(ctx, cmd, id)
	}
}

func (d *Daemon) control(ctx context.Context, cmd wire.ControlCommand, id uint64) {
	log := d.log.With().Stringer("command", cmd).Logger()
	switch cmd {
	case wire.ClearQueue:
		d.queue.Clear()
		d.publishQueue()
	case wire.RemoveFromQueue:
		if !d.queue.Remove(id) {
			log.Debug().Uint64("id", id).Msg("no such entry")
			return
		}
		d.publishQueue()
	case wire.PromoteEntry:
		if !d.queue.Promote(id) {
			log.Debug().Uint64("id", id).Msg("no such entry")
			return
		}
		d.publishQueue()
	case wire.StartPlayback:
		switch {
		case d.playback == state.Paused && d.current != nil:
			d.setPause(ctx, false)
		case d.current == nil:
			d.playNext(ctx)
		}
	case wire.PausePlayback:
		if d.playback == state.Playing && d.current != nil && !d.loading {
			d.setPause(ctx, true)
		}
	case wire.StopPlayback:
		d.stopCurrent(ctx)
		d.setState(state.Stopped, 0)
		d.requestPeers(false)
	case wire.SkipAndPlay:
		d.stopCurrent(ctx)
		if !d.playNext(ctx) {
			d.setState(state.Idle, 0)
		}
	}
	log.Debug().Msg("control handled")
}

// playNext starts the head of the queue and reports whether anything started.
func (d *Daemon) playNext(ctx context.Context) bool {
	for {
		e, ok := d.queue.Pop()
		if !ok {
			if d.current == nil && d.playback != state.Stopped {
				d.setState(state.Idle, 0)
				d.requestPeers(false)
			}
			return false
		}
		d.publishQueue()
		if e.Type == wire.Command {
			d.log.Info().Uint64("id", e.ID).Str("command", e.Location).Msg("skipping command entry")
			continue
		}
		d.start(ctx, e)
		return true
	}
}

func (d *Daemon) start(ctx context.Context, e Entry) {
	d.current = &e
	d.loading = true
	d.setState(state.Playing, 0)
	d.requestPeers(true)
	d.recordHistory(e)

	if e.Type != wire.YoutubeMedia {
		d.load(ctx, e.Location)
		return
	}
	if d.fetcher == nil {
		d.log.Error().Uint64("id", e.ID).Msg("no downloader configured")
		d.finish(ctx)
		return
	}
	ref, _ := mediainfo.SplitLocation(e.Location)
	fetchCtx, cancel := context.WithCancel(ctx)
	d.cancelFetch = cancel
	go func(id uint64) {
		path, err := d.fetcher.Fetch(fetchCtx, ref)
		select {
		case d.fetched <- fetchResult{id: id, path: path, err: err}:
		case <-fetchCtx.Done():
			if err == nil {
				_ = os.Remove(path)
			}
		}
	}(e.ID)
}

func (d *Daemon) handleFetched(ctx context.Context, res fetchResult) {
	if d.current == nil || d.current.ID != res.id {
		if res.err == nil {
			_ = os.Remove(res.path)
		}
		return
	}
	if d.cancelFetch != nil {
		d.cancelFetch()
		d.cancelFetch = nil
	}
	if res.err != nil {
		d.log.Error().Err(res.err).Uint64("id", res.id).Msg("download failed")
		d.finish(ctx)
		return
	}
	d.currentFile = res.path
	d.load(ctx, res.path)
}

func (d *Daemon) load(ctx context.Context, path string) {
	if d.player == nil {
		d.log.Error().Msg("no player configured")
		d.finish(ctx)
		return
	}
	if err := d.player.Load(ctx, path); err != nil {
		d.log.Error().Err(err).Str("path", path).Msg("load failed")
		d.finish(ctx)
		return
	}
	d.log.Info().Uint64("id", d.current.ID).Str("path", path).Msg("playing")
}

// finish ends the current entry and moves to the next one.
func (d *Daemon) finish(ctx context.Context) {
	d.releaseCurrent()
	if !d.playNext(ctx) {
		d.setState(state.Idle, 0)
	}
}

func (d *Daemon) stopCurrent(ctx context.Context) {
	if d.current == nil {
		return
	}
	if d.player != nil && d.cancelFetch == nil {
		if err := d.player.Stop(ctx); err != nil {
			d.log.Warn().Err(err).Msg("stop player")
		}
	}
	d.releaseCurrent()
}

func (d *Daemon) releaseCurrent() {
	if d.cancelFetch != nil {
		d.cancelFetch()
		d.cancelFetch = nil
	}
	d.removeDownload()
	d.current = nil
	d.loading = false
}

func (d *Daemon) removeDownload() {
	if d.currentFile == "" {
		return
	}
	if err := os.Remove(d.currentFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.log.Warn().Err(err).Str("path", d.currentFile).Msg("remove download")
	}
	d.currentFile = ""
}

func (d *Daemon) setPause(ctx context.Context, paused bool) {
	if err := d.player.SetPause(ctx, paused); err != nil {
		d.log.Warn().Err(err).Bool("pause", paused).Msg("set pause")
		return
	}
	if paused {
		d.setState(state.Paused, d.percent)
		d.requestPeers(false)
	} else {
		d.setState(state.Playing, d.percent)
		d.requestPeers(true)
	}
}

func (d *Daemon) handlePlayer(ctx context.Context, ev PlayerEvent) {
	if d.current == nil {
		return
	}
	switch ev.Kind {
	case EventProgress:
		if d.loading {
			return
		}
		d.percent = ev.Percent
		d.publishStatus(false)
	case EventPause:
		if d.loading {
			return
		}
		switch {
		case ev.Paused && d.playback == state.Playing:
			d.setState(state.Paused, d.percent)
		case !ev.Paused && d.playback == state.Paused:
			d.setState(state.Playing, d.percent)
		}
	case EventIdle:
		if !ev.Idle {
			d.loading = false
			return
		}
		if d.loading {
			return
		}
		d.log.Info().Uint64("id", d.current.ID).Msg("finished")
		d.finish(ctx)
	}
}

func (d *Daemon) setState(s state.PlaybackState, percent float64) {
	changed := s != d.playback
	d.playback = s
	d.percent = percent
	d.publishStatus(changed || percent == 0)
}

func (d *Daemon) publishStatus(force bool) {
	now := d.now()
	if !force && now.Sub(d.lastStatus) < statusInterval {
		return
	}
	d.lastStatus = now
	if err := d.files.WriteStatus(d.playback, d.percent); err != nil {
		d.log.Warn().Err(err).Msg("write status")
	}
}

func (d *Daemon) publishQueue() {
	if err := d.files.WriteQueue(d.queue.Entries()); err != nil {
		d.log.Warn().Err(err).Msg("write queue")
	}
}

func (d *Daemon) recordHistory(e Entry) {
	name, location := historyFields(e)
	if err := d.files.AppendHistory(d.now(), name, location); err != nil {
		d.log.Warn().Err(err).Msg("append history")
	}
}

// historyFields picks the display name and a location that can be queued
// again as-is.
func historyFields(e Entry) (name, location string) {
	switch e.Type {
	case wire.YoutubeMedia:
		ref, title := mediainfo.SplitLocation(e.Location)
		if title == "" {
			title = ref
		}
		return title, ref
	case wire.LocalMedia:
		return filepath.Base(e.Location), e.Location
	default:
		return e.Location, e.Location
	}
}

// requestPeers queues a pause (true) or resume (false) for RunPeers.
func (d *Daemon) requestPeers(pause bool) {
	if d.peers == nil {
		return
	}
	select {
	case d.peerOps <- pause:
	default:
		d.log.Debug().Bool("pause", pause).Msg("peer request dropped")
	}
}

func (d *Daemon) servePeers(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pause := <-d.peerOps:
			opCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if pause {
				d.peers.PauseAll(opCtx)
			} else {
				d.peers.ResumePaused(opCtx)
			}
			cancel()
		}
	}
}
