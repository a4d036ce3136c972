package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/watch"
	"github.com/five82/smqueue/internal/wire"
)

type fakePlayer struct {
	calls  []string
	err    error
	events chan PlayerEvent
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{events: make(chan PlayerEvent, 8)}
}

func (p *fakePlayer) Load(ctx context.Context, path string) error {
	p.calls = append(p.calls, "load "+path)
	return p.err
}

func (p *fakePlayer) SetPause(ctx context.Context, paused bool) error {
	if paused {
		p.calls = append(p.calls, "pause")
	} else {
		p.calls = append(p.calls, "resume")
	}
	return p.err
}

func (p *fakePlayer) Stop(ctx context.Context) error {
	p.calls = append(p.calls, "stop")
	return p.err
}

func (p *fakePlayer) Events() <-chan PlayerEvent { return p.events }

type fakeFetcher struct {
	dir string
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "dl.webm")
	return path, os.WriteFile(path, []byte("media"), 0o644)
}

type fakePeers struct {
	pauses, resumes int
}

func (p *fakePeers) PauseAll(context.Context)     { p.pauses++ }
func (p *fakePeers) ResumePaused(context.Context) { p.resumes++ }

type harness struct {
	d      *Daemon
	player *fakePlayer
	files  *StateFiles
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	player := newFakePlayer()
	files := newTestFiles(t)
	clock := time.Unix(1700000000, 0)
	d := New(Options{
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		Files:   files,
		Player:  player,
		Fetcher: &fakeFetcher{dir: t.TempDir()},
		Peers:   &fakePeers{},
		Logger:  zerolog.Nop(),
	})
	return &harness{d: d, player: player, files: files}
}

func (h *harness) entry(t *testing.T, priority uint64, et wire.EntryType, location string) {
	t.Helper()
	msg, err := wire.Decode(wire.Encode(wire.EntryRequest, priority, wire.EntryPayload(et, location)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	h.d.handle(context.Background(), msg)
}

func (h *harness) control(t *testing.T, cmd wire.ControlCommand, id uint64) {
	t.Helper()
	msg, err := wire.Decode(wire.Encode(wire.ControlRequest, 0, wire.ControlPayload(cmd, id)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	h.d.handle(context.Background(), msg)
}

func (h *harness) status(t *testing.T) (state.PlaybackState, float64) {
	t.Helper()
	data, err := os.ReadFile(h.files.StatusPath)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	s, pct, err := watch.ParseStatus(data)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	return s, pct
}

func (h *harness) queued(t *testing.T) []state.QueueEntry {
	t.Helper()
	data, err := os.ReadFile(h.files.QueuePath)
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	entries, err := watch.ParseQueue(data)
	if err != nil {
		t.Fatalf("ParseQueue: %v", err)
	}
	return entries
}

// startPlaying moves the fake player out of idle as mpv would after a load.
func (h *harness) startPlaying() {
	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventIdle, Idle: false})
}

func TestDaemon_AddStartsPlaybackWhenIdle(t *testing.T) {
	h := newHarness(t)
	h.entry(t, 50, wire.LocalMedia, "/music/a.mp3")
	h.entry(t, 50, wire.LocalMedia, "/music/b.mp3")

	if got := strings.Join(h.player.calls, ","); got != "load /music/a.mp3" {
		t.Fatalf("player calls = %q", got)
	}
	if s, _ := h.status(t); s != state.Playing {
		t.Fatalf("status = %v, want Playing", s)
	}
	q := h.queued(t)
	if len(q) != 1 || q[0].ID != 2 {
		t.Fatalf("queue = %+v, want only id 2", q)
	}
	if len(h.d.peerOps) != 1 {
		t.Fatalf("peer pause not requested, ops=%d", len(h.d.peerOps))
	}
}

func TestDaemon_PlaysThroughQueueOnIdle(t *testing.T) {
	h := newHarness(t)
	h.entry(t, 50, wire.LocalMedia, "/a")
	h.entry(t, 50, wire.FileStream, "http://radio/stream")
	h.startPlaying()

	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventProgress, Percent: 33})
	if _, pct := h.status(t); pct != 33 {
		t.Fatalf("percent = %v, want 33", pct)
	}

	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventIdle, Idle: true})
	if last := h.player.calls[len(h.player.calls)-1]; last != "load http://radio/stream" {
		t.Fatalf("last call = %q", last)
	}
	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventIdle, Idle: true})
	if len(h.player.calls) != 2 {
		t.Fatalf("idle while loading advanced the queue: %v", h.player.calls)
	}
	h.startPlaying()
	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventIdle, Idle: true})
	if s, _ := h.status(t); s != state.Idle {
		t.Fatalf("status = %v, want Idle after queue drained", s)
	}
}

func TestDaemon_Controls(t *testing.T) {
	h := newHarness(t)
	h.entry(t, 50, wire.LocalMedia, "/a")
	h.entry(t, 50, wire.LocalMedia, "/b")
	h.entry(t, 50, wire.LocalMedia, "/c")
	h.startPlaying()

	h.control(t, wire.PausePlayback, 0)
	if s, _ := h.status(t); s != state.Paused {
		t.Fatalf("status = %v, want Paused", s)
	}
	h.control(t, wire.StartPlayback, 0)
	if s, _ := h.status(t); s != state.Playing {
		t.Fatalf("status = %v, want Playing", s)
	}

	h.control(t, wire.PromoteEntry, 3)
	if q := h.queued(t); q[0].ID != 3 {
		t.Fatalf("head after promote = %+v", q[0])
	}

	h.control(t, wire.SkipAndPlay, 0)
	want := []string{"load /a", "pause", "resume", "stop", "load /c"}
	if got := strings.Join(h.player.calls, ","); got != strings.Join(want, ",") {
		t.Fatalf("calls = %q, want %q", got, strings.Join(want, ","))
	}

	h.control(t, wire.RemoveFromQueue, 2)
	if q := h.queued(t); len(q) != 0 {
		t.Fatalf("queue after remove = %+v", q)
	}

	h.control(t, wire.StopPlayback, 0)
	if s, _ := h.status(t); s != state.Stopped {
		t.Fatalf("status = %v, want Stopped", s)
	}

	// Adding while stopped does not auto-start.
	h.entry(t, 50, wire.LocalMedia, "/d")
	if last := h.player.calls[len(h.player.calls)-1]; last != "stop" {
		t.Fatalf("add while stopped started playback: %v", h.player.calls)
	}
	h.control(t, wire.ClearQueue, 0)
	if q := h.queued(t); len(q) != 0 {
		t.Fatalf("queue after clear = %+v", q)
	}
}

func TestDaemon_DownloadsRemoteMedia(t *testing.T) {
	h := newHarness(t)
	h.entry(t, 50, wire.YoutubeMedia, "https://youtu.be/abc - A Title")
	if len(h.player.calls) != 0 {
		t.Fatalf("loaded before download finished: %v", h.player.calls)
	}

	var res fetchResult
	select {
	case res = <-h.d.fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not complete")
	}
	h.d.handleFetched(context.Background(), res)
	if len(h.player.calls) != 1 || h.player.calls[0] != "load "+res.path {
		t.Fatalf("calls = %v", h.player.calls)
	}

	entries, err := watch.ReadHistory(h.files.HistoryPath, 10, 0, time.UTC)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "A Title" || entries[0].Location != "https://youtu.be/abc" {
		t.Fatalf("history = %+v", entries)
	}

	h.startPlaying()
	h.d.handlePlayer(context.Background(), PlayerEvent{Kind: EventIdle, Idle: true})
	if _, err := os.Stat(res.path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("download not removed: %v", err)
	}
}

func TestDaemon_DownloadFailureMovesOn(t *testing.T) {
	h := newHarness(t)
	h.d.fetcher = &fakeFetcher{err: errors.New("unavailable")}
	h.entry(t, 50, wire.YoutubeMedia, "abc - gone")
	h.d.handleFetched(context.Background(), <-h.d.fetched)
	if s, _ := h.status(t); s != state.Idle {
		t.Fatalf("status = %v, want Idle", s)
	}
}

func TestDaemon_SkipsCommandEntries(t *testing.T) {
	h := newHarness(t)
	h.entry(t, 90, wire.Command, "echo hi")
	if len(h.player.calls) != 0 {
		t.Fatalf("command entry was played: %v", h.player.calls)
	}
	if s, _ := h.status(t); s != state.Idle {
		t.Fatalf("status = %v, want Idle", s)
	}
}

func TestServer_DeliversFrames(t *testing.T) {
	dir, err := os.MkdirTemp("", "smqd")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "q.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("stale socket: %v", err)
	}

	d := New(Options{Logger: zerolog.Nop()})
	srv := NewServer(path, d, zerolog.Nop())
	if err := srv.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	sender := wire.NewUnixSender(path)
	frame := wire.Encode(wire.ControlRequest, 0, wire.ControlPayload(wire.PromoteEntry, 7))
	if err := sender.Send(context.Background(), frame); err != nil {
		t.Fatalf("Send: %v", err)
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	_, _ = conn.Write([]byte{1, 2})
	conn.Close()

	select {
	case msg := <-d.requests:
		cmd, id, err := wire.ParseControlPayload(msg.Payload)
		if err != nil || cmd != wire.PromoteEntry || id != 7 {
			t.Fatalf("received %v %d %v", cmd, id, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}
	select {
	case msg := <-d.requests:
		t.Fatalf("short frame delivered: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket not removed: %v", err)
	}
}
