package peer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

type fakePlayer struct {
	name     string
	playing  bool
	err      error
	pauseErr error
	pauses   int
	resumes  int
}

func (f *fakePlayer) Name() string { return f.name }

func (f *fakePlayer) Playing(context.Context) (bool, error) { return f.playing, f.err }

func (f *fakePlayer) Pause(context.Context) error {
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.pauses++
	f.playing = false
	return nil
}

func (f *fakePlayer) Resume(context.Context) error {
	f.resumes++
	f.playing = true
	return nil
}

func TestCoordinator_ResumesOnlyWhatItPaused(t *testing.T) {
	spotify := &fakePlayer{name: "spotify", playing: true}
	mpdPeer := &fakePlayer{name: "mpd"}
	broken := &fakePlayer{name: "broken", err: errors.New("no bus")}
	stuck := &fakePlayer{name: "stuck", playing: true, pauseErr: errors.New("refused")}

	c := NewCoordinator(zerolog.Nop(), spotify, mpdPeer, broken, stuck)
	ctx := context.Background()
	c.PauseAll(ctx)

	if got := c.Paused(); !reflect.DeepEqual(got, []string{"spotify"}) {
		t.Fatalf("Paused = %v, want [spotify]", got)
	}
	// A second pause while already paused must not double-record.
	c.PauseAll(ctx)
	c.ResumePaused(ctx)

	if spotify.pauses != 1 || spotify.resumes != 1 {
		t.Fatalf("spotify pauses=%d resumes=%d, want 1/1", spotify.pauses, spotify.resumes)
	}
	if mpdPeer.pauses != 0 || mpdPeer.resumes != 0 {
		t.Fatalf("idle mpd was touched: pauses=%d resumes=%d", mpdPeer.pauses, mpdPeer.resumes)
	}
	if stuck.resumes != 0 {
		t.Fatalf("peer that refused to pause was resumed")
	}
	if len(c.Paused()) != 0 {
		t.Fatalf("Paused after resume = %v", c.Paused())
	}
}

type fakeBusObject struct {
	status string
	err    error
	calls  []string
}

func (f *fakeBusObject) GetProperty(p string) (dbus.Variant, error) {
	if f.err != nil {
		return dbus.Variant{}, f.err
	}
	return dbus.MakeVariant(f.status), nil
}

func (f *fakeBusObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.calls = append(f.calls, method)
	return &dbus.Call{}
}

func TestMPRIS(t *testing.T) {
	obj := &fakeBusObject{status: "Playing"}
	running := true
	m := &MPRIS{
		name:    "spotify",
		process: "spotify",
		lookup:  func(context.Context, string) (bool, error) { return running, nil },
		object:  func() (BusObject, error) { return obj, nil },
	}
	ctx := context.Background()

	playing, err := m.Playing(ctx)
	if err != nil || !playing {
		t.Fatalf("Playing = %t, %v; want true", playing, err)
	}
	obj.status = "Paused"
	if playing, _ := m.Playing(ctx); playing {
		t.Fatal("Playing = true for Paused status")
	}
	running = false
	obj.status = "Playing"
	if playing, err := m.Playing(ctx); playing || err != nil {
		t.Fatalf("Playing without process = %t, %v; want false, nil", playing, err)
	}

	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	want := []string{"org.mpris.MediaPlayer2.Player.Pause", "org.mpris.MediaPlayer2.Player.Play"}
	if !reflect.DeepEqual(obj.calls, want) {
		t.Fatalf("calls = %v, want %v", obj.calls, want)
	}
}

type fakeMPDConn struct {
	state  string
	pauses []bool
	closed int
}

func (f *fakeMPDConn) Status() (mpd.Attrs, error) { return mpd.Attrs{"state": f.state}, nil }

func (f *fakeMPDConn) Pause(pause bool) error {
	f.pauses = append(f.pauses, pause)
	return nil
}

func (f *fakeMPDConn) Close() error {
	f.closed++
	return nil
}

func TestMPD(t *testing.T) {
	conn := &fakeMPDConn{state: "play"}
	m := &MPD{Addr: "localhost:6600", dial: func(string) (MPDConn, error) { return conn, nil }}
	ctx := context.Background()

	if playing, err := m.Playing(ctx); err != nil || !playing {
		t.Fatalf("Playing = %t, %v; want true", playing, err)
	}
	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !reflect.DeepEqual(conn.pauses, []bool{true, false}) {
		t.Fatalf("pauses = %v", conn.pauses)
	}
	if conn.closed != 3 {
		t.Fatalf("closed = %d, want one close per operation", conn.closed)
	}

	down := &MPD{Addr: "nowhere:1", dial: func(string) (MPDConn, error) { return nil, errors.New("refused") }}
	if _, err := down.Playing(ctx); err == nil {
		t.Fatal("expected dial error")
	}
}
