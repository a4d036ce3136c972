package peer

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisPlayer    = "org.mpris.MediaPlayer2.Player"
	spotifyService = "org.mpris.MediaPlayer2.spotify"
)

// BusObject is the subset of a dbus object used for MPRIS calls.
type BusObject interface {
	GetProperty(p string) (dbus.Variant, error)
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// MPRIS controls a media player that exposes org.mpris.MediaPlayer2.
type MPRIS struct {
	name    string
	process string
	lookup  ProcessLookup
	object  func() (BusObject, error)
}

// NewSpotify returns the MPRIS peer for the Spotify desktop client.
func NewSpotify() *MPRIS {
	return &MPRIS{
		name:    "spotify",
		process: "spotify",
		lookup:  ProcessRunning,
		object:  sessionObject(spotifyService),
	}
}

func sessionObject(service string) func() (BusObject, error) {
	return func() (BusObject, error) {
		// SessionBus is shared across the process and must not be closed.
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect to session bus: %w", err)
		}
		return conn.Object(service, mprisPath), nil
	}
}

func (m *MPRIS) Name() string { return m.name }

// Playing reports whether PlaybackStatus is "Playing". A player whose
// process is not running is never queried.
func (m *MPRIS) Playing(ctx context.Context) (bool, error) {
	if m.lookup != nil && m.process != "" {
		running, err := m.lookup(ctx, m.process)
		if err != nil {
			return false, fmt.Errorf("list processes: %w", err)
		}
		if !running {
			return false, nil
		}
	}
	obj, err := m.object()
	if err != nil {
		return false, err
	}
	v, err := obj.GetProperty(mprisPlayer + ".PlaybackStatus")
	if err != nil {
		return false, fmt.Errorf("get %s playback status: %w", m.name, err)
	}
	status, ok := v.Value().(string)
	if !ok {
		return false, fmt.Errorf("unexpected %s playback status %v", m.name, v)
	}
	return status == "Playing", nil
}

func (m *MPRIS) Pause(ctx context.Context) error {
	return m.call(ctx, "Pause")
}

func (m *MPRIS) Resume(ctx context.Context) error {
	return m.call(ctx, "Play")
}

func (m *MPRIS) call(ctx context.Context, method string) error {
	obj, err := m.object()
	if err != nil {
		return err
	}
	if err := obj.CallWithContext(ctx, mprisPlayer+"."+method, 0).Err; err != nil {
		return fmt.Errorf("%s %s: %w", m.name, method, err)
	}
	return nil
}
