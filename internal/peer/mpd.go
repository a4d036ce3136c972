package peer

import (
	"context"
	"fmt"

	"github.com/fhs/gompd/v2/mpd"
)

// MPDConn is the subset of an MPD client connection used here.
type MPDConn interface {
	Status() (mpd.Attrs, error)
	Pause(pause bool) error
	Close() error
}

// MPD controls a Music Player Daemon over TCP.
type MPD struct {
	Addr string
	dial func(addr string) (MPDConn, error)
}

// NewMPD returns an MPD peer for addr ("host:port").
func NewMPD(addr string) *MPD {
	return &MPD{Addr: addr, dial: dialMPD}
}

func dialMPD(addr string) (MPDConn, error) {
	return mpd.Dial("tcp", addr)
}

func (m *MPD) Name() string { return "mpd" }

func (m *MPD) do(fn func(c MPDConn) error) error {
	c, err := m.dial(m.Addr)
	if err != nil {
		return fmt.Errorf("dial mpd %s: %w", m.Addr, err)
	}
	defer c.Close()
	return fn(c)
}

// Playing reports whether MPD's state is "play".
func (m *MPD) Playing(ctx context.Context) (bool, error) {
	var playing bool
	err := m.do(func(c MPDConn) error {
		attrs, err := c.Status()
		if err != nil {
			return fmt.Errorf("mpd status: %w", err)
		}
		playing = attrs["state"] == "play"
		return nil
	})
	return playing, err
}

func (m *MPD) Pause(ctx context.Context) error {
	return m.do(func(c MPDConn) error { return c.Pause(true) })
}

// Resume unpauses the current song rather than restarting the playlist.
func (m *MPD) Resume(ctx context.Context) error {
	return m.do(func(c MPDConn) error { return c.Pause(false) })
}
