// Package queue sends entry and control requests to the queue daemon.
package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/five82/smqueue/internal/mediainfo"
	"github.com/five82/smqueue/internal/wire"
)

// Options configure a Client.
type Options struct {
	Sender   wire.Sender
	Provider mediainfo.Provider // nil disables remote resolution
	Socket   string             // reported in errors
	Logger   zerolog.Logger

	// BreakerTimeout is how long the daemon is considered unreachable after
	// repeated failures. Zero uses 10s.
	BreakerTimeout time.Duration
}

// Client classifies user input and sends the resulting frames.
type Client struct {
	sender   wire.Sender
	provider mediainfo.Provider
	socket   string
	log      zerolog.Logger
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

const breakerTripFailures = 3

// New returns a client. Sender defaults to a unix socket sender on Socket.
func New(opts Options) *Client {
	if opts.Socket == "" {
		opts.Socket = wire.DefaultSocketPath
	}
	if opts.Sender == nil {
		opts.Sender = wire.NewUnixSender(opts.Socket)
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 10 * time.Second
	}
	c := &Client{
		sender:   opts.Sender,
		provider: opts.Provider,
		socket:   opts.Socket,
		log:      opts.Logger.With().Str("component", "queue").Logger(),
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "daemon-ipc",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("daemon connection state changed")
		},
	})
	return c
}

// Unreachable reports whether recent sends failed often enough that the
// daemon is treated as down.
func (c *Client) Unreachable() bool {
	return c.breaker.State() == gobreaker.StateOpen
}

func (c *Client) send(ctx context.Context, kind wire.MessageKind, priority uint64, payload []byte) error {
	frame := wire.Encode(kind, priority, payload)
	c.log.Trace().Hex("header", frame[:wire.HeaderSize]).Int("payload_len", len(payload)).Msg("send frame")
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.sender.Send(ctx, frame)
	})
	if err != nil {
		return &TransportError{Socket: c.socket, Err: err}
	}
	return nil
}

// AddEntry classifies input and enqueues it at priority. raw forces the
// input to be sent unchanged as a file stream. On success it returns a
// human-readable summary of what was added.
//
// Playlists are sent one entry at a time. If a send fails part way through,
// the entries already sent stay queued and the returned summary lists them
// alongside the error.
func (c *Client) AddEntry(ctx context.Context, input string, priority uint64, raw bool) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &UnrecognizedInputError{Input: input, Err: errors.New("empty input")}
	}

	if raw {
		if err := c.send(ctx, wire.EntryRequest, priority, wire.EntryPayload(wire.FileStream, input)); err != nil {
			return "", err
		}
		return "Added stream: " + input, nil
	}

	if info, err := os.Stat(input); err == nil && (info.Mode().IsRegular() || info.IsDir()) {
		path, err := canonicalize(input)
		if err != nil {
			return "", &PathResolutionError{Path: input, Err: err}
		}
		if err := c.send(ctx, wire.EntryRequest, priority, wire.EntryPayload(wire.LocalMedia, path)); err != nil {
			return "", err
		}
		return "Added: " + path, nil
	}

	if c.provider == nil {
		return "", &UnrecognizedInputError{Input: input, Err: errors.New("no media provider configured")}
	}
	result, err := c.provider.Resolve(ctx, input)
	if err != nil {
		return "", &UnrecognizedInputError{Input: input, Err: err}
	}
	if len(result.Items) == 0 {
		return "", &UnrecognizedInputError{Input: input, Err: mediainfo.ErrNotMedia}
	}

	var added []mediainfo.Item
	for _, item := range result.Items {
		if err := c.send(ctx, wire.EntryRequest, priority, wire.EntryPayload(wire.YoutubeMedia, item.Location())); err != nil {
			return feedback(result, added), err
		}
		added = append(added, item)
	}
	return feedback(result, added), nil
}

func feedback(result mediainfo.Result, added []mediainfo.Item) string {
	if len(added) == 0 {
		return ""
	}
	titles := lo.Map(added, func(item mediainfo.Item, _ int) string {
		return item.DisplayTitle()
	})
	if !result.Playlist {
		return "Added: " + titles[0]
	}
	name := result.Title
	if name == "" {
		name = "playlist"
	}
	return fmt.Sprintf("Added %d of %d from %s: %s", len(added), len(result.Items), name, strings.Join(titles, ", "))
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Control sends a single control request. id is used only by
// RemoveFromQueue and PromoteEntry.
func (c *Client) Control(ctx context.Context, cmd wire.ControlCommand, id uint64) error {
	return c.send(ctx, wire.ControlRequest, 0, wire.ControlPayload(cmd, id))
}

// Start resumes or begins playback.
func (c *Client) Start(ctx context.Context) error { return c.Control(ctx, wire.StartPlayback, 0) }

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error { return c.Control(ctx, wire.PausePlayback, 0) }

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error { return c.Control(ctx, wire.StopPlayback, 0) }

// Skip stops the current item and plays the next one.
func (c *Client) Skip(ctx context.Context) error { return c.Control(ctx, wire.SkipAndPlay, 0) }

// Clear empties the queue.
func (c *Client) Clear(ctx context.Context) error { return c.Control(ctx, wire.ClearQueue, 0) }

// Promote moves the entry with id to the head of the queue.
func (c *Client) Promote(ctx context.Context, id uint64) error {
	return c.Control(ctx, wire.PromoteEntry, id)
}

// Remove deletes the entry with id from the queue.
func (c *Client) Remove(ctx context.Context, id uint64) error {
	return c.Control(ctx, wire.RemoveFromQueue, id)
}
