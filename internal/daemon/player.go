package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// PlayerEventKind identifies what changed in the player.
type PlayerEventKind int

const (
	EventProgress PlayerEventKind = iota
	EventPause
	EventIdle
)

// PlayerEvent is a property change reported by the player.
type PlayerEvent struct {
	Kind    PlayerEventKind
	Percent float64
	Paused  bool
	Idle    bool
}

// Player plays one file at a time. Events stays open for the lifetime of
// the player.
type Player interface {
	Load(ctx context.Context, path string) error
	SetPause(ctx context.Context, paused bool) error
	Stop(ctx context.Context) error
	Events() <-chan PlayerEvent
}

const (
	observePercent = 1
	observePause   = 2
	observeIdle    = 3
)

// MPV drives an mpv process through its JSON IPC socket.
type MPV struct {
	Command    string
	SocketPath string
	Log        zerolog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	conn   net.Conn
	nextID atomic.Int64
	events chan PlayerEvent
}

// NewMPV returns a player that starts command with its IPC server on socketPath.
func NewMPV(command, socketPath string, log zerolog.Logger) *MPV {
	if command == "" {
		command = "mpv"
	}
	return &MPV{
		Command:    command,
		SocketPath: socketPath,
		Log:        log.With().Str("component", "mpv").Logger(),
		events:     make(chan PlayerEvent, 64),
	}
}

type mpvRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type mpvMessage struct {
	Event     string          `json:"event"`
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Reason    string          `json:"reason"`
}

// Start launches mpv in idle mode, connects to its socket and subscribes to
// the properties the daemon follows. The process exits when ctx is done.
func (m *MPV) Start(ctx context.Context) error {
	_ = os.Remove(m.SocketPath)
	cmd := exec.CommandContext(ctx, m.Command,
		"--idle=yes",
		"--no-terminal",
		"--input-ipc-server="+m.SocketPath,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.Command, err)
	}

	conn, err := dialRetry(ctx, m.SocketPath, 5*time.Second)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("connect to mpv: %w", err)
	}

	m.mu.Lock()
	m.cmd = cmd
	m.conn = conn
	m.mu.Unlock()

	go m.readLoop(ctx, conn)

	if err := m.subscribe(); err != nil {
		m.abort()
		return err
	}
	m.Log.Info().Str("socket", m.SocketPath).Msg("mpv started")
	return nil
}

// subscribe asks mpv to report the properties the daemon follows.
func (m *MPV) subscribe() error {
	for id, name := range map[int]string{observePercent: "percent-pos", observePause: "pause", observeIdle: "idle-active"} {
		if err := m.send("observe_property", id, name); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}
	return nil
}

// abort tears down a half-started player: the connection, the socket file
// and the process.
func (m *MPV) abort() {
	m.mu.Lock()
	cmd := m.cmd
	m.cmd = nil
	m.mu.Unlock()

	_ = m.Close()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// Serve runs mpv until ctx is done or the process exits, so a supervisor
// can restart it.
func (m *MPV) Serve(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Close()

	m.mu.Lock()
	cmd := m.cmd
	m.mu.Unlock()
	err := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// A player that went away mid-file leaves the daemon waiting for idle.
	select {
	case m.events <- PlayerEvent{Kind: EventIdle, Idle: true}:
	default:
	}
	if err == nil {
		return errors.New("mpv exited")
	}
	return fmt.Errorf("mpv exited: %w", err)
}

func (m *MPV) String() string { return "mpv" }

// Close disconnects and removes the IPC socket.
func (m *MPV) Close() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	_ = os.Remove(m.SocketPath)
	return nil
}

func dialRetry(ctx context.Context, path string, limit time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(limit)
	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (m *MPV) Load(ctx context.Context, path string) error {
	if err := m.send("loadfile", path, "replace"); err != nil {
		return err
	}
	return m.send("set_property", "pause", false)
}

func (m *MPV) SetPause(ctx context.Context, paused bool) error {
	return m.send("set_property", "pause", paused)
}

func (m *MPV) Stop(ctx context.Context) error {
	return m.send("stop")
}

func (m *MPV) Events() <-chan PlayerEvent {
	return m.events
}

func (m *MPV) send(args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return errors.New("mpv not connected")
	}
	line, err := json.Marshal(mpvRequest{Command: args, RequestID: m.nextID.Add(1)})
	if err != nil {
		return fmt.Errorf("encode mpv command: %w", err)
	}
	if _, err := m.conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write mpv command %v: %w", args[0], err)
	}
	return nil
}

func (m *MPV) readLoop(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.Log.Debug().Err(err).Msg("skip undecodable mpv message")
			continue
		}
		if msg.Event == "" {
			if msg.Error != "" && msg.Error != "success" {
				m.Log.Warn().Int64("request_id", msg.RequestID).Str("error", msg.Error).Msg("mpv command failed")
			}
			continue
		}
		if ev, ok := translateEvent(msg); ok {
			select {
			case m.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		m.Log.Debug().Err(err).Msg("mpv connection closed")
	}
}

// translateEvent maps an mpv property-change message to a PlayerEvent.
func translateEvent(msg mpvMessage) (PlayerEvent, bool) {
	if msg.Event != "property-change" {
		return PlayerEvent{}, false
	}
	switch msg.ID {
	case observePercent:
		var pct float64
		if len(msg.Data) == 0 || json.Unmarshal(msg.Data, &pct) != nil {
			return PlayerEvent{}, false
		}
		return PlayerEvent{Kind: EventProgress, Percent: math.Max(0, math.Min(100, pct))}, true
	case observePause:
		var paused bool
		if json.Unmarshal(msg.Data, &paused) != nil {
			return PlayerEvent{}, false
		}
		return PlayerEvent{Kind: EventPause, Paused: paused}, true
	case observeIdle:
		var idle bool
		if json.Unmarshal(msg.Data, &idle) != nil {
			return PlayerEvent{}, false
		}
		return PlayerEvent{Kind: EventIdle, Idle: idle}, true
	}
	return PlayerEvent{}, false
}
