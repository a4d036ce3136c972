package wire

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/media_queue.sock"

const defaultDialTimeout = 2 * time.Second

// Sender delivers one frame to the daemon.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

// UnixSender opens a fresh unix-socket connection per frame and closes it
// after writing. Nothing is read back.
type UnixSender struct {
	Path    string
	Timeout time.Duration
}

var _ Sender = (*UnixSender)(nil)

// NewUnixSender returns a sender for the socket at path.
func NewUnixSender(path string) *UnixSender {
	if path == "" {
		path = DefaultSocketPath
	}
	return &UnixSender{Path: path, Timeout: defaultDialTimeout}
}

// Send connects, writes frame and closes.
func (s *UnixSender) Send(ctx context.Context, frame []byte) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", s.Path)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.Path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
