package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/wire"
)

// maxFrameSize bounds a single request.
const maxFrameSize = 64 * 1024

// Handler receives decoded frames.
type Handler interface {
	Submit(ctx context.Context, msg wire.Message) error
}

// Server accepts one frame per unix socket connection.
type Server struct {
	Path    string
	Handler Handler
	Log     zerolog.Logger

	mu    sync.Mutex
	bound net.Listener
}

// NewServer returns a server listening on path.
func NewServer(path string, h Handler, log zerolog.Logger) *Server {
	if path == "" {
		path = wire.DefaultSocketPath
	}
	return &Server{Path: path, Handler: h, Log: log.With().Str("component", "ipc").Logger()}
}

// Listen removes a stale socket file and binds the socket.
func (s *Server) Listen() (net.Listener, error) {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", s.Path, err)
	}
	ln, err := net.Listen("unix", s.Path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.Path, err)
	}
	return ln, nil
}

// Bind binds the socket ahead of Serve so startup can fail fast.
func (s *Server) Bind() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.bound = ln
	s.mu.Unlock()
	return nil
}

// Serve accepts connections until ctx is done. It uses the listener from
// Bind on its first run and rebinds after a restart.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.bound
	s.bound = nil
	s.mu.Unlock()
	if ln == nil {
		var err error
		if ln, err = s.Listen(); err != nil {
			return err
		}
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	defer os.Remove(s.Path)
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	s.Log.Info().Str("socket", s.Path).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	frame, err := io.ReadAll(io.LimitReader(conn, maxFrameSize+1))
	if err != nil {
		s.Log.Warn().Err(err).Msg("read frame")
		return
	}
	if len(frame) > maxFrameSize {
		s.Log.Warn().Int("limit", maxFrameSize).Msg("frame too large, dropped")
		return
	}
	msg, err := wire.Decode(frame)
	if err != nil {
		s.Log.Warn().Err(err).Int("bytes", len(frame)).Msg("dropping frame")
		return
	}
	s.Log.Debug().Stringer("kind", msg.Kind).Uint64("priority", msg.Priority).Msg("frame received")
	if err := s.Handler.Submit(ctx, msg); err != nil {
		s.Log.Warn().Err(err).Msg("submit frame")
	}
}

func (s *Server) String() string { return "ipc-server" }
