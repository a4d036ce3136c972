package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// SupervisorConfig tunes restart behavior.
type SupervisorConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultSupervisorConfig mirrors suture's defaults with a shorter shutdown.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  5 * time.Second,
	}
}

type serviceFunc struct {
	name  string
	serve func(ctx context.Context) error
}

func (s serviceFunc) Serve(ctx context.Context) error { return s.serve(ctx) }
func (s serviceFunc) String() string                  { return s.name }

// NewSupervisor builds the daemon's service tree: the IPC server, the
// playback loop, the player process when it is supervised, and peer
// coordination when peers are configured.
func NewSupervisor(d *Daemon, srv *Server, player suture.Service, cfg SupervisorConfig, log zerolog.Logger) *suture.Supervisor {
	root := suture.New("smqueue", suture.Spec{
		EventHook:        eventHook(log),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})
	if player != nil {
		root.Add(player)
	}
	root.Add(d)
	if d.peers != nil {
		root.Add(serviceFunc{name: "peers", serve: d.servePeers})
	}
	if srv != nil {
		root.Add(srv)
	}
	return root
}

func eventHook(log zerolog.Logger) suture.EventHook {
	l := log.With().Str("component", "supervisor").Logger()
	return func(e suture.Event) {
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
			l.Warn().Fields(e.Map()).Msg(e.String())
		case suture.EventTypeBackoff:
			l.Warn().Msg(e.String())
		default:
			l.Info().Msg(e.String())
		}
	}
}
