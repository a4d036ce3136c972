package peer

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
)

// Player is another program that may be playing audio.
type Player interface {
	Name() string
	Playing(ctx context.Context) (bool, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Coordinator pauses playing peers and later resumes only the ones it paused.
type Coordinator struct {
	players []Player
	log     zerolog.Logger

	mu     sync.Mutex
	paused []Player
}

// NewCoordinator returns a coordinator over players.
func NewCoordinator(log zerolog.Logger, players ...Player) *Coordinator {
	return &Coordinator{
		players: players,
		log:     log.With().Str("component", "peer").Logger(),
	}
}

// PauseAll pauses every player that reports it is playing. Errors are logged;
// a peer that cannot be queried is left alone.
func (c *Coordinator) PauseAll(ctx context.Context) {
	for _, p := range c.players {
		playing, err := p.Playing(ctx)
		if err != nil {
			c.log.Debug().Err(err).Str("peer", p.Name()).Msg("peer status unavailable")
			continue
		}
		if !playing {
			continue
		}
		if err := p.Pause(ctx); err != nil {
			c.log.Warn().Err(err).Str("peer", p.Name()).Msg("pause peer failed")
			continue
		}
		c.log.Info().Str("peer", p.Name()).Msg("paused peer")
		c.mu.Lock()
		if !lo.Contains(c.paused, p) {
			c.paused = append(c.paused, p)
		}
		c.mu.Unlock()
	}
}

// ResumePaused resumes the players paused by PauseAll and forgets them.
func (c *Coordinator) ResumePaused(ctx context.Context) {
	c.mu.Lock()
	paused := c.paused
	c.paused = nil
	c.mu.Unlock()

	for _, p := range paused {
		if err := p.Resume(ctx); err != nil {
			c.log.Warn().Err(err).Str("peer", p.Name()).Msg("resume peer failed")
			continue
		}
		c.log.Info().Str("peer", p.Name()).Msg("resumed peer")
	}
}

// Paused returns the names of the peers currently held paused.
func (c *Coordinator) Paused() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Map(c.paused, func(p Player, _ int) string { return p.Name() })
}

// ProcessLookup reports whether a process with the given name is running.
type ProcessLookup func(ctx context.Context, name string) (bool, error)

// ProcessRunning scans the process table for an exact, case-insensitive
// name match.
func ProcessRunning(ctx context.Context, name string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(pname, name) {
			return true, nil
		}
	}
	return false, nil
}
