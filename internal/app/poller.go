package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/smqueue/internal/watch"
)

const (
	defaultResyncInterval = 30 * time.Second
	maxBackoff            = 5 * time.Minute
)

// StartResync rereads every target at a fixed cadence in the background,
// backing off while reads keep failing. Watchers only react to writes, so
// this recovers a state file that was read mid-write and then left alone.
func StartResync(ctx context.Context, interval time.Duration, log zerolog.Logger, reloads ...watch.ReloadFunc) {
	if interval <= 0 {
		interval = defaultResyncInterval
	}
	go func() {
		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(calculateBackoff(failures, interval)):
			}
			if resync(reloads) {
				failures = 0
				continue
			}
			failures++
			log.Debug().Int("failures", failures).Msg("resync failed")
		}
	}()
}

// resync runs every reload and reports whether all of them succeeded.
func resync(reloads []watch.ReloadFunc) bool {
	ok := true
	for _, reload := range reloads {
		if err := reload(); err != nil {
			ok = false
		}
	}
	return ok
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
