package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/watch"
)

func TestCalculateBackoff(t *testing.T) {
	base := 30 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 30 * time.Second},
		{"negative failures", -1, 30 * time.Second},
		{"one failure", 1, time.Minute},
		{"two failures", 2, 2 * time.Minute},
		{"three failures", 3, 4 * time.Minute},
		{"four failures capped", 4, maxBackoff},
		{"many failures capped", 40, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, base)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestResyncRestoresStateAfterBadRead(t *testing.T) {
	dir := t.TempDir()
	status := filepath.Join(dir, "status")
	if err := os.WriteFile(status, []byte("garbage\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &state.Store{}
	reload := watch.StatusReloader(store, status)
	if resync([]watch.ReloadFunc{reload}) {
		t.Fatalf("resync succeeded on a malformed file")
	}
	if got := store.Snapshot().StatusFailures; got != 1 {
		t.Fatalf("StatusFailures = %d, want 1", got)
	}

	if err := os.WriteFile(status, []byte("42.50\nPlaying\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !resync([]watch.ReloadFunc{reload}) {
		t.Fatalf("resync failed on a valid file")
	}
	snap := store.Snapshot()
	if snap.PlaybackState != state.Playing || snap.PlaybackTime != 42.5 {
		t.Fatalf("snapshot = %v %v, want Playing 42.5", snap.PlaybackState, snap.PlaybackTime)
	}
}

func TestResyncRunsEveryReload(t *testing.T) {
	calls := 0
	failing := func() error { calls++; return errors.New("boom") }
	passing := func() error { calls++; return nil }
	if resync([]watch.ReloadFunc{failing, passing}) {
		t.Fatalf("resync reported success with a failing reload")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
