package state

import (
	"errors"
	"testing"
	"time"
)

func TestStore_SetQueueAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.SetQueue([]QueueEntry{{ID: 7, Priority: 10}, {ID: 3, Priority: 20}})

	snap := s.Snapshot()
	if len(snap.Entries) != 2 || snap.Entries[0].ID != 7 || snap.Entries[1].ID != 3 {
		t.Fatalf("snapshot entries = %#v, want ids [7 3]", snap.Entries)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Entries[0].ID = 999
	if got := s.Snapshot().Entries[0].ID; got != 7 {
		t.Fatalf("Snapshot should clone entries; got id %d want 7", got)
	}
}

func TestStore_RecordFailureKeepsPreviousData(t *testing.T) {
	var s Store

	s.SetStatus(Playing, 42.5)
	s.SetQueue([]QueueEntry{{ID: 1}})
	<-s.Changed()

	s.RecordFailure(StatusSource, errors.New("boom"))
	s.RecordFailure(StatusSource, errors.New("boom again"))

	snap := s.Snapshot()
	if snap.PlaybackState != Playing || snap.PlaybackTime != 42.5 {
		t.Fatalf("status changed on failure: %v %v", snap.PlaybackState, snap.PlaybackTime)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].ID != 1 {
		t.Fatalf("queue changed on failure: %#v", snap.Entries)
	}
	if snap.LastError == nil || snap.StatusFailures != 2 || snap.ConsecutiveFailures != 2 || !snap.IsDegraded() {
		t.Fatalf("failure not recorded: err=%v failures=%d", snap.LastError, snap.ConsecutiveFailures)
	}

	select {
	case <-s.Changed():
	default:
		t.Fatal("RecordFailure should notify so readers see the failure state")
	}

	s.SetStatus(Paused, 1)
	snap = s.Snapshot()
	if snap.LastError != nil || snap.ConsecutiveFailures != 0 || snap.IsDegraded() {
		t.Fatalf("success should clear failure state, got err=%v failures=%d", snap.LastError, snap.ConsecutiveFailures)
	}
}

func TestStore_FailuresCountedPerSource(t *testing.T) {
	tests := []struct {
		name     string
		steps    func(s *Store)
		status   int
		queue    int
		degraded bool
	}{
		{
			name: "queue failures survive good status reads",
			steps: func(s *Store) {
				s.RecordFailure(QueueSource, errors.New("bad queue"))
				s.SetStatus(Playing, 10)
				s.RecordFailure(QueueSource, errors.New("bad queue"))
				s.SetStatus(Playing, 11)
			},
			queue:    2,
			degraded: true,
		},
		{
			name: "status failures survive good queue reads",
			steps: func(s *Store) {
				s.RecordFailure(StatusSource, errors.New("bad status"))
				s.SetQueue([]QueueEntry{{ID: 1}})
				s.RecordFailure(StatusSource, errors.New("bad status"))
				s.SetQueue([]QueueEntry{{ID: 2}})
			},
			status:   2,
			degraded: true,
		},
		{
			name: "one failure each is not degraded",
			steps: func(s *Store) {
				s.RecordFailure(StatusSource, errors.New("bad status"))
				s.RecordFailure(QueueSource, errors.New("bad queue"))
			},
			status: 1,
			queue:  1,
		},
		{
			name: "good queue read clears only the queue count",
			steps: func(s *Store) {
				s.RecordFailure(StatusSource, errors.New("bad status"))
				s.RecordFailure(QueueSource, errors.New("bad queue"))
				s.RecordFailure(QueueSource, errors.New("bad queue"))
				s.SetQueue(nil)
			},
			status: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Store
			tt.steps(&s)
			snap := s.Snapshot()
			if snap.StatusFailures != tt.status || snap.QueueFailures != tt.queue {
				t.Fatalf("failures = status %d queue %d, want status %d queue %d",
					snap.StatusFailures, snap.QueueFailures, tt.status, tt.queue)
			}
			if snap.IsDegraded() != tt.degraded {
				t.Fatalf("IsDegraded() = %v, want %v", snap.IsDegraded(), tt.degraded)
			}
			if want := max(tt.status, tt.queue); snap.ConsecutiveFailures != want {
				t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, want)
			}
			if (snap.LastError != nil) != (snap.ConsecutiveFailures > 0) {
				t.Fatalf("LastError = %v with %d failures outstanding", snap.LastError, snap.ConsecutiveFailures)
			}
		})
	}
}

func TestStore_EntryAt(t *testing.T) {
	var s Store
	s.SetQueue([]QueueEntry{{ID: 1}, {ID: 2}})

	if e, ok := s.EntryAt(1); !ok || e.ID != 2 {
		t.Fatalf("EntryAt(1) = %v, %v", e, ok)
	}
	for _, idx := range []int{-1, 2} {
		if _, ok := s.EntryAt(idx); ok {
			t.Fatalf("EntryAt(%d) should be out of range", idx)
		}
	}

	s.SetQueue(nil)
	if _, ok := s.EntryAt(0); ok {
		t.Fatal("EntryAt after replacement with empty list should miss")
	}
}

func TestNotifier_Coalesces(t *testing.T) {
	n := NewNotifier()
	for i := 0; i < 5; i++ {
		n.Notify()
	}
	if !n.Pending() {
		t.Fatal("Pending = false after Notify")
	}
	if n.Pending() {
		t.Fatal("notifications should collapse into one")
	}
}

func TestNotifier_ZeroValue(t *testing.T) {
	var n Notifier
	n.Notify()
	select {
	case <-n.C():
	default:
		t.Fatal("zero-value notifier did not deliver")
	}
}

func TestParsePlaybackState(t *testing.T) {
	for _, want := range []PlaybackState{Playing, Paused, Idle, Stopped} {
		got, err := ParsePlaybackState(want.String())
		if err != nil || got != want {
			t.Fatalf("ParsePlaybackState(%q) = %v, %v", want.String(), got, err)
		}
	}
	for _, bad := range []string{"", "playing", "Buffering"} {
		if _, err := ParsePlaybackState(bad); err == nil {
			t.Fatalf("ParsePlaybackState(%q) should fail", bad)
		}
	}
}

func TestHistoryStore(t *testing.T) {
	var h HistoryStore
	h.SetPage([]HistoryEntry{{Name: "b"}, {Name: "a"}}, 100, 100)

	page := h.Page()
	if len(page.Entries) != 2 || page.Offset != 100 || page.Count != 100 {
		t.Fatalf("Page = %#v", page)
	}
	if e, ok := h.EntryAt(0); !ok || e.Name != "b" {
		t.Fatalf("EntryAt(0) = %v, %v", e, ok)
	}

	select {
	case <-h.Changed():
	default:
		t.Fatal("SetPage should notify")
	}

	h.RecordFailure(errors.New("bad timestamp"))
	page = h.Page()
	if len(page.Entries) != 2 || page.LastError == nil || page.ConsecutiveFailures != 1 {
		t.Fatalf("RecordFailure should keep entries and record error: %#v", page)
	}
	select {
	case <-h.Changed():
	default:
		t.Fatal("RecordFailure should notify")
	}
	if page.IsDegraded() {
		t.Fatal("one failure should not mark history degraded")
	}
	h.RecordFailure(errors.New("bad timestamp"))
	if !h.Page().IsDegraded() {
		t.Fatal("two failures should mark history degraded")
	}
}
