package state

import (
	"fmt"
	"sync"
	"time"
)

// PlaybackState mirrors the second line of the daemon status file.
type PlaybackState int

const (
	Idle PlaybackState = iota
	Playing
	Paused
	Stopped
)

func (p PlaybackState) String() string {
	switch p {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	default:
		return "Idle"
	}
}

// ParsePlaybackState accepts exactly the tokens written by the daemon.
func ParsePlaybackState(token string) (PlaybackState, error) {
	switch token {
	case "Playing":
		return Playing, nil
	case "Paused":
		return Paused, nil
	case "Idle":
		return Idle, nil
	case "Stopped":
		return Stopped, nil
	default:
		return Idle, fmt.Errorf("unknown playback state %q", token)
	}
}

// QueueEntry is one line of the daemon queue file.
type QueueEntry struct {
	ID        uint64
	Priority  uint64
	EntryType string
	Location  string
}

// Snapshot represents the latest status and queue data available to the UI.
type Snapshot struct {
	PlaybackState       PlaybackState
	PlaybackTime        float64 // percent, 0-100
	HasStatus           bool
	Entries             []QueueEntry
	LastUpdated         time.Time
	LastError           error
	StatusFailures      int // status read failures since the last good status
	QueueFailures       int // queue read failures since the last good queue
	ConsecutiveFailures int // the larger of StatusFailures and QueueFailures
}

// IsDegraded returns true when either state file has failed to parse several
// times in a row.
func (s Snapshot) IsDegraded() bool {
	return s.StatusFailures >= 2 || s.QueueFailures >= 2
}

// Source names the state file a failure came from.
type Source int

const (
	StatusSource Source = iota
	QueueSource
)

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	changed  Notifier
}

// SetStatus replaces the playback fields and signals a change.
func (s *Store) SetStatus(playback PlaybackState, percent float64) {
	s.mu.Lock()
	s.snapshot.PlaybackState = playback
	s.snapshot.PlaybackTime = percent
	s.snapshot.HasStatus = true
	s.markGood(StatusSource)
	s.mu.Unlock()

	s.changed.Notify()
}

// SetQueue replaces the entry list and signals a change.
func (s *Store) SetQueue(entries []QueueEntry) {
	s.mu.Lock()
	s.snapshot.Entries = cloneEntries(entries)
	s.markGood(QueueSource)
	s.mu.Unlock()

	s.changed.Notify()
}

// RecordFailure keeps the previous data but counts a failure against src and
// records err. It signals a change so readers can surface the failure state.
func (s *Store) RecordFailure(src Source, err error) {
	s.mu.Lock()
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
	if src == QueueSource {
		s.snapshot.QueueFailures++
	} else {
		s.snapshot.StatusFailures++
	}
	s.updateFailures()
	s.mu.Unlock()

	s.changed.Notify()
}

// markGood resets the counter for src only; a good status read says nothing
// about the queue file.
func (s *Store) markGood(src Source) {
	if src == QueueSource {
		s.snapshot.QueueFailures = 0
	} else {
		s.snapshot.StatusFailures = 0
	}
	s.snapshot.LastUpdated = time.Now()
	s.updateFailures()
	if s.snapshot.ConsecutiveFailures == 0 {
		s.snapshot.LastError = nil
	}
}

func (s *Store) updateFailures() {
	s.snapshot.ConsecutiveFailures = max(s.snapshot.StatusFailures, s.snapshot.QueueFailures)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = cloneEntries(s.snapshot.Entries)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// EntryAt returns the entry currently at index, if the list still has one.
func (s *Store) EntryAt(index int) (QueueEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.snapshot.Entries) {
		return QueueEntry{}, false
	}
	return s.snapshot.Entries[index], true
}

// Len returns the current number of queue entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot.Entries)
}

// Changed receives a value after at least one update or recorded failure
// since the last receive.
func (s *Store) Changed() <-chan struct{} {
	return s.changed.C()
}

// Notifier exposes the store's change signal.
func (s *Store) Notifier() *Notifier {
	return &s.changed
}

func cloneEntries(entries []QueueEntry) []QueueEntry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]QueueEntry, len(entries))
	copy(dup, entries)
	return dup
}
