package state

import (
	"sync"
	"time"
)

// HistoryEntry is one played item, newest first when listed.
type HistoryEntry struct {
	Played    time.Time
	Timestamp string // Played formatted for display
	Name      string
	Location  string
}

// HistoryPage is a copy of the currently loaded history window.
type HistoryPage struct {
	Entries             []HistoryEntry
	Offset              int // physical lines skipped from the end of the file
	Count               int // page size requested
	LastError           error
	ConsecutiveFailures int
}

// HistoryStore holds the page of history the UI is looking at.
type HistoryStore struct {
	mu      sync.RWMutex
	page    HistoryPage
	changed Notifier
}

// SetPage replaces the loaded history window and signals a change.
func (h *HistoryStore) SetPage(entries []HistoryEntry, offset, count int) {
	h.mu.Lock()
	h.page.Entries = cloneHistory(entries)
	h.page.Offset = offset
	h.page.Count = count
	h.page.LastError = nil
	h.page.ConsecutiveFailures = 0
	h.mu.Unlock()

	h.changed.Notify()
}

// RecordFailure keeps the loaded entries but records err and signals a change.
func (h *HistoryStore) RecordFailure(err error) {
	h.mu.Lock()
	h.page.LastError = err
	h.page.ConsecutiveFailures++
	h.mu.Unlock()

	h.changed.Notify()
}

// IsDegraded returns true when the history file has failed to load several
// times in a row.
func (p HistoryPage) IsDegraded() bool {
	return p.ConsecutiveFailures >= 2
}

// Page returns a copy of the loaded window.
func (h *HistoryStore) Page() HistoryPage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	page := h.page
	page.Entries = cloneHistory(h.page.Entries)
	return page
}

// EntryAt returns the history entry at index, if present.
func (h *HistoryStore) EntryAt(index int) (HistoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if index < 0 || index >= len(h.page.Entries) {
		return HistoryEntry{}, false
	}
	return h.page.Entries[index], true
}

// Changed receives a value after at least one successful update.
func (h *HistoryStore) Changed() <-chan struct{} {
	return h.changed.C()
}

func cloneHistory(entries []HistoryEntry) []HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]HistoryEntry, len(entries))
	copy(dup, entries)
	return dup
}
