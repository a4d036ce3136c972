package daemon

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/wire"
)

// Entry is one queued item.
type Entry struct {
	ID       uint64
	Priority uint64
	Type     wire.EntryType
	Location string
}

// QueueEntry converts e to the shape the state files carry.
func (e Entry) QueueEntry() state.QueueEntry {
	return state.QueueEntry{ID: e.ID, Priority: e.Priority, EntryType: e.Type.String(), Location: e.Location}
}

// Queue orders entries by priority descending, then id ascending.
type Queue struct {
	mu      sync.Mutex
	nextID  uint64
	entries []Entry
}

// NewQueue returns an empty queue whose first id is 1.
func NewQueue() *Queue {
	return &Queue{nextID: 1}
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Add inserts a new entry and returns it with its assigned id.
func (q *Queue) Add(priority uint64, t wire.EntryType, location string) Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.nextID == 0 {
		q.nextID = 1
	}
	e := Entry{ID: q.nextID, Priority: priority, Type: t, Location: location}
	q.nextID++
	q.entries = append(q.entries, e)
	slices.SortStableFunc(q.entries, compareEntries)
	return e
}

// Pop removes and returns the head entry.
func (q *Queue) Pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

// Remove deletes the entry with id and reports whether it existed.
func (q *Queue) Remove(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	before := len(q.entries)
	q.entries = lo.Reject(q.entries, func(e Entry, _ int) bool { return e.ID == id })
	return len(q.entries) != before
}

// Promote moves the entry with id to the head by giving it a priority one
// above the current head. Promoting the head is a no-op.
func (q *Queue) Promote(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := slices.IndexFunc(q.entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	if i == 0 {
		return true
	}
	q.entries[i].Priority = q.entries[0].Priority + 1
	slices.SortStableFunc(q.entries, compareEntries)
	return true
}

// Clear empties the queue. Ids keep increasing.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}

// Entries returns a copy of the queue in play order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.entries)
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
