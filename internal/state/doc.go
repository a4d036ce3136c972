// Package state holds the in-memory snapshots shared between the state-file
// watchers and the UI.
//
// # Overview
//
// Watchers parse the daemon's status, queue and history files and publish the
// result into a Store or HistoryStore. The UI reads clones of that data on its
// own schedule. The watcher goroutine is the only writer; readers never hold
// the lock across rendering or I/O.
//
//	Watcher goroutine:              UI goroutine:
//	┌──────────────────┐           ┌──────────────────┐
//	│ parse file       │           │ <-store.Changed()│
//	│      ↓           │           │      ↓           │
//	│ store.SetQueue() │──(mutex)─→│ store.Snapshot() │
//	│      ↓           │           │      ↓           │
//	│ notify           │           │  render          │
//	└──────────────────┘           └──────────────────┘
//
// # Update Semantics
//
// Every successful parse replaces the whole field set it covers; entries are
// never patched in place. A failed parse goes through RecordFailure, which
// keeps the last good data and counts the failure against its file:
//
//	store.SetQueue(entries)                     // replace entries, reset queue count, notify
//	store.RecordFailure(state.QueueSource, err) // keep entries, count failure, notify
//
// Status and queue failures are counted separately, so a good status read
// does not hide a queue file that keeps failing. Failures notify too; the UI
// needs the signal to show its degraded indicators.
//
// The change notification is sent after the lock is released, so a reader
// woken by Changed always sees the write that caused it.
//
// # Change Notification
//
// Notifier is a one-slot channel. Any number of Notify calls between two reads
// collapse into a single pending signal, which keeps memory bounded no matter
// how fast the daemon rewrites its files.
//
// # Stale Indexes
//
// Queue entries can be replaced between the moment the UI renders a row and
// the moment the user acts on it. Commands that target an entry by row must
// re-read it with EntryAt right before sending.
package state
