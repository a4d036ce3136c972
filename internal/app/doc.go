// Package app is the composition root for smq.
//
// Run wires the TUI: it loads config and preferences, sends the log to the
// configured file, starts the state and history watchers, opens the mixer
// (continuing without volume control if that fails) and hands everything to
// ui.Run. RunDaemon wires the queue daemon: the playback loop, the mpv
// process, the IPC server and, when enabled, peer player coordination, all
// under one suture supervisor.
//
// Watcher registration failures end the process. Parse failures do not; the
// watchers keep the last good snapshot and StartResync retries in the
// background.
package app
