// Package watch turns the files written by the queue daemon into live
// in-memory snapshots.
//
// # Files
//
// Status file, two lines:
//
//	42.5
//	Playing
//
// Queue file, one entry per line, fields split on the first three ';':
//
//	7;10;LocalMedia;/home/u/movie.mkv
//	3;20;YoutubeMedia;abc123 - Some Title
//
// History file, append-only, tab separated:
//
//	1700000000	Some Title	https://example.com/watch?v=abc123
//
// # Watcher
//
// A Watcher owns one fsnotify subscription and any number of targets. Each
// target is reparsed synchronously once by Start, then again on every write
// or create event for its path. The parent directory is watched rather than
// the file itself, so the daemon's write-to-temp-and-rename updates are seen.
//
//	Idle ──Start──▶ Watching ──event──▶ Reparsing ──▶ Watching
//
// A parse failure is logged at warn level and recorded on the store; the last
// good snapshot stays in place and no change is signalled. Failure to set up
// the OS watch is returned from Start as a *WatchSetupError and is fatal to
// the caller.
package watch
