// Package config loads the smqueue TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/smqueue/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Default Values
//
//   - socket_path: /tmp/media_queue.sock
//   - status_file: /tmp/smqueue.status
//   - queue_file: /tmp/smqueue.queue
//   - history_file: ~/.local/share/smqueue/history.log
//   - log_file: ~/.local/share/smqueue/smqueue.log
//   - log_level: info
//   - tick_ms: 100
//   - default_priority: 50
//   - history_page_size: 100
//   - provider_command: yt-dlp, provider_timeout_seconds: 5
//   - download_dir: /tmp/smqueue
//   - player_command: mpv
//   - mixer_device: default, mixer_card: hw:0
//   - volume_control: "Master Playback Volume"
//   - pause_peers: true, mpd_address: localhost:6600
//
// # TOML Format
//
//	socket_path = "/run/user/1000/smqueue.sock"
//	history_file = "~/.local/share/smqueue/history.log"
//	tick_ms = 50
//	default_priority = 10
//	pause_peers = false
//
// Every path field gets tilde expansion and is made absolute.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//
// Missing config files are NOT an error.
package config
