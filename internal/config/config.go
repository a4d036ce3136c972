package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures every setting shared by the smq client, UI and daemon.
type Config struct {
	SocketPath  string
	StatusFile  string
	QueueFile   string
	HistoryFile string
	LogFile     string
	LogLevel    string

	Tick            time.Duration
	DefaultPriority uint64
	HistoryPageSize int

	ProviderCommand string
	ProviderTimeout time.Duration
	DownloadDir     string
	PlayerCommand   string

	MixerDevice   string
	MixerCard     string
	VolumeControl string

	PausePeers bool
	MPDAddress string
}

const (
	defaultConfigPath      = "~/.config/smqueue/config.toml"
	defaultSocketPath      = "/tmp/media_queue.sock"
	defaultStatusFile      = "/tmp/smqueue.status"
	defaultQueueFile       = "/tmp/smqueue.queue"
	defaultHistoryFile     = "~/.local/share/smqueue/history.log"
	defaultLogFile         = "~/.local/share/smqueue/smqueue.log"
	defaultLogLevel        = "info"
	defaultTick            = 100 * time.Millisecond
	defaultPriority        = 50
	defaultHistoryPageSize = 100
	defaultProvider        = "yt-dlp"
	defaultProviderTimeout = 5 * time.Second
	defaultDownloadDir     = "/tmp/smqueue"
	defaultPlayer          = "mpv"
	defaultMixerDevice     = "default"
	defaultMixerCard       = "hw:0"
	defaultVolumeControl   = "Master Playback Volume"
	defaultMPDAddress      = "localhost:6600"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SocketPath:      defaultSocketPath,
		StatusFile:      defaultStatusFile,
		QueueFile:       defaultQueueFile,
		HistoryFile:     mustExpand(defaultHistoryFile),
		LogFile:         mustExpand(defaultLogFile),
		LogLevel:        defaultLogLevel,
		Tick:            defaultTick,
		DefaultPriority: defaultPriority,
		HistoryPageSize: defaultHistoryPageSize,
		ProviderCommand: defaultProvider,
		ProviderTimeout: defaultProviderTimeout,
		DownloadDir:     defaultDownloadDir,
		PlayerCommand:   defaultPlayer,
		MixerDevice:     defaultMixerDevice,
		MixerCard:       defaultMixerCard,
		VolumeControl:   defaultVolumeControl,
		PausePeers:      true,
		MPDAddress:      defaultMPDAddress,
	}
}

// Load locates and parses the smqueue config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		SocketPath      string  `toml:"socket_path"`
		StatusFile      string  `toml:"status_file"`
		QueueFile       string  `toml:"queue_file"`
		HistoryFile     string  `toml:"history_file"`
		LogFile         string  `toml:"log_file"`
		LogLevel        string  `toml:"log_level"`
		TickMS          int     `toml:"tick_ms"`
		DefaultPriority *uint64 `toml:"default_priority"`
		HistoryPageSize int     `toml:"history_page_size"`
		ProviderCommand string  `toml:"provider_command"`
		ProviderTimeout int     `toml:"provider_timeout_seconds"`
		DownloadDir     string  `toml:"download_dir"`
		PlayerCommand   string  `toml:"player_command"`
		MixerDevice     string  `toml:"mixer_device"`
		MixerCard       string  `toml:"mixer_card"`
		VolumeControl   string  `toml:"volume_control"`
		PausePeers      *bool   `toml:"pause_peers"`
		MPDAddress      string  `toml:"mpd_address"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.SocketPath = pathOr(raw.SocketPath, cfg.SocketPath)
	cfg.StatusFile = pathOr(raw.StatusFile, cfg.StatusFile)
	cfg.QueueFile = pathOr(raw.QueueFile, cfg.QueueFile)
	cfg.HistoryFile = pathOr(raw.HistoryFile, cfg.HistoryFile)
	cfg.LogFile = pathOr(raw.LogFile, cfg.LogFile)
	cfg.DownloadDir = pathOr(raw.DownloadDir, cfg.DownloadDir)

	cfg.LogLevel = stringOr(strings.ToLower(raw.LogLevel), cfg.LogLevel)
	cfg.ProviderCommand = stringOr(raw.ProviderCommand, cfg.ProviderCommand)
	cfg.PlayerCommand = stringOr(raw.PlayerCommand, cfg.PlayerCommand)
	cfg.MixerDevice = stringOr(raw.MixerDevice, cfg.MixerDevice)
	cfg.MixerCard = stringOr(raw.MixerCard, cfg.MixerCard)
	cfg.VolumeControl = stringOr(raw.VolumeControl, cfg.VolumeControl)
	cfg.MPDAddress = stringOr(raw.MPDAddress, cfg.MPDAddress)

	if raw.TickMS > 0 {
		cfg.Tick = time.Duration(raw.TickMS) * time.Millisecond
	}
	if raw.ProviderTimeout > 0 {
		cfg.ProviderTimeout = time.Duration(raw.ProviderTimeout) * time.Second
	}
	if raw.HistoryPageSize > 0 {
		cfg.HistoryPageSize = raw.HistoryPageSize
	}
	if raw.DefaultPriority != nil {
		cfg.DefaultPriority = *raw.DefaultPriority
	}
	if raw.PausePeers != nil {
		cfg.PausePeers = *raw.PausePeers
	}

	return cfg, nil
}

// LogDir returns the directory holding the smqueue log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func stringOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func pathOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return mustExpand(value)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
