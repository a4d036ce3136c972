package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/smqueue/internal/config"
	"github.com/five82/smqueue/internal/daemon"
	"github.com/five82/smqueue/internal/logging"
	"github.com/five82/smqueue/internal/mediainfo"
	"github.com/five82/smqueue/internal/peer"
	"github.com/five82/smqueue/internal/prefs"
	"github.com/five82/smqueue/internal/queue"
	"github.com/five82/smqueue/internal/state"
	"github.com/five82/smqueue/internal/ui"
	"github.com/five82/smqueue/internal/volume"
	"github.com/five82/smqueue/internal/watch"
)

// Options configure an smq process. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/smqueue/prefs.toml
	LogLevel   string
	LogFile    string
	Tick       time.Duration
}

// LoadConfig reads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	if opts.Tick > 0 {
		cfg.Tick = opts.Tick
	}
	return cfg, nil
}

// InitLogging points the global logger at file, or at stderr when file is
// empty.
func InitLogging(cfg config.Config, file string) (io.Closer, error) {
	return logging.Init(logging.Config{Level: cfg.LogLevel, File: file})
}

// NewClient returns a queue client for the configured socket and provider.
func NewClient(cfg config.Config, log zerolog.Logger) *queue.Client {
	return queue.New(queue.Options{
		Provider: mediainfo.NewYTDLP(cfg.ProviderCommand, cfg.ProviderTimeout),
		Socket:   cfg.SocketPath,
		Logger:   log,
	})
}

// OpenVolume reads the configured mixer. With subscribe set it also follows
// mixer events until ctx is done.
func OpenVolume(ctx context.Context, cfg config.Config, log zerolog.Logger, subscribe bool) (*volume.Controller, error) {
	mixer := volume.NewAMixer(cfg.MixerDevice, cfg.VolumeControl)
	var events volume.EventSource
	if subscribe {
		events = &volume.ALSAMonitor{Card: cfg.MixerCard}
	}
	return volume.NewController(ctx, mixer, events, cfg.VolumeControl, log)
}

// Run boots the smq TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	closer, err := InitLogging(cfg, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	log := logging.Component("app")

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		log.Warn().Err(err).Str("path", prefsPath).Msg("load prefs; using defaults")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	history := &state.HistoryStore{}
	loader := watch.NewHistoryLoader(history, cfg.HistoryFile, cfg.HistoryPageSize)
	if err := startWatchers(ctx, cfg, store, loader); err != nil {
		return err
	}
	StartResync(ctx, defaultResyncInterval, logging.Component("resync"),
		watch.StatusReloader(store, cfg.StatusFile),
		watch.QueueReloader(store, cfg.QueueFile),
		loader.Reload,
	)

	uiOpts := ui.Options{
		Context:         ctx,
		Client:          NewClient(cfg, logging.Logger()),
		Store:           store,
		History:         history,
		Pager:           loader,
		LogPath:         cfg.LogFile,
		Tick:            cfg.Tick,
		DefaultPriority: cfg.DefaultPriority,
		VolumeStep:      userPrefs.VolumeStep,
		ThemeName:       userPrefs.Theme,
		StartTab:        userPrefs.StartTab,
		PrefsPath:       prefsPath,
		Logger:          logging.Logger(),
	}

	// Volume failures leave the UI running with the volume keys disabled.
	vol, err := OpenVolume(ctx, cfg, logging.Logger(), true)
	if err != nil {
		log.Warn().Err(err).Msg("volume controls disabled")
		uiOpts.VolumeErr = err
	} else {
		uiOpts.Volume = vol
	}

	log.Info().Str("socket", cfg.SocketPath).Msg("starting ui")
	return ui.Run(uiOpts)
}

// startWatchers registers the state and history watchers concurrently. Any
// registration failure is fatal.
func startWatchers(ctx context.Context, cfg config.Config, store *state.Store, loader *watch.HistoryLoader) error {
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	stateWatcher := watch.NewStateWatcher(store, cfg.StatusFile, cfg.QueueFile, logging.Component("watch"))
	historyWatcher := watch.NewHistoryWatcher(loader, logging.Component("watch"))

	// The watchers outlive this function, so they get ctx rather than a
	// group context that ends with Wait.
	var g errgroup.Group
	g.Go(func() error { return stateWatcher.Start(ctx) })
	g.Go(func() error { return historyWatcher.Start(ctx) })
	if err := g.Wait(); err != nil {
		var setup *watch.WatchSetupError
		if errors.As(err, &setup) {
			return fmt.Errorf("watch state files: %w", err)
		}
		return err
	}
	return nil
}

// RunDaemon runs the queue daemon until ctx is cancelled or the supervisor
// gives up.
func RunDaemon(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	closer, err := InitLogging(cfg, opts.LogFile)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	log := logging.Logger()

	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	player := daemon.NewMPV(cfg.PlayerCommand, mpvSocketPath(cfg), log)
	dopts := daemon.Options{
		Queue: daemon.NewQueue(),
		Files: &daemon.StateFiles{
			StatusPath:  cfg.StatusFile,
			QueuePath:   cfg.QueueFile,
			HistoryPath: cfg.HistoryFile,
		},
		Player:  player,
		Fetcher: daemon.NewDownloader(cfg.ProviderCommand, cfg.DownloadDir),
		Logger:  log,
	}
	if cfg.PausePeers {
		dopts.Peers = peer.NewCoordinator(log, peer.NewSpotify(), peer.NewMPD(cfg.MPDAddress))
	}
	d := daemon.New(dopts)

	srv := daemon.NewServer(cfg.SocketPath, d, log)
	if err := srv.Bind(); err != nil {
		return fmt.Errorf("bind %s: %w", cfg.SocketPath, err)
	}

	log.Info().
		Str("socket", cfg.SocketPath).
		Str("status", cfg.StatusFile).
		Str("queue", cfg.QueueFile).
		Bool("pause_peers", cfg.PausePeers).
		Msg("daemon starting")

	sup := daemon.NewSupervisor(d, srv, player, daemon.DefaultSupervisorConfig(), log)
	err = sup.Serve(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func mpvSocketPath(cfg config.Config) string {
	return filepath.Join(filepath.Dir(cfg.SocketPath), "smqueue-mpv.sock")
}
