package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/smqueue/internal/app"
	"github.com/five82/smqueue/internal/config"
	"github.com/five82/smqueue/internal/logging"
	"github.com/five82/smqueue/internal/queue"
	"github.com/five82/smqueue/internal/volume"
	"github.com/five82/smqueue/internal/watch"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
	tick       time.Duration
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		LogLevel:   g.logLevel,
		LogFile:    g.logFile,
		Tick:       g.tick,
	}
}

// setup loads config and sends logs to stderr for one-shot commands.
func (g *globalFlags) setup() (config.Config, func(), error) {
	opts := g.options()
	cfg, err := app.LoadConfig(opts)
	if err != nil {
		return config.Config{}, nil, err
	}
	closer, err := app.InitLogging(cfg, opts.LogFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, func() { _ = closer.Close() }, nil
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "smq",
		Short:         "Queue media for playback and watch the queue",
		Long:          "smq queues local files, streams and web videos for the smqueue daemon.\nRun without a subcommand to open the terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/smqueue/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file")
	pf.DurationVar(&flags.tick, "tick", 0, "UI refresh interval as a duration, e.g. 100ms (overrides tick_ms)")

	root.AddCommand(
		newAddCmd(flags),
		newControlCmd(flags, "play", "Start or resume playback", (*queue.Client).Start),
		newControlCmd(flags, "pause", "Pause playback", (*queue.Client).Pause),
		newControlCmd(flags, "stop", "Stop playback", (*queue.Client).Stop),
		newControlCmd(flags, "skip", "Skip to the next entry", (*queue.Client).Skip),
		newControlCmd(flags, "clear", "Remove every queued entry", (*queue.Client).Clear),
		newIDCmd(flags, "promote", "Move an entry to the head of the queue", (*queue.Client).Promote),
		newIDCmd(flags, "remove", "Remove an entry from the queue", (*queue.Client).Remove),
		newHistoryCmd(flags),
		newVolumeCmd(flags),
		newDaemonCmd(flags),
	)
	return root
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var (
		priority uint64
		raw      bool
	)
	cmd := &cobra.Command{
		Use:   "add <file|dir|url|search>...",
		Short: "Add media to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := flags.setup()
			if err != nil {
				return err
			}
			defer done()
			if !cmd.Flags().Changed("priority") {
				priority = cfg.DefaultPriority
			}
			client := app.NewClient(cfg, logging.Logger())

			var failed int
			for _, input := range args {
				feedback, err := client.AddEntry(cmd.Context(), input, priority, raw)
				if feedback != "" {
					fmt.Fprintln(cmd.OutOrStdout(), feedback)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "smq: %s\n", addErrorHint(err))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d inputs failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&priority, "priority", "p", 0, "queue priority (default from config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "send input to the player unchanged as a stream")
	return cmd
}

func addErrorHint(err error) string {
	var unrecognized *queue.UnrecognizedInputError
	if errors.As(err, &unrecognized) {
		return fmt.Sprintf("%v\n  use --raw to send it to the player as a stream", err)
	}
	var transport *queue.TransportError
	if errors.As(err, &transport) {
		return fmt.Sprintf("%v\n  is the daemon running? start it with 'smq daemon' or retry", err)
	}
	return err.Error()
}

func newControlCmd(flags *globalFlags, use, short string, fn func(*queue.Client, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, done, err := flags.setup()
			if err != nil {
				return err
			}
			defer done()
			return fn(app.NewClient(cfg, logging.Logger()), cmd.Context())
		},
	}
}

func newIDCmd(flags *globalFlags, use, short string, fn func(*queue.Client, context.Context, uint64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, done, err := flags.setup()
			if err != nil {
				return err
			}
			defer done()
			return fn(app.NewClient(cfg, logging.Logger()), cmd.Context(), id)
		},
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var count, offset int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recently played entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, done, err := flags.setup()
			if err != nil {
				return err
			}
			defer done()
			if count <= 0 {
				count = cfg.HistoryPageSize
			}
			entries, err := watch.ReadHistory(cfg.HistoryFile, count, offset, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Timestamp, e.Name, e.Location)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "entries to print (default from config)")
	cmd.Flags().IntVar(&offset, "offset", 0, "lines to skip from the end of the file")
	return cmd
}

func newVolumeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "volume [up|down] [steps]",
		Short:     "Show or change the mixer volume",
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, steps, err := parseVolumeArgs(args)
			if err != nil {
				return err
			}
			cfg, done, err := flags.setup()
			if err != nil {
				return err
			}
			defer done()
			ctl, err := app.OpenVolume(cmd.Context(), cfg, logging.Logger(), false)
			if err != nil {
				return err
			}
			switch dir {
			case "up":
				err = ctl.Increment(cmd.Context(), steps)
			case "down":
				err = ctl.Decrement(cmd.Context(), steps)
			}
			if err != nil {
				return err
			}
			printVolume(cmd.OutOrStdout(), ctl.Levels())
			return nil
		},
	}
}

func parseVolumeArgs(args []string) (string, int, error) {
	if len(args) == 0 {
		return "", 0, nil
	}
	dir := strings.ToLower(args[0])
	if dir != "up" && dir != "down" {
		return "", 0, fmt.Errorf("volume direction must be up or down, got %q", args[0])
	}
	steps := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("invalid step count %q", args[1])
		}
		steps = n
	}
	return dir, steps, nil
}

func printVolume(w io.Writer, l volume.Levels) {
	fmt.Fprintf(w, "%s (loudness %.0f%%)\n", volume.Describe(l), volume.NormalizedLoudness(l)*100)
}

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the queue daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.RunDaemon(cmd.Context(), flags.options())
		},
	}
}
