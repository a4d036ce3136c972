// Package logging configures the process-wide zerolog logger used by every
// smqueue component.
//
// The TUI owns the terminal, so when it runs the logger writes to the log
// file named in the config. One-shot commands and the daemon log to stderr
// unless a file is requested.
//
//	closer, err := logging.Init(logging.Config{Level: "debug", File: cfg.LogFile})
//	defer closer.Close()
//	log := logging.Component("watch")
//	log.Warn().Str("file", path).Err(err).Msg("parse failed")
//
// Always terminate log chains with .Msg() or .Send().
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string

	// Format is the output format: console or json.
	// Default: console
	Format string

	// File, when set, receives log output instead of Output. Parent
	// directories are created.
	File string

	// Output is the writer used when File is empty.
	// Default: os.Stderr
	Output io.Writer
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(Config{}, os.Stderr)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the global logger. The returned closer releases the log
// file, if one was opened.
func Init(cfg Config) (io.Closer, error) {
	var (
		out    io.Writer = cfg.Output
		closer io.Closer = nopCloser{}
	)
	if strings.TrimSpace(cfg.File) != "" {
		file, err := openLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		out, closer = file, file
	}
	if out == nil {
		out = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg, out)
	return closer, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// initLogger must be called with mu held.
func initLogger(cfg Config, out io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	if !strings.EqualFold(cfg.Format, "json") {
		_, isFile := out.(*os.File)
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    isFile && out != os.Stderr,
		}
	}
	log = zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger. Tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// Component returns the global logger tagged with a component field.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}
