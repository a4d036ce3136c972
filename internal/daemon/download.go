package daemon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Fetcher turns a remote media reference into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// Downloader fetches media with yt-dlp into Dir under a random name.
type Downloader struct {
	Command string
	Dir     string
	Run     func(ctx context.Context, name string, args ...string) error
}

// NewDownloader returns a yt-dlp downloader writing into dir.
func NewDownloader(command, dir string) *Downloader {
	if command == "" {
		command = "yt-dlp"
	}
	return &Downloader{Command: command, Dir: dir, Run: runQuiet}
}

// Fetch downloads ref and returns the path of the resulting file.
func (d *Downloader) Fetch(ctx context.Context, ref string) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	name := uuid.NewString()
	output := filepath.Join(d.Dir, name+".%(ext)s")

	run := d.Run
	if run == nil {
		run = runQuiet
	}
	if err := run(ctx, d.Command, "-q", "--no-playlist", "-o", output, "--", ref); err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}

	// yt-dlp picks the extension, so find the file by its name.
	matches, err := filepath.Glob(filepath.Join(d.Dir, name+".*"))
	if err != nil {
		return "", fmt.Errorf("locate download: %w", err)
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") && !strings.HasSuffix(m, ".ytdl") {
			return m, nil
		}
	}
	return "", fmt.Errorf("download %s: no output file for %s", ref, name)
}

func runQuiet(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
