// Package mediainfo resolves user input such as web video URLs into playable
// items by asking an external extractor.
package mediainfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ErrNotMedia is returned when the provider does not recognise the input.
var ErrNotMedia = errors.New("input is not resolvable media")

// Item is one playable media entry.
type Item struct {
	ID    string
	URL   string
	Title string
}

// Location is the queue location string for the item: the most stable
// reference available followed by the display title.
func (i Item) Location() string {
	ref := i.URL
	if ref == "" {
		ref = i.ID
	}
	if i.Title == "" {
		return ref
	}
	return ref + " - " + i.Title
}

// DisplayTitle falls back to the reference when no title is known.
func (i Item) DisplayTitle() string {
	if i.Title != "" {
		return i.Title
	}
	if i.URL != "" {
		return i.URL
	}
	return i.ID
}

// Result is the outcome of a resolution: a single item or a playlist.
type Result struct {
	Playlist bool
	Title    string
	Items    []Item
}

// Provider resolves input strings into media items.
type Provider interface {
	Resolve(ctx context.Context, input string) (Result, error)
}

// SplitLocation separates a location built by Item.Location into its
// reference and title.
func SplitLocation(location string) (ref, title string) {
	ref, title, _ = strings.Cut(location, " - ")
	return ref, title
}

const defaultTimeout = 5 * time.Second

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YTDLP resolves input with `yt-dlp -J --flat-playlist`.
type YTDLP struct {
	Command string
	Timeout time.Duration
	Run     Runner
}

var _ Provider = (*YTDLP)(nil)

// NewYTDLP returns a provider invoking command (default yt-dlp).
func NewYTDLP(command string, timeout time.Duration) *YTDLP {
	if strings.TrimSpace(command) == "" {
		command = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &YTDLP{Command: command, Timeout: timeout, Run: execRunner}
}

type ytdlpInfo struct {
	Type       string      `json:"_type"`
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	WebpageURL string      `json:"webpage_url"`
	Entries    []ytdlpInfo `json:"entries"`
}

func (i ytdlpInfo) item() Item {
	ref := i.WebpageURL
	if ref == "" {
		ref = i.URL
	}
	return Item{ID: i.ID, URL: ref, Title: i.Title}
}

// Resolve asks yt-dlp for metadata. Failures of the extractor, including
// timeouts, are reported as ErrNotMedia.
func (y *YTDLP) Resolve(ctx context.Context, input string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, y.Timeout)
	defer cancel()

	run := y.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, y.Command, "-J", "--flat-playlist", "--no-warnings", "--", input)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrNotMedia, y.Command, err)
	}
	return decode(out)
}

func decode(out []byte) (Result, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return Result{}, fmt.Errorf("%w: decode metadata: %v", ErrNotMedia, err)
	}
	if info.Type == "playlist" || info.Type == "multi_video" {
		result := Result{Playlist: true, Title: info.Title}
		for _, entry := range info.Entries {
			if entry.ID == "" && entry.URL == "" && entry.WebpageURL == "" {
				continue
			}
			result.Items = append(result.Items, entry.item())
		}
		if len(result.Items) == 0 {
			return Result{}, fmt.Errorf("%w: playlist %q has no entries", ErrNotMedia, info.Title)
		}
		return result, nil
	}
	if info.ID == "" && info.WebpageURL == "" {
		return Result{}, fmt.Errorf("%w: metadata has no id", ErrNotMedia)
	}
	return Result{Title: info.Title, Items: []Item{info.item()}}, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, firstLine(msg))
		}
		return nil, err
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
