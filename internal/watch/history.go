package watch

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/five82/smqueue/internal/logtail"
	"github.com/five82/smqueue/internal/state"
)

// DefaultHistoryPageSize is the number of history entries loaded per page.
const DefaultHistoryPageSize = 100

// HistoryTimeLayout formats history timestamps for display.
const HistoryTimeLayout = "15:04 02-Jan 06"

// ReadHistory returns up to count entries, newest first, after skipping
// offset physical lines from the end of the file. Lines with fewer than three
// fields are skipped. An unparsable timestamp fails the read.
func ReadHistory(path string, count, offset int, loc *time.Location) ([]state.HistoryEntry, error) {
	if count <= 0 {
		count = DefaultHistoryPageSize
	}
	if loc == nil {
		loc = time.Local
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat history: %w", err)
	}

	scanner := logtail.NewReverseScanner(file, info.Size())
	entries := make([]state.HistoryEntry, 0, count)
	skipped := 0
	for scanner.Scan() {
		if skipped < offset {
			skipped++
			continue
		}
		fields := strings.SplitN(scanner.Text(), "\t", 3)
		if len(fields) < 3 {
			continue
		}
		secs, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, &MalformedStateFileError{File: path, Reason: "bad history timestamp", Err: err}
		}
		played := time.Unix(secs, 0).In(loc)
		entries = append(entries, state.HistoryEntry{
			Played:    played,
			Timestamp: played.Format(HistoryTimeLayout),
			Name:      fields[1],
			Location:  fields[2],
		})
		if len(entries) >= count {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// HistoryLoader keeps a HistoryStore filled with one page of the history file.
type HistoryLoader struct {
	mu     sync.Mutex
	path   string
	count  int
	offset int
	loaded int // entries in the last successful load
	loc    *time.Location
	store  *state.HistoryStore
}

// NewHistoryLoader returns a loader for the page of size count at the tail of path.
func NewHistoryLoader(store *state.HistoryStore, path string, count int) *HistoryLoader {
	if count <= 0 {
		count = DefaultHistoryPageSize
	}
	return &HistoryLoader{path: path, count: count, loc: time.Local, store: store}
}

// Path returns the history file being read.
func (h *HistoryLoader) Path() string {
	return h.path
}

// Reload rereads the current page.
func (h *HistoryLoader) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(h.offset)
}

// SetOffset moves the page to start offset physical lines from the end.
func (h *HistoryLoader) SetOffset(offset int) error {
	if offset < 0 {
		offset = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(offset)
}

// NextPage moves to older entries. It does nothing when the page this loader
// last read was not full.
func (h *HistoryLoader) NextPage() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded < h.count {
		return nil
	}
	return h.load(h.offset + h.count)
}

// PrevPage moves to newer entries.
func (h *HistoryLoader) PrevPage() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.offset == 0 {
		return nil
	}
	return h.load(max(0, h.offset-h.count))
}

// load must be called with mu held.
func (h *HistoryLoader) load(offset int) error {
	entries, err := ReadHistory(h.path, h.count, offset, h.loc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.offset = offset
			h.loaded = 0
			h.store.SetPage(nil, offset, h.count)
			return nil
		}
		h.store.RecordFailure(err)
		return err
	}
	h.offset = offset
	h.loaded = len(entries)
	h.store.SetPage(entries, offset, h.count)
	return nil
}
