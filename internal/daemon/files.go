package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/five82/smqueue/internal/state"
)

// StateFiles publishes daemon state in the formats the watchers parse.
type StateFiles struct {
	StatusPath  string
	QueuePath   string
	HistoryPath string

	historyMu sync.Mutex
}

// WriteStatus replaces the status file with "<percent>\n<State>\n".
func (f *StateFiles) WriteStatus(playback state.PlaybackState, percent float64) error {
	data := strconv.FormatFloat(percent, 'f', 2, 64) + "\n" + playback.String() + "\n"
	return writeAtomic(f.StatusPath, []byte(data))
}

// WriteQueue replaces the queue file with one id;priority;type;location line
// per entry, in play order.
func (f *StateFiles) WriteQueue(entries []Entry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d;%d;%s;%s\n", e.ID, e.Priority, e.Type, sanitizeLine(e.Location))
	}
	return writeAtomic(f.QueuePath, []byte(b.String()))
}

// AppendHistory adds a "unix\tname\tlocation" line to the history file.
func (f *StateFiles) AppendHistory(played time.Time, name, location string) error {
	if f.HistoryPath == "" {
		return nil
	}
	f.historyMu.Lock()
	defer f.historyMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.HistoryPath), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	file, err := os.OpenFile(f.HistoryPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	line := fmt.Sprintf("%d\t%s\t%s\n", played.Unix(), strings.ReplaceAll(sanitizeLine(name), "\t", " "), sanitizeLine(location))
	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("append history: %w", err)
	}
	return file.Close()
}

func sanitizeLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// writeAtomic writes data next to path and renames it into place so readers
// never see a partial file.
func writeAtomic(path string, data []byte) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
