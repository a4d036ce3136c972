package watch

import (
	"math"
	"strconv"
	"strings"

	"github.com/five82/smqueue/internal/state"
)

const queueFieldSeparator = ";"

// ParseStatus reads the playback percentage and state from status file content.
func ParseStatus(data []byte) (state.PlaybackState, float64, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	first := ""
	if len(lines) > 0 {
		first = strings.TrimSpace(lines[0])
	}
	if first == "" {
		return state.Idle, 0, &MalformedStateFileError{Line: 1, Reason: "missing playback time"}
	}
	percent, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return state.Idle, 0, &MalformedStateFileError{Line: 1, Reason: "playback time is not a number", Err: err}
	}
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return state.Idle, 0, &MalformedStateFileError{Line: 1, Reason: "playback time outside 0-100"}
	}

	if len(lines) < 2 || strings.TrimSpace(lines[1]) == "" {
		return state.Idle, 0, &MalformedStateFileError{Line: 2, Reason: "missing playback state"}
	}
	playback, err := state.ParsePlaybackState(strings.TrimSpace(lines[1]))
	if err != nil {
		return state.Idle, 0, &MalformedStateFileError{Line: 2, Reason: "unknown playback state", Err: err}
	}
	return playback, percent, nil
}

// ParseQueue reads queue entries in file order. Lines without a separator are
// ignored; any other malformed line fails the whole parse.
func ParseQueue(data []byte) ([]state.QueueEntry, error) {
	var entries []state.QueueEntry
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.Contains(line, queueFieldSeparator) {
			continue
		}
		fields := strings.SplitN(line, queueFieldSeparator, 4)
		if len(fields) < 4 {
			return nil, &MalformedStateFileError{Line: i + 1, Reason: "expected id;priority;type;location"}
		}
		id, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, &MalformedStateFileError{Line: i + 1, Reason: "bad id", Err: err}
		}
		priority, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, &MalformedStateFileError{Line: i + 1, Reason: "bad priority", Err: err}
		}
		entries = append(entries, state.QueueEntry{
			ID:        id,
			Priority:  priority,
			EntryType: fields[2],
			Location:  fields[3],
		})
	}
	return entries, nil
}
