package logtail

import (
	"bytes"
	"fmt"
	"io"
)

const reverseChunkSize = 4096

// ReverseScanner yields the lines of a file from last to first.
type ReverseScanner struct {
	r       io.ReaderAt
	pos     int64 // bytes before pending that have not been read yet
	pending []byte
	started bool
	done    bool
	line    string
	err     error
	chunk   int
}

// NewReverseScanner scans the first size bytes of r backwards.
func NewReverseScanner(r io.ReaderAt, size int64) *ReverseScanner {
	return &ReverseScanner{r: r, pos: size, chunk: reverseChunkSize, done: size <= 0}
}

// Scan advances to the previous line. It returns false at the start of the
// file or on a read error.
func (s *ReverseScanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}
	if !s.started {
		s.started = true
		if !s.fill() {
			return false
		}
		if n := len(s.pending); n > 0 && s.pending[n-1] == '\n' {
			s.pending = s.pending[:n-1]
		}
	}
	for {
		if i := bytes.LastIndexByte(s.pending, '\n'); i >= 0 {
			s.line = string(bytes.TrimSuffix(s.pending[i+1:], []byte("\r")))
			s.pending = s.pending[:i]
			return true
		}
		if s.pos == 0 {
			s.line = string(bytes.TrimSuffix(s.pending, []byte("\r")))
			s.pending = nil
			s.done = true
			return true
		}
		if !s.fill() {
			return false
		}
	}
}

func (s *ReverseScanner) fill() bool {
	n := int64(s.chunk)
	if n > s.pos {
		n = s.pos
	}
	buf := make([]byte, n, int(n)+len(s.pending))
	start := s.pos - n
	if _, err := s.r.ReadAt(buf, start); err != nil && err != io.EOF {
		s.err = fmt.Errorf("read at %d: %w", start, err)
		return false
	}
	s.pos = start
	s.pending = append(buf, s.pending...)
	return true
}

// Text returns the line produced by the last successful Scan.
func (s *ReverseScanner) Text() string {
	return s.line
}

// Err returns the first read error encountered.
func (s *ReverseScanner) Err() error {
	return s.err
}
