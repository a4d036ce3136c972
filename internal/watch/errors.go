package watch

import "fmt"

// MalformedStateFileError reports content in a daemon state file that could
// not be parsed. Line is 1-based; zero means the whole file.
type MalformedStateFileError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedStateFileError) Error() string {
	where := e.File
	if where == "" {
		where = "state file"
	}
	if e.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %s: %v", where, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s: %s", where, e.Reason)
}

func (e *MalformedStateFileError) Unwrap() error {
	return e.Err
}

// WatchSetupError reports that the OS-level watch could not be established.
type WatchSetupError struct {
	Path string
	Err  error
}

func (e *WatchSetupError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Path, e.Err)
}

func (e *WatchSetupError) Unwrap() error {
	return e.Err
}
