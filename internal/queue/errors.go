package queue

import "fmt"

// TransportError reports that a frame could not be delivered to the daemon.
type TransportError struct {
	Socket string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to daemon at %s: %v", e.Socket, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PathResolutionError reports a local path that exists but could not be
// made canonical.
type PathResolutionError struct {
	Path string
	Err  error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("resolve path %s: %v", e.Path, e.Err)
}

func (e *PathResolutionError) Unwrap() error {
	return e.Err
}

// UnrecognizedInputError reports input that is neither a local file nor
// media the provider can resolve.
type UnrecognizedInputError struct {
	Input string
	Err   error
}

func (e *UnrecognizedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized input %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("unrecognized input %q", e.Input)
}

func (e *UnrecognizedInputError) Unwrap() error {
	return e.Err
}
