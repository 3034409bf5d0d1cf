// Package failure defines the error taxonomy shared by the acquisition
// pipeline.
//
// Every type wraps its cause and can be inspected with errors.As. The CLI maps
// these kinds to exit codes; the core never retries on any of them.
package failure

import (
	"fmt"
	"strings"
)

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response payload that is not shaped as expected.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseError reports malformed version output or a malformed date tag.
// Input carries the raw offending text.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse failed: %s '%s'", e.Reason, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CommandError reports a local executable that ran but exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" {
		return fmt.Sprintf("command %q failed (exit %d): %s", e.Command, e.ExitCode, stderr)
	}
	return fmt.Sprintf("command %q failed (exit %d)", e.Command, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// FileError reports a filesystem failure during install. Stage names the
// install step that failed.
type FileError struct {
	Stage string
	Path  string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
