package engine

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"time"
)

type ExecRunner interface {
	Run(ctx context.Context, spec ExecSpec) ExecResult
}

// SubprocessRunner runs a command to completion and captures the start of
// its stdout and the end of its stderr.
type SubprocessRunner struct {
	StdoutLimit int
	StderrLimit int
}

const (
	defaultStdoutLimit = 4 * 1024
	defaultStderrLimit = 8 * 1024
	killWaitDelay      = 2 * time.Second
)

// headBuffer keeps the first max bytes written and drops the rest.
type headBuffer struct {
	buf []byte
	max int
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if room := h.max - len(h.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		h.buf = append(h.buf, p[:room]...)
	}
	return len(p), nil
}

func (h *headBuffer) String() string {
	return string(h.buf)
}

// tailBuffer keeps the last max bytes written.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return len(p), nil
	}
	if over := len(t.buf) + len(p) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

func NewSubprocessRunner() *SubprocessRunner {
	return &SubprocessRunner{StdoutLimit: defaultStdoutLimit, StderrLimit: defaultStderrLimit}
}

func (r *SubprocessRunner) Run(ctx context.Context, spec ExecSpec) ExecResult {
	if spec.Bin == "" {
		return ExecResult{ExitCode: 1, Err: errors.New("missing binary")}
	}

	stdout := &headBuffer{max: limitOr(r.StdoutLimit, defaultStdoutLimit)}
	stderr := &tailBuffer{max: limitOr(r.StderrLimit, defaultStderrLimit)}

	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	isolateProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessGroup(cmd)
		return nil
	}
	cmd.WaitDelay = killWaitDelay
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	result := ExecResult{
		Stdout:     stdout.String(),
		StderrTail: stderr.String(),
		Err:        err,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
		result.NotFound = true
		result.ExitCode = 127
	case ctx.Err() != nil:
		result.Interrupted = true
		result.ExitCode = 130
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = 1
	}
	return result
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
