package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/jaa/rad/internal/failure"
	"github.com/jaa/rad/internal/install"
)

type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func mapExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var coded *ExitError
	if errors.As(err, &coded) {
		return coded.Code
	}
	message := err.Error()
	if strings.Contains(message, "unknown command") || strings.Contains(message, "unknown flag") ||
		strings.Contains(message, "accepts") || strings.Contains(message, "invalid argument") {
		return exitcode.InvalidUsage
	}
	return exitcode.RuntimeFailure
}

// classify picks the exit code for an error returned by the acquisition
// pipeline.
func classify(err error) int {
	var (
		netErr         *failure.NetworkError
		unsupportedErr *install.UnsupportedPlatformError
		validationErr  *config.ValidationError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, context.Canceled):
		return exitcode.Interrupted
	case errors.As(err, &unsupportedErr), errors.As(err, &validationErr):
		return exitcode.InvalidConfig
	case errors.As(err, &netErr):
		return exitcode.NetworkFailure
	default:
		return exitcode.RuntimeFailure
	}
}
