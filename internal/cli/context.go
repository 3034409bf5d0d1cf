package cli

import (
	"io"
	"log/slog"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type GlobalOptions struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	Verbose    bool
	NoColor    bool
	NoInput    bool
}

type AppContext struct {
	Build BuildInfo
	IO    IOStreams
	Opts  GlobalOptions

	logger *slog.Logger
}

// Logger writes debug diagnostics to stderr with --verbose and discards
// them otherwise.
func (a *AppContext) Logger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	if !a.Opts.Verbose || a.IO.ErrOut == nil {
		a.logger = slog.New(slog.DiscardHandler)
		return a.logger
	}
	a.logger = slog.New(slog.NewTextHandler(a.IO.ErrOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return a.logger
}
