package engine

import "github.com/jaa/rad/internal/config"

type ExecSpec struct {
	Bin  string
	Args []string
}

type ExecResult struct {
	ExitCode    int
	Interrupted bool
	NotFound    bool
	Stdout      string
	StderrTail  string
	Err         error
}

// LocalVersion is what the installed binary reports about itself.
type LocalVersion struct {
	SemanticVersion string
	DateVersion     string
}

type CheckOptions struct {
	Channel  config.Channel
	Download bool
	Output   string
}

type CheckResult struct {
	Current    *LocalVersion
	Candidates int
	Skipped    int
	UpToDate   int
	Available  []string
	Installed  []string
	Failed     int
}
