package engine

import (
	"context"
	"strings"

	"github.com/jaa/rad/internal/failure"
)

type Prober struct {
	Binary string
	Runner ExecRunner
}

func NewProber(binary string, runner ExecRunner) *Prober {
	if runner == nil {
		runner = NewSubprocessRunner()
	}
	return &Prober{Binary: binary, Runner: runner}
}

// Probe returns the installed version, or nil when the binary does not
// exist.
func (p *Prober) Probe(ctx context.Context) (*LocalVersion, error) {
	display := p.Binary + " --version"
	result := p.Runner.Run(ctx, ExecSpec{
		Bin:  p.Binary,
		Args: []string{"--version"},
	})
	if result.NotFound {
		return nil, nil
	}
	if result.Interrupted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if result.ExitCode != 0 || result.Err != nil {
		return nil, &failure.CommandError{
			Command:  display,
			ExitCode: result.ExitCode,
			Stderr:   result.StderrTail,
			Err:      result.Err,
		}
	}

	first, _, _ := strings.Cut(result.Stdout, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return nil, &failure.ParseError{Input: result.Stdout, Reason: "no output line"}
	}
	version, err := ParseVersion(first)
	if err != nil {
		return nil, err
	}
	return &version, nil
}
