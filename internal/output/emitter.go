package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type EventEmitter interface {
	Emit(event Event) error
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

type HumanOptions struct {
	Quiet   bool
	Verbose bool
	NoColor bool
}

type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool
	mu      sync.Mutex

	errorStyle   lipgloss.Style
	warnStyle    lipgloss.Style
	successStyle lipgloss.Style
}

func NewHumanEmitter(stdout, stderr io.Writer, quiet, verbose bool) *HumanEmitter {
	return NewHumanEmitterWithOptions(stdout, stderr, HumanOptions{Quiet: quiet, Verbose: verbose})
}

// NewHumanEmitterWithOptions colors output only when the writer is a
// terminal and NoColor is unset.
func NewHumanEmitterWithOptions(stdout, stderr io.Writer, opts HumanOptions) *HumanEmitter {
	outRenderer := lipgloss.NewRenderer(stdout)
	errRenderer := lipgloss.NewRenderer(stderr)
	if opts.NoColor {
		outRenderer.SetColorProfile(termenv.Ascii)
		errRenderer.SetColorProfile(termenv.Ascii)
	}
	return &HumanEmitter{
		stdout:       stdout,
		stderr:       stderr,
		quiet:        opts.Quiet,
		verbose:      opts.Verbose,
		errorStyle:   errRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warnStyle:    errRenderer.NewStyle().Foreground(lipgloss.Color("11")),
		successStyle: outRenderer.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

func (e *HumanEmitter) Emit(event Event) error {
	line := event.Message
	if line == "" {
		line = string(event.Event)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Level {
	case LevelError:
		_, err := fmt.Fprintln(e.stderr, e.errorStyle.Render("ERROR:"), line)
		return err
	case LevelWarn:
		if e.quiet {
			return nil
		}
		_, err := fmt.Fprintln(e.stderr, e.warnStyle.Render("WARN:"), line)
		return err
	default:
		if e.quiet && event.Event != EventCheckFinished {
			return nil
		}
		if !e.verbose && (event.Event == EventReleaseSkipped || event.Event == EventCheckStarted) {
			return nil
		}
		if event.Event == EventInstallFinished || event.Event == EventUpdateAvailable {
			line = e.successStyle.Render(line)
		}
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	}
}

// DiscardEmitter drops every event.
type DiscardEmitter struct{}

func (DiscardEmitter) Emit(Event) error { return nil }

type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (e *MultiEmitter) Emit(event Event) error {
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			return err
		}
	}
	return nil
}
