package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/output"
	"github.com/jaa/rad/internal/release"
)

// checkPageSize is how many of the most recent releases a check looks at.
// The newest stable release and the nightly release are always on top.
const checkPageSize = 2

type ReleaseLister interface {
	List(ctx context.Context, page, perPage int) (release.Page, error)
}

type VersionProbe interface {
	Probe(ctx context.Context) (*LocalVersion, error)
}

type ArtifactInstaller interface {
	Install(ctx context.Context, tag, destination string) error
}

type Checker struct {
	Lister    ReleaseLister
	Probe     VersionProbe
	Installer ArtifactInstaller
	Emitter   output.EventEmitter
	Logger    *slog.Logger
	Now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChecker(lister ReleaseLister, probe VersionProbe, installer ArtifactInstaller, emitter output.EventEmitter, logger *slog.Logger) *Checker {
	if emitter == nil {
		emitter = output.DiscardEmitter{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Checker{
		Lister:    lister,
		Probe:     probe,
		Installer: installer,
		Emitter:   emitter,
		Logger:    logger,
		Now:       time.Now,
	}
}

type verdict int

const (
	verdictSkipped verdict = iota
	verdictUpToDate
	verdictNewer
	verdictFailed
)

// Check evaluates every candidate concurrently, then installs at most one
// newer release: the newest by date tag, falling back to page order for
// tags that are not dates.
func (c *Checker) Check(ctx context.Context, opts CheckOptions) (CheckResult, error) {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Emitter == nil {
		c.Emitter = output.DiscardEmitter{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Channel == "" {
		opts.Channel = config.ChannelStable
	}
	if opts.Download && opts.Output == "" {
		return CheckResult{}, errors.New("check: download requested without an output path")
	}

	result := CheckResult{}
	current, err := c.Probe.Probe(ctx)
	if err != nil {
		return result, fmt.Errorf("probe installed version: %w", err)
	}
	result.Current = current
	if current == nil {
		c.Logger.Debug("no installed version found")
	} else {
		c.Logger.Debug("installed version", "semantic", current.SemanticVersion, "date", current.DateVersion)
	}

	page, err := c.Lister.List(ctx, 1, checkPageSize)
	if err != nil {
		return result, err
	}
	result.Candidates = len(page.Releases)

	c.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventCheckStarted,
		Message: fmt.Sprintf("checking %d release(s) on the %s channel", result.Candidates, opts.Channel),
		Details: map[string]any{
			"channel":  string(opts.Channel),
			"download": opts.Download,
			"current":  currentDate(current),
		},
	})

	verdicts := make([]verdict, len(page.Releases))
	var g errgroup.Group
	for i, rel := range page.Releases {
		g.Go(func() error {
			v, err := c.evaluate(rel, current, opts.Channel)
			verdicts[i] = v
			return err
		})
	}
	evalErr := g.Wait()

	var newer []release.Release
	for i, v := range verdicts {
		switch v {
		case verdictSkipped:
			result.Skipped++
		case verdictUpToDate:
			result.UpToDate++
		case verdictFailed:
			result.Failed++
		case verdictNewer:
			newer = append(newer, page.Releases[i])
		}
	}

	var installErr error
	if len(newer) > 0 {
		target := newestRelease(newer)
		for _, rel := range newer {
			switch {
			case rel.Tag != target.Tag && opts.Download:
				result.Skipped++
				c.emit(output.Event{
					Level:   output.LevelInfo,
					Event:   output.EventReleaseSkipped,
					Tag:     rel.Tag,
					Message: fmt.Sprintf("skipping %s (superseded by %s)", rel.Tag, target.Tag),
					Details: map[string]any{"reason": "superseded", "target": target.Tag},
				})
			case !opts.Download:
				result.Available = append(result.Available, rel.Tag)
				c.emit(output.Event{
					Level:   output.LevelInfo,
					Event:   output.EventUpdateAvailable,
					Tag:     rel.Tag,
					Message: fmt.Sprintf("update available: %s", rel.Tag),
					Details: map[string]any{"current": currentDate(current)},
				})
			}
		}
		if opts.Download {
			if err := c.install(ctx, target.Tag, opts.Output); err != nil {
				result.Failed++
				installErr = fmt.Errorf("release %s: %w", target.Tag, err)
			} else {
				result.Installed = append(result.Installed, target.Tag)
			}
		}
	}
	err = errors.Join(evalErr, installErr)

	level := output.LevelInfo
	if err != nil {
		level = output.LevelError
	}
	c.emit(output.Event{
		Level:   level,
		Event:   output.EventCheckFinished,
		Message: summarize(result),
		Details: map[string]any{
			"candidates": result.Candidates,
			"skipped":    result.Skipped,
			"up_to_date": result.UpToDate,
			"available":  result.Available,
			"installed":  result.Installed,
			"failed":     result.Failed,
		},
	})
	return result, err
}

func (c *Checker) evaluate(rel release.Release, current *LocalVersion, channel config.Channel) (verdict, error) {
	if channelMismatch(rel, channel) {
		c.emit(output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventReleaseSkipped,
			Tag:     rel.Tag,
			Message: fmt.Sprintf("skipping %s (not on the %s channel)", rel.Tag, channel),
			Details: map[string]any{"reason": "channel"},
		})
		return verdictSkipped, nil
	}
	if current == nil || channel == config.ChannelNightly {
		return verdictNewer, nil
	}

	newer, err := IsNewer(current.DateVersion, rel.Tag)
	if err != nil {
		c.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventInstallFailed,
			Tag:     rel.Tag,
			Message: fmt.Sprintf("compare %s: %v", rel.Tag, err),
			Details: map[string]any{"stage": "compare"},
		})
		return verdictFailed, fmt.Errorf("release %s: %w", rel.Tag, err)
	}
	if !newer {
		c.emit(output.Event{
			Level:   output.LevelInfo,
			Event:   output.EventUpToDate,
			Tag:     rel.Tag,
			Message: fmt.Sprintf("%s is up to date (release %s)", currentDate(current), rel.Tag),
		})
		return verdictUpToDate, nil
	}
	return verdictNewer, nil
}

// newestRelease picks the release with the latest date tag. Releases whose
// tags are not dates never displace an earlier pick.
func newestRelease(releases []release.Release) release.Release {
	best := releases[0]
	bestDate, bestOK := tagDate(best.Tag)
	for _, rel := range releases[1:] {
		date, ok := tagDate(rel.Tag)
		if ok && (!bestOK || date.After(bestDate)) {
			best, bestDate, bestOK = rel, date, true
		}
	}
	return best
}

func tagDate(tag string) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, tag)
	return date, err == nil
}

func (c *Checker) install(ctx context.Context, tag, destination string) error {
	lock := c.destinationLock(destination)
	lock.Lock()
	defer lock.Unlock()

	c.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventInstallStarted,
		Tag:     tag,
		Message: fmt.Sprintf("installing %s to %s", tag, destination),
		Details: map[string]any{"destination": destination},
	})

	start := c.Now()
	if err := c.Installer.Install(ctx, tag, destination); err != nil {
		c.emit(output.Event{
			Level:   output.LevelError,
			Event:   output.EventInstallFailed,
			Tag:     tag,
			Message: fmt.Sprintf("install %s failed: %v", tag, err),
			Details: map[string]any{"destination": destination, "stage": "install"},
		})
		return err
	}

	c.emit(output.Event{
		Level:   output.LevelInfo,
		Event:   output.EventInstallFinished,
		Tag:     tag,
		Message: fmt.Sprintf("installed %s to %s", tag, destination),
		Details: map[string]any{
			"destination": destination,
			"duration_ms": c.Now().Sub(start).Milliseconds(),
		},
	})
	return nil
}

func (c *Checker) destinationLock(destination string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks == nil {
		c.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := c.locks[destination]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[destination] = lock
	}
	return lock
}

func (c *Checker) emit(event output.Event) {
	event.Timestamp = c.Now()
	if err := c.Emitter.Emit(event); err != nil {
		c.Logger.Debug("emit event", "event", string(event.Event), "error", err)
	}
}

func channelMismatch(rel release.Release, channel config.Channel) bool {
	if channel == config.ChannelNightly {
		return !rel.IsNightly()
	}
	return rel.IsNightly()
}

func currentDate(current *LocalVersion) string {
	if current == nil {
		return "not installed"
	}
	return current.DateVersion
}

func summarize(result CheckResult) string {
	return fmt.Sprintf(
		"check finished: %d candidate(s), %d up to date, %d available, %d installed, %d skipped, %d failed",
		result.Candidates, result.UpToDate, len(result.Available), len(result.Installed), result.Skipped, result.Failed,
	)
}
