package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/failure"
	"github.com/jaa/rad/internal/output"
	"github.com/jaa/rad/internal/release"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu    sync.Mutex
	page  release.Page
	err   error
	calls []int
}

func (f *fakeLister) List(_ context.Context, page, perPage int) (release.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page, perPage)
	return f.page, f.err
}

type fakeProbe struct {
	version *LocalVersion
	err     error
}

func (f fakeProbe) Probe(context.Context) (*LocalVersion, error) {
	return f.version, f.err
}

type installCall struct {
	tag         string
	destination string
}

type fakeInstaller struct {
	mu      sync.Mutex
	calls   []installCall
	fail    map[string]error
	active  int
	overlap bool
}

func (f *fakeInstaller) Install(_ context.Context, tag, destination string) error {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.calls = append(f.calls, installCall{tag: tag, destination: destination})
	err := f.fail[tag]
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return err
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []output.Event
}

func (r *recordingEmitter) Emit(event output.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) names() []output.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]output.EventName, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.Event)
	}
	return names
}

func page(tags ...string) release.Page {
	p := release.Page{Next: 2}
	for _, tag := range tags {
		p.Releases = append(p.Releases, release.Release{Name: tag, Tag: tag})
	}
	return p
}

func TestCheckInstallsNewerStableReleaseWhenNothingInstalled(t *testing.T) {
	lister := &fakeLister{page: page("2023-01-01")}
	installer := &fakeInstaller{}
	emitter := &recordingEmitter{}
	checker := NewChecker(lister, fakeProbe{}, installer, emitter, nil)

	result, err := checker.Check(context.Background(), CheckOptions{
		Channel:  config.ChannelStable,
		Download: true,
		Output:   "/opt/bin/rust-analyzer",
	})

	require.NoError(t, err)
	require.Equal(t, []installCall{{tag: "2023-01-01", destination: "/opt/bin/rust-analyzer"}}, installer.calls)
	require.Equal(t, []string{"2023-01-01"}, result.Installed)
	require.Nil(t, result.Current)
	require.Equal(t, []int{1, checkPageSize}, lister.calls)

	names := emitter.names()
	require.Equal(t, output.EventCheckStarted, names[0])
	require.Equal(t, output.EventCheckFinished, names[len(names)-1])
	require.Contains(t, names, output.EventInstallStarted)
	require.Contains(t, names, output.EventInstallFinished)
}

func TestCheckStableChannelSkipsNightly(t *testing.T) {
	installer := &fakeInstaller{}
	checker := NewChecker(&fakeLister{page: page("nightly", "2023-01-01")}, fakeProbe{}, installer, nil, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable, Download: true, Output: "/tmp/ra"})

	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Len(t, installer.calls, 1)
	require.Equal(t, "2023-01-01", installer.calls[0].tag)
}

func TestCheckNightlyChannelAlwaysNewer(t *testing.T) {
	installer := &fakeInstaller{}
	probe := fakeProbe{version: &LocalVersion{SemanticVersion: "0.4.1173", DateVersion: "2099-01-01"}}
	checker := NewChecker(&fakeLister{page: page("nightly", "2023-01-01")}, probe, installer, nil, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelNightly, Download: true, Output: "/tmp/ra"})

	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Equal(t, []installCall{{tag: "nightly", destination: "/tmp/ra"}}, installer.calls)
}

func TestCheckReportOnlyNeverInstalls(t *testing.T) {
	installer := &fakeInstaller{}
	emitter := &recordingEmitter{}
	probe := fakeProbe{version: &LocalVersion{DateVersion: "2022-12-01"}}
	checker := NewChecker(&fakeLister{page: page("2023-01-01", "nightly")}, probe, installer, emitter, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable})

	require.NoError(t, err)
	require.Empty(t, installer.calls)
	require.Equal(t, []string{"2023-01-01"}, result.Available)
	require.Contains(t, emitter.names(), output.EventUpdateAvailable)
	require.NotContains(t, emitter.names(), output.EventInstallStarted)
}

func TestCheckUpToDate(t *testing.T) {
	installer := &fakeInstaller{}
	probe := fakeProbe{version: &LocalVersion{DateVersion: "2022-08-16"}}
	checker := NewChecker(&fakeLister{page: page("2022-08-17")}, probe, installer, nil, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable, Download: true, Output: "/tmp/ra"})

	require.NoError(t, err)
	require.Equal(t, 1, result.UpToDate)
	require.Empty(t, installer.calls)
}

func TestCheckRunsEveryCandidateAndReturnsError(t *testing.T) {
	installFailure := &failure.FileError{Stage: "download", Path: "/tmp/cache/x.gz", Err: errors.New("disk full")}
	installer := &fakeInstaller{fail: map[string]error{"2023-01-08": installFailure}}
	checker := NewChecker(&fakeLister{page: page("2023-01-08", "2023-01-01", "not-a-date")}, fakeProbe{version: &LocalVersion{DateVersion: "2022-12-01"}}, installer, nil, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable, Download: true, Output: "/tmp/ra"})

	require.Error(t, err)
	var fileErr *failure.FileError
	var parseErr *failure.ParseError
	require.ErrorAs(t, err, &fileErr)
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 2, result.Failed)
	require.Equal(t, 1, result.Skipped)
	require.Empty(t, result.Installed)
	require.Equal(t, []installCall{{tag: "2023-01-08", destination: "/tmp/ra"}}, installer.calls)
}

func TestCheckInstallsOnlyNewestWhenSeveralAreNewer(t *testing.T) {
	for name, tags := range map[string][]string{
		"newest first": {"2023-01-05", "2023-01-02"},
		"newest last":  {"2023-01-02", "2023-01-05"},
	} {
		t.Run(name, func(t *testing.T) {
			installer := &fakeInstaller{}
			emitter := &recordingEmitter{}
			checker := NewChecker(&fakeLister{page: page(tags...)}, fakeProbe{}, installer, emitter, nil)

			result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable, Download: true, Output: "/tmp/ra"})

			require.NoError(t, err)
			require.Equal(t, []installCall{{tag: "2023-01-05", destination: "/tmp/ra"}}, installer.calls)
			require.Equal(t, []string{"2023-01-05"}, result.Installed)
			require.Equal(t, 1, result.Skipped)

			var superseded []string
			for _, event := range emitter.events {
				if event.Event == output.EventReleaseSkipped && event.Details["reason"] == "superseded" {
					superseded = append(superseded, event.Tag)
				}
			}
			require.Equal(t, []string{"2023-01-02"}, superseded)
		})
	}
}

func TestCheckReportOnlyListsEveryNewerRelease(t *testing.T) {
	installer := &fakeInstaller{}
	checker := NewChecker(&fakeLister{page: page("2023-01-05", "2023-01-02")}, fakeProbe{}, installer, nil, nil)

	result, err := checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable})

	require.NoError(t, err)
	require.Empty(t, installer.calls)
	require.Equal(t, []string{"2023-01-05", "2023-01-02"}, result.Available)
}

func TestCheckSerializesConcurrentChecksToOneDestination(t *testing.T) {
	installer := &fakeInstaller{}
	checker := NewChecker(&fakeLister{page: page("2023-01-01")}, fakeProbe{}, installer, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = checker.Check(context.Background(), CheckOptions{Channel: config.ChannelStable, Download: true, Output: "/tmp/ra"})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, installer.calls, 3)
	require.False(t, installer.overlap)
}

func TestNewestReleaseKeepsPageOrderForUndatedTags(t *testing.T) {
	got := newestRelease([]release.Release{{Tag: "custom"}, {Tag: "other"}})
	require.Equal(t, "custom", got.Tag)

	got = newestRelease([]release.Release{{Tag: "custom"}, {Tag: "2023-01-02"}, {Tag: "2023-01-01"}})
	require.Equal(t, "2023-01-02", got.Tag)
}

func TestCheckSurfacesProbeAndListFailures(t *testing.T) {
	probeErr := &failure.CommandError{Command: "rust-analyzer --version", ExitCode: 1}
	_, err := NewChecker(&fakeLister{}, fakeProbe{err: probeErr}, &fakeInstaller{}, nil, nil).Check(context.Background(), CheckOptions{})
	var cmdErr *failure.CommandError
	require.ErrorAs(t, err, &cmdErr)

	listErr := &failure.NetworkError{Op: "list releases", URL: "https://example.test", StatusCode: 500}
	_, err = NewChecker(&fakeLister{err: listErr}, fakeProbe{}, &fakeInstaller{}, nil, nil).Check(context.Background(), CheckOptions{})
	var netErr *failure.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestCheckDownloadRequiresOutput(t *testing.T) {
	_, err := NewChecker(&fakeLister{}, fakeProbe{}, &fakeInstaller{}, nil, nil).Check(context.Background(), CheckOptions{Download: true})
	require.Error(t, err)
}
