// Package install downloads a rust-analyzer release artifact and swaps it
// into place.
//
// The compressed artifact is streamed into a uniquely named file in the
// cache directory, decompressed into a hidden sibling of the destination,
// and renamed over the destination. Every temporary file is removed
// whether or not the install succeeds.
package install

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/failure"
	"github.com/jaa/rad/internal/fileops"
	"github.com/jaa/rad/internal/platform"
	"github.com/jaa/rad/internal/release"
)

type Installer struct {
	artifact    string
	downloadURL string
	cacheDir    string
	userAgent   string
	httpClient  release.HTTPClient
	logger      *slog.Logger
	newID       func() string
}

type Option func(*Installer)

func WithHTTPClient(c release.HTTPClient) Option {
	return func(i *Installer) {
		if c != nil {
			i.httpClient = c
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(i *Installer) {
		if ua != "" {
			i.userAgent = ua
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstaller fails with UnsupportedPlatformError before any network
// access when info has no published artifact.
func NewInstaller(info platform.Info, downloadURL, cacheDir string, opts ...Option) (*Installer, error) {
	artifact, err := ArtifactName(info)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cacheDir) == "" {
		return nil, errors.New("installer cache directory is empty")
	}
	if downloadURL == "" {
		downloadURL = config.DefaultDownloadURL
	}
	i := &Installer{
		artifact:    artifact,
		downloadURL: strings.TrimRight(downloadURL, "/"),
		cacheDir:    cacheDir,
		userAgent:   config.DefaultUserAgent,
		httpClient:  release.NewHTTPClient(0),
		logger:      slog.New(slog.DiscardHandler),
		newID:       func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Installer) Artifact() string {
	return i.artifact
}

// ArtifactURL is where the artifact for tag is downloaded from.
func (i *Installer) ArtifactURL(tag string) string {
	return fmt.Sprintf("%s/download/%s/%s", i.downloadURL, url.PathEscape(tag), i.artifact)
}

func (i *Installer) Install(ctx context.Context, tag, destination string) error {
	if err := validateTag(tag); err != nil {
		return err
	}
	if strings.TrimSpace(destination) == "" {
		return errors.New("install destination is empty")
	}

	id := i.newID()
	cachePath := filepath.Join(i.cacheDir, fmt.Sprintf("rust-analyzer-%s-%s.gz", tag, id))
	destDir := filepath.Dir(destination)
	partialPath := filepath.Join(destDir, fmt.Sprintf(".%s.%s.partial", filepath.Base(destination), id))
	defer i.cleanup(cachePath, partialPath)

	if err := i.download(ctx, i.ArtifactURL(tag), cachePath); err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &failure.FileError{Stage: "install", Path: destDir, Err: err}
	}
	i.logger.Debug("decompressing artifact", "from", cachePath, "to", partialPath)
	if err := decompress(cachePath, partialPath); err != nil {
		return &failure.FileError{Stage: "decompress", Path: cachePath, Err: err}
	}

	if err := fileops.SetExecutable(partialPath); err != nil {
		return &failure.FileError{Stage: "install", Path: partialPath, Err: err}
	}
	if err := fileops.ReplaceFileSafely(partialPath, destination); err != nil {
		return &failure.FileError{Stage: "install", Path: destination, Err: err}
	}
	i.logger.Debug("installed artifact", "tag", tag, "destination", destination)
	return nil
}

func (i *Installer) download(ctx context.Context, artifactURL, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artifactURL, nil)
	if err != nil {
		return &failure.NetworkError{Op: "download", URL: artifactURL, Err: err}
	}
	req.Header.Set("User-Agent", i.userAgent)
	// The artifact is already gzip; keep the transport from decoding it.
	req.Header.Set("Accept-Encoding", "identity")

	i.logger.Debug("downloading artifact", "url", artifactURL, "to", cachePath)
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return &failure.NetworkError{Op: "download", URL: artifactURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &failure.NetworkError{Op: "download", URL: artifactURL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(i.cacheDir, 0o755); err != nil {
		return &failure.FileError{Stage: "download", Path: i.cacheDir, Err: err}
	}
	out, err := os.OpenFile(cachePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return &failure.FileError{Stage: "download", Path: cachePath, Err: err}
	}

	body := &readRecorder{r: resp.Body}
	written, err := io.Copy(out, body)
	closeErr := out.Close()
	if err != nil {
		if body.err != nil {
			return &failure.NetworkError{Op: "download", URL: artifactURL, Err: body.err}
		}
		return &failure.FileError{Stage: "download", Path: cachePath, Err: err}
	}
	if closeErr != nil {
		return &failure.FileError{Stage: "download", Path: cachePath, Err: closeErr}
	}
	i.logger.Debug("downloaded artifact", "bytes", written)
	return nil
}

func (i *Installer) cleanup(paths ...string) {
	for _, path := range paths {
		if err := fileops.RemoveIfExists(path); err != nil {
			i.logger.Warn("cleanup temporary file", "path", path, "error", err)
		}
	}
}

func decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		_ = out.Close()
		return fmt.Errorf("inflate: %w", err)
	}
	return out.Close()
}

// readRecorder remembers the first read error so a broken response body
// can be told apart from a failed disk write.
type readRecorder struct {
	r   io.Reader
	err error
}

func (r *readRecorder) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

func validateTag(tag string) error {
	if strings.TrimSpace(tag) == "" {
		return errors.New("release tag is empty")
	}
	if strings.ContainsAny(tag, `/\`) || tag == "." || tag == ".." {
		return fmt.Errorf("invalid release tag %q", tag)
	}
	return nil
}
