// Package release lists rust-analyzer releases from the GitHub releases API.
package release

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/failure"
)

const maxRedirects = 10

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	userAgent  string
	token      string
	httpClient HTTPClient
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c HTTPClient) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}

// WithToken sends the token as a bearer credential, which lifts the
// anonymous rate limit.
func WithToken(token string) Option {
	return func(client *Client) {
		client.token = strings.TrimSpace(token)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = config.DefaultReleasesURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  config.DefaultUserAgent,
		httpClient: NewHTTPClient(0),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTPClient returns an http.Client that caps redirects. A zero
// timeout leaves requests bound only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// List fetches a single page of releases.
func (c *Client) List(ctx context.Context, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Page{}, &failure.NetworkError{Op: "list releases", URL: c.baseURL, Err: err}
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	u.RawQuery = q.Encode()
	reqURL := u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Page{}, &failure.NetworkError{Op: "list releases", URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("listing releases", "url", reqURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, &failure.NetworkError{Op: "list releases", URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return Page{}, &failure.NetworkError{Op: "list releases", URL: reqURL, StatusCode: resp.StatusCode}
	}

	raw, err := readLimited(resp.Body)
	if errors.Is(err, errBodyTooLarge) {
		return Page{}, &failure.DecodeError{Source: reqURL, Err: err}
	}
	if err != nil {
		return Page{}, &failure.NetworkError{Op: "list releases", URL: reqURL, Err: err}
	}
	body, err := decodeBody(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return Page{}, &failure.DecodeError{Source: reqURL, Err: err}
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return Page{}, &failure.DecodeError{Source: reqURL, Err: err}
	}
	c.logger.Debug("listed releases", "page", page, "count", len(releases))

	if len(releases) == 0 {
		return Page{}, nil
	}
	return Page{Releases: releases, Next: page + 1}, nil
}

// Releases walks every page starting at the first. Iteration ends after
// an empty page or after the first error, which is yielded once.
func (c *Client) Releases(ctx context.Context, perPage int) iter.Seq2[Release, error] {
	return func(yield func(Release, error) bool) {
		page := 1
		for {
			p, err := c.List(ctx, page, perPage)
			if err != nil {
				yield(Release{}, err)
				return
			}
			if p.Done() {
				return
			}
			for _, r := range p.Releases {
				if !yield(r, nil) {
					return
				}
			}
			page = p.Next
		}
	}
}

func decodeBody(encoding string, raw []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		defer zr.Close()
		return readLimited(zr)
	case "deflate":
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			out, err := readLimited(zr)
			if err == nil || errors.Is(err, errBodyTooLarge) {
				return out, err
			}
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		out, err := readLimited(fr)
		if err != nil {
			return nil, fmt.Errorf("deflate body: %w", err)
		}
		return out, nil
	default:
		return nil, errors.New("unsupported content encoding " + strconv.Quote(encoding))
	}
}

// maxBodyBytes caps both the raw and the decompressed response body.
var maxBodyBytes int64 = 16 << 20

var errBodyTooLarge = errors.New("response body exceeds size limit")

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return data, nil
}
