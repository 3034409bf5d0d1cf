package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}

func Validate(cfg Config) error {
	problems := []string{}

	if cfg.Version != 1 {
		problems = append(problems, "version must be 1")
	}

	output, err := ExpandPath(cfg.Defaults.Output)
	if err != nil || strings.TrimSpace(output) == "" {
		problems = append(problems, "defaults.output must be a valid path")
	} else if !filepath.IsAbs(output) {
		problems = append(problems, "defaults.output must resolve to an absolute path")
	}

	cacheDir, err := ExpandPath(cfg.Defaults.CacheDir)
	if err != nil || strings.TrimSpace(cacheDir) == "" {
		problems = append(problems, "defaults.cache_dir must be a valid path")
	} else if !filepath.IsAbs(cacheDir) {
		problems = append(problems, "defaults.cache_dir must resolve to an absolute path")
	}

	switch cfg.Defaults.Channel {
	case ChannelStable, ChannelNightly:
	default:
		problems = append(problems, fmt.Sprintf("defaults.channel %q must be stable or nightly", cfg.Defaults.Channel))
	}

	if err := validateURL(cfg.Defaults.ReleasesURL); err != nil {
		problems = append(problems, fmt.Sprintf("defaults.releases_url is invalid: %v", err))
	}
	if err := validateURL(cfg.Defaults.DownloadURL); err != nil {
		problems = append(problems, fmt.Sprintf("defaults.download_url is invalid: %v", err))
	}
	if strings.TrimSpace(cfg.Defaults.UserAgent) == "" {
		problems = append(problems, "defaults.user_agent must be set")
	}
	if cfg.Defaults.PerPage <= 0 || cfg.Defaults.PerPage > 100 {
		problems = append(problems, "defaults.per_page must be between 1 and 100")
	}
	if cfg.Defaults.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "defaults.request_timeout_seconds must be > 0")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url must be set")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
