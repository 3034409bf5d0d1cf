package config

import "fmt"

func DefaultTemplate() string {
	defaults := DefaultConfig().Defaults
	return fmt.Sprintf(`version: 1
defaults:
  # Install destination for the rust-analyzer executable.
  output: %q
  # Executable probed for the installed version. Empty means "output".
  # binary: "rust-analyzer"
  cache_dir: %q
  # stable or nightly
  channel: %q
  releases_url: %q
  download_url: %q
  user_agent: %q
  per_page: %d
  request_timeout_seconds: %d
`, defaults.Output, defaults.CacheDir, defaults.Channel, defaults.ReleasesURL, defaults.DownloadURL, defaults.UserAgent, defaults.PerPage, defaults.RequestTimeoutSeconds)
}
