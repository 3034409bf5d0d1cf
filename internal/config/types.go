package config

import "runtime"

type Channel string

const (
	ChannelStable  Channel = "stable"
	ChannelNightly Channel = "nightly"
)

const (
	DefaultReleasesURL  = "https://api.github.com/repos/rust-lang/rust-analyzer/releases"
	DefaultDownloadURL  = "https://github.com/rust-lang/rust-analyzer/releases"
	DefaultUserAgent    = "rust-analyzer-downloader"
	DefaultPerPage      = 3
	DefaultTimeoutSecs  = 300
	defaultBinaryName   = "rust-analyzer"
	defaultCacheDirName = "rad"
)

type Config struct {
	Version  int      `yaml:"version"`
	Defaults Defaults `yaml:"defaults"`
}

type Defaults struct {
	Output                string  `yaml:"output"`
	Binary                string  `yaml:"binary,omitempty"`
	CacheDir              string  `yaml:"cache_dir"`
	Channel               Channel `yaml:"channel"`
	ReleasesURL           string  `yaml:"releases_url"`
	DownloadURL           string  `yaml:"download_url"`
	UserAgent             string  `yaml:"user_agent"`
	PerPage               int     `yaml:"per_page"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
	GitHubToken           string  `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Defaults: Defaults{
			Output:                defaultOutputPath(),
			CacheDir:              defaultCacheDir(),
			Channel:               ChannelStable,
			ReleasesURL:           DefaultReleasesURL,
			DownloadURL:           DefaultDownloadURL,
			UserAgent:             DefaultUserAgent,
			PerPage:               DefaultPerPage,
			RequestTimeoutSeconds: DefaultTimeoutSecs,
		},
	}
}

// ProbeBinary returns the executable checked for the installed version.
// Without an explicit binary it is the install destination itself.
func (d Defaults) ProbeBinary() string {
	if d.Binary != "" {
		return d.Binary
	}
	return d.Output
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return defaultBinaryName + ".exe"
	}
	return defaultBinaryName
}
