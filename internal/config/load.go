package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoadOptions struct {
	ExplicitPath string
	WorkingDir   string
	Env          map[string]string
}

type fileConfig struct {
	Version  *int         `yaml:"version"`
	Defaults fileDefaults `yaml:"defaults"`
}

type fileDefaults struct {
	Output                *string `yaml:"output"`
	Binary                *string `yaml:"binary"`
	CacheDir              *string `yaml:"cache_dir"`
	Channel               *string `yaml:"channel"`
	ReleasesURL           *string `yaml:"releases_url"`
	DownloadURL           *string `yaml:"download_url"`
	UserAgent             *string `yaml:"user_agent"`
	PerPage               *int    `yaml:"per_page"`
	RequestTimeoutSeconds *int    `yaml:"request_timeout_seconds"`
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	cwd := opts.WorkingDir
	if strings.TrimSpace(cwd) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		cwd = wd
	}

	env := opts.Env
	if env == nil {
		env = osEnvMap()
	}

	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if err := mergeFile(&cfg, explicit, true); err != nil {
			return Config{}, err
		}
	} else {
		userPath, err := UserConfigPath()
		if err != nil {
			return Config{}, err
		}
		if err := mergeFile(&cfg, userPath, false); err != nil {
			return Config{}, err
		}

		if err := mergeFile(&cfg, ProjectConfigPath(cwd), false); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	normalize(&cfg)
	if err := cfg.Resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Version != nil {
		cfg.Version = *fc.Version
	}
	mergeString(&cfg.Defaults.Output, fc.Defaults.Output)
	mergeString(&cfg.Defaults.Binary, fc.Defaults.Binary)
	mergeString(&cfg.Defaults.CacheDir, fc.Defaults.CacheDir)
	mergeString(&cfg.Defaults.ReleasesURL, fc.Defaults.ReleasesURL)
	mergeString(&cfg.Defaults.DownloadURL, fc.Defaults.DownloadURL)
	mergeString(&cfg.Defaults.UserAgent, fc.Defaults.UserAgent)
	if fc.Defaults.Channel != nil {
		cfg.Defaults.Channel = Channel(strings.TrimSpace(*fc.Defaults.Channel))
	}
	if fc.Defaults.PerPage != nil {
		cfg.Defaults.PerPage = *fc.Defaults.PerPage
	}
	if fc.Defaults.RequestTimeoutSeconds != nil {
		cfg.Defaults.RequestTimeoutSeconds = *fc.Defaults.RequestTimeoutSeconds
	}

	return nil
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	stringOverrides := map[string]*string{
		"RAD_OUTPUT":       &cfg.Defaults.Output,
		"RAD_BINARY":       &cfg.Defaults.Binary,
		"RAD_CACHE_DIR":    &cfg.Defaults.CacheDir,
		"RAD_RELEASES_URL": &cfg.Defaults.ReleasesURL,
		"RAD_DOWNLOAD_URL": &cfg.Defaults.DownloadURL,
		"RAD_USER_AGENT":   &cfg.Defaults.UserAgent,
	}
	for key, dst := range stringOverrides {
		if value := strings.TrimSpace(env[key]); value != "" {
			*dst = value
		}
	}

	if value := strings.TrimSpace(env["RAD_CHANNEL"]); value != "" {
		cfg.Defaults.Channel = Channel(value)
	}
	if value := strings.TrimSpace(env["RAD_PER_PAGE"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RAD_PER_PAGE value %q: %w", value, err)
		}
		cfg.Defaults.PerPage = parsed
	}
	if value := strings.TrimSpace(env["RAD_REQUEST_TIMEOUT_SECONDS"]); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RAD_REQUEST_TIMEOUT_SECONDS value %q: %w", value, err)
		}
		cfg.Defaults.RequestTimeoutSeconds = parsed
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Defaults.Channel = Channel(strings.ToLower(string(cfg.Defaults.Channel)))
	if cfg.Defaults.Channel == "" {
		cfg.Defaults.Channel = ChannelStable
	}
	cfg.Defaults.ReleasesURL = strings.TrimRight(cfg.Defaults.ReleasesURL, "/")
	cfg.Defaults.DownloadURL = strings.TrimRight(cfg.Defaults.DownloadURL, "/")
}

func osEnvMap() map[string]string {
	result := map[string]string{}
	for _, pair := range os.Environ() {
		pieces := strings.SplitN(pair, "=", 2)
		if len(pieces) == 2 {
			result[pieces[0]] = pieces[1]
		}
	}
	return result
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	return nil
}
