package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func UserConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, "rad", "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rad", "config.yaml"), nil
}

func ProjectConfigPath(cwd string) string {
	return filepath.Join(cwd, "rad.yaml")
}

func defaultOutputPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "bin", executableName())
	}
	return filepath.Join(home, "bin", executableName())
}

func defaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, defaultCacheDirName)
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), defaultCacheDirName)
	}
	return filepath.Join(cache, defaultCacheDirName)
}

func ExpandPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(strings.TrimSpace(raw))
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
	}

	return filepath.Clean(expanded), nil
}

// Resolve expands every path-valued default in place.
func (c *Config) Resolve() error {
	output, err := ExpandPath(c.Defaults.Output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	c.Defaults.Output = output

	cacheDir, err := ExpandPath(c.Defaults.CacheDir)
	if err != nil {
		return fmt.Errorf("resolve cache dir: %w", err)
	}
	c.Defaults.CacheDir = cacheDir

	if strings.ContainsAny(c.Defaults.Binary, `/\~$`) {
		binary, err := ExpandPath(c.Defaults.Binary)
		if err != nil {
			return fmt.Errorf("resolve binary path: %w", err)
		}
		c.Defaults.Binary = binary
	}
	return nil
}
