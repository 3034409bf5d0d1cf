package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/jaa/rad/internal/auth"
)

const radEnvPrefix = "RAD_"

var dotEnvFiles = []string{".env", ".env.local"}

type dotEnvEntry struct {
	Key   string
	Value string
}

// dotEnvKeyAllowed reports whether a .env key configures rad. Everything else
// in the file is ignored.
func dotEnvKeyAllowed(key string) bool {
	return strings.HasPrefix(key, radEnvPrefix) || slices.Contains(auth.TokenEnvKeys, key)
}

// loadDotEnvFiles applies .env then .env.local from dir. Keys already present
// in environ are left alone; .env.local wins over .env.
func loadDotEnvFiles(dir string, environ []string, setenv func(string, string) error) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	if setenv == nil {
		return errors.New("setenv is required")
	}

	preset := make(map[string]bool, len(environ))
	for _, pair := range environ {
		if key, _, ok := strings.Cut(pair, "="); ok {
			preset[key] = true
		}
	}

	for _, name := range dotEnvFiles {
		path := filepath.Join(dir, name)
		entries, err := readDotEnvFile(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if preset[entry.Key] || !dotEnvKeyAllowed(entry.Key) {
				continue
			}
			if err := setenv(entry.Key, entry.Value); err != nil {
				return fmt.Errorf("set %s from %s: %w", entry.Key, path, err)
			}
		}
	}
	return nil
}

// readDotEnvFile returns nil entries when path does not exist.
func readDotEnvFile(path string) ([]dotEnvEntry, error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var entries []dotEnvEntry
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	for line := 1; scanner.Scan(); line++ {
		entry, ok, err := parseDotEnvLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("parse %s:%d: %w", path, line, err)
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return entries, nil
}

func parseDotEnvLine(raw string) (dotEnvEntry, bool, error) {
	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '#' {
		return dotEnvEntry{}, false, nil
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return dotEnvEntry{}, false, errors.New("expected KEY=VALUE")
	}
	key = strings.TrimSpace(key)
	if !validEnvKey(key) {
		return dotEnvEntry{}, false, fmt.Errorf("invalid key %q", key)
	}

	value, err := unquoteEnvValue(strings.TrimSpace(value))
	if err != nil {
		return dotEnvEntry{}, false, fmt.Errorf("invalid quoted value for %q", key)
	}
	return dotEnvEntry{Key: key, Value: value}, true, nil
}

func unquoteEnvValue(value string) (string, error) {
	if len(value) < 2 {
		return value, nil
	}
	switch first, last := value[0], value[len(value)-1]; {
	case first == '"' && last == '"':
		return strconv.Unquote(value)
	case first == '\'' && last == '\'':
		return value[1 : len(value)-1], nil
	}
	return value, nil
}

func validEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
