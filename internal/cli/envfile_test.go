package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDotEnvFilesLoadsEnvAndLocalOverrides(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	localPath := filepath.Join(tmp, ".env.local")

	if err := os.WriteFile(envPath, []byte("RAD_OUTPUT=/tmp/bin/rust-analyzer-a\nRAD_PER_PAGE=1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.WriteFile(localPath, []byte("RAD_OUTPUT=/tmp/bin/rust-analyzer-b\n"), 0o644); err != nil {
		t.Fatalf("write .env.local: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, nil, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if values["RAD_OUTPUT"] != "/tmp/bin/rust-analyzer-b" {
		t.Fatalf("expected .env.local to override .env, got %q", values["RAD_OUTPUT"])
	}
	if values["RAD_PER_PAGE"] != "1" {
		t.Fatalf("expected RAD_PER_PAGE from .env, got %q", values["RAD_PER_PAGE"])
	}
}

func TestLoadDotEnvFilesDoesNotOverrideProcessEnv(t *testing.T) {
	tmp := t.TempDir()
	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("RAD_OUTPUT=/tmp/bin/rust-analyzer\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, []string{"RAD_OUTPUT=/already/set"}, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if _, exists := values["RAD_OUTPUT"]; exists {
		t.Fatalf("expected existing process env to be protected")
	}
}

func TestLoadDotEnvFilesIgnoresUnrelatedKeys(t *testing.T) {
	tmp := t.TempDir()
	payload := "PATH=/evil\nHOME=/nowhere\nGITHUB_TOKEN=ghp_abc\nRAD_CHANNEL=nightly\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	values := map[string]string{}
	setenv := func(k, v string) error {
		values[k] = v
		return nil
	}

	if err := loadDotEnvFiles(tmp, nil, setenv); err != nil {
		t.Fatalf("load dotenv files: %v", err)
	}
	if len(values) != 2 || values["GITHUB_TOKEN"] != "ghp_abc" || values["RAD_CHANNEL"] != "nightly" {
		t.Fatalf("expected only rad and token keys, got %v", values)
	}
}

func TestLoadDotEnvFilesReportsMalformedLine(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte("# comment\nRAD_OUTPUT\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	err := loadDotEnvFiles(tmp, nil, func(string, string) error { return nil })
	if err == nil || !strings.Contains(err.Error(), ".env:2") {
		t.Fatalf("expected line-numbered parse error, got %v", err)
	}
}

func TestParseDotEnvLineSupportsExportAndQuotedValues(t *testing.T) {
	entry, ok, err := parseDotEnvLine("export RAD_OUTPUT=\"/Users/test/bin/rust-analyzer\"")
	if err != nil {
		t.Fatalf("parse line: %v", err)
	}
	if !ok || entry.Key != "RAD_OUTPUT" || entry.Value != "/Users/test/bin/rust-analyzer" {
		t.Fatalf("unexpected parse result: ok=%v entry=%+v", ok, entry)
	}

	entry, ok, err = parseDotEnvLine("RAD_GITHUB_TOKEN='abc123'")
	if err != nil {
		t.Fatalf("parse single-quoted line: %v", err)
	}
	if !ok || entry.Key != "RAD_GITHUB_TOKEN" || entry.Value != "abc123" {
		t.Fatalf("unexpected single-quoted parse result: ok=%v entry=%+v", ok, entry)
	}

	if _, _, err := parseDotEnvLine("9RAD=1"); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
