package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestReplaceFileSafelyReplacesExistingTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "rust-analyzer")
	replacement := filepath.Join(tmp, ".rust-analyzer.partial")

	if err := os.WriteFile(target, []byte("old"), 0o755); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o755); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}

	payload, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(payload) != "new" {
		t.Fatalf("expected replaced payload, got %q", string(payload))
	}
	if _, err := os.Stat(replacement); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected replacement file to be moved, stat err: %v", err)
	}
	if _, err := os.Stat(target + BackupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected backup cleanup, stat err: %v", err)
	}
}

func TestReplaceFileSafelyCreatesMissingTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "rust-analyzer")
	replacement := filepath.Join(tmp, ".rust-analyzer.partial")

	if err := os.WriteFile(replacement, []byte("new"), 0o755); err != nil {
		t.Fatalf("write replacement: %v", err)
	}
	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}
	payload, err := os.ReadFile(target)
	if err != nil || string(payload) != "new" {
		t.Fatalf("expected new target, got %q (err=%v)", string(payload), err)
	}
}

func TestReplaceFileSafelyDropsStaleBackup(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "rust-analyzer")
	replacement := filepath.Join(tmp, ".rust-analyzer.partial")

	for path, body := range map[string]string{
		target:                "old",
		replacement:           "new",
		target + BackupSuffix: "stale",
	} {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	if err := ReplaceFileSafely(replacement, target); err != nil {
		t.Fatalf("replace file safely: %v", err)
	}
	if _, err := os.Stat(target + BackupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale backup removal, stat err: %v", err)
	}
}

func TestReplaceFileSafelyRollbackRestoresOriginalTarget(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "rust-analyzer")
	replacement := filepath.Join(tmp, ".rust-analyzer.partial")

	if err := os.WriteFile(target, []byte("old"), 0o755); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.WriteFile(replacement, []byte("new"), 0o755); err != nil {
		t.Fatalf("write replacement: %v", err)
	}

	origRename := renameFile
	renameFile = func(oldpath string, newpath string) error {
		if oldpath == replacement && newpath == target {
			return errors.New("injected rename failure")
		}
		return os.Rename(oldpath, newpath)
	}
	t.Cleanup(func() {
		renameFile = origRename
	})

	err := ReplaceFileSafely(replacement, target)
	if err == nil {
		t.Fatalf("expected replacement failure")
	}

	payload, readErr := os.ReadFile(target)
	if readErr != nil {
		t.Fatalf("read restored target: %v", readErr)
	}
	if string(payload) != "old" {
		t.Fatalf("expected rollback to restore original payload, got %q", string(payload))
	}
	if _, statErr := os.Stat(target + BackupSuffix); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected backup to be restored, stat err: %v", statErr)
	}
}

func TestReplaceFileSafelyRejectsBadPaths(t *testing.T) {
	tmp := t.TempDir()
	if err := ReplaceFileSafely("", filepath.Join(tmp, "a")); err == nil {
		t.Fatalf("expected empty temp path error")
	}
	if err := ReplaceFileSafely(filepath.Join(tmp, "a"), ""); err == nil {
		t.Fatalf("expected empty target path error")
	}
	if err := ReplaceFileSafely(filepath.Join(tmp, "missing"), filepath.Join(tmp, "a")); err == nil {
		t.Fatalf("expected missing temp error")
	}
}

func TestRemoveIfExistsIgnoresMissingFile(t *testing.T) {
	if err := RemoveIfExists(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
}

func TestSetExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are POSIX-specific")
	}
	path := filepath.Join(t.TempDir(), "rust-analyzer")
	if err := os.WriteFile(path, []byte("bin"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := SetExecutable(path); err != nil {
		t.Fatalf("set executable: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
}
