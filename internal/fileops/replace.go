// Package fileops holds the filesystem primitives the installer relies on.
package fileops

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// BackupSuffix is appended to a destination while its replacement is
// being moved into place.
const BackupSuffix = ".rad.bak"

var (
	statFile   = os.Stat
	renameFile = os.Rename
	removeFile = os.Remove
	chmodFile  = os.Chmod
)

// ReplaceFileSafely moves tempPath over targetPath. An existing target is
// kept as a backup until the move succeeds and is restored if it fails, so
// targetPath always holds either the old file or the complete new one.
func ReplaceFileSafely(tempPath string, targetPath string) error {
	temp := strings.TrimSpace(tempPath)
	target := strings.TrimSpace(targetPath)
	if temp == "" {
		return fmt.Errorf("replacement temp path is empty")
	}
	if target == "" {
		return fmt.Errorf("replacement target path is empty")
	}
	if temp == target {
		return fmt.Errorf("replacement temp and target paths must differ")
	}

	tempInfo, err := statFile(temp)
	if err != nil {
		return fmt.Errorf("stat replacement temp %q: %w", temp, err)
	}
	if tempInfo.IsDir() {
		return fmt.Errorf("replacement temp path is a directory: %s", temp)
	}

	backup := target + BackupSuffix
	if err := RemoveIfExists(backup); err != nil {
		return fmt.Errorf("remove stale replacement backup: %w", err)
	}

	hadTarget := false
	if info, err := statFile(target); err == nil {
		if info.IsDir() {
			return fmt.Errorf("replacement target is a directory: %s", target)
		}
		hadTarget = true
		if err := renameFile(target, backup); err != nil {
			return fmt.Errorf("move existing target to backup: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat replacement target %q: %w", target, err)
	}

	if err := renameFile(temp, target); err != nil {
		if hadTarget {
			if rollbackErr := renameFile(backup, target); rollbackErr != nil {
				return fmt.Errorf("replace failed (%v) and rollback failed (%w)", err, rollbackErr)
			}
		}
		return fmt.Errorf("replace target with temp: %w", err)
	}

	if hadTarget {
		if err := removeFile(backup); err != nil {
			return fmt.Errorf("cleanup replacement backup %q: %w", backup, err)
		}
	}
	return nil
}

// RemoveIfExists deletes path and treats a missing file as success.
func RemoveIfExists(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return nil
}

// SetExecutable marks path rwxr-xr-x. It is a no-op on Windows.
func SetExecutable(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := chmodFile(path, 0o755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}
	return nil
}
