// Package platform detects the OS, architecture, and C library of the host
// so the installer can pick the matching release artifact.
//
// Linux distribution details come from gopsutil. Detection failures other
// than context cancellation fall back to the glibc default.
package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// C library flavours distinguished by the artifact table.
const (
	LibcNone = ""
	LibcGNU  = "gnu"
	LibcMusl = "musl"
)

// Info identifies one row of the artifact table.
type Info struct {
	OS      string // runtime.GOOS
	Arch    string // runtime.GOARCH
	Libc    string // LibcGNU or LibcMusl on Linux, empty elsewhere
	Distro  string // distro ID on Linux, e.g. "ubuntu", "alpine"
	Version string // distro version on Linux
}

func (i Info) String() string {
	parts := []string{i.OS, i.Arch}
	if i.Libc != LibcNone {
		parts = append(parts, i.Libc)
	}
	return strings.Join(parts, "/")
}

type Detector interface {
	Detect(ctx context.Context) (Info, error)
}

type hostInfoFunc func(ctx context.Context) (platform string, family string, version string, err error)

// HostDetector implements Detector using the running process and gopsutil.
type HostDetector struct {
	GOOS     string
	GOARCH   string
	HostInfo hostInfoFunc
	Glob     func(pattern string) ([]string, error)
}

func NewDetector() *HostDetector {
	return &HostDetector{
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		HostInfo: host.PlatformInformationWithContext,
		Glob:     filepath.Glob,
	}
}

func (d *HostDetector) Detect(ctx context.Context) (Info, error) {
	info := Info{OS: d.GOOS, Arch: d.GOARCH}
	if info.OS != "linux" {
		return info, nil
	}

	info.Libc = LibcGNU
	if d.HostInfo != nil {
		distro, family, version, err := d.HostInfo(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Info{}, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
		} else {
			info.Distro = strings.ToLower(strings.TrimSpace(distro))
			info.Version = strings.TrimSpace(version)
			if info.Distro == "alpine" || strings.EqualFold(strings.TrimSpace(family), "alpine") {
				info.Libc = LibcMusl
			}
		}
	}

	if info.Libc == LibcGNU && d.Glob != nil {
		if matches, err := d.Glob("/lib/ld-musl-*.so.1"); err == nil && len(matches) > 0 {
			info.Libc = LibcMusl
		}
	}
	return info, nil
}
