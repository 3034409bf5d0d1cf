package install

import (
	"fmt"

	"github.com/jaa/rad/internal/platform"
)

type artifactKey struct {
	os   string
	arch string
	libc string
}

var artifacts = map[artifactKey]string{
	{"linux", "amd64", platform.LibcGNU}:  "rust-analyzer-x86_64-unknown-linux-gnu.gz",
	{"linux", "amd64", platform.LibcMusl}: "rust-analyzer-x86_64-unknown-linux-musl.gz",
	{"linux", "arm64", platform.LibcGNU}:  "rust-analyzer-aarch64-unknown-linux-gnu.gz",
	{"linux", "arm", platform.LibcGNU}:    "rust-analyzer-arm-unknown-linux-gnueabihf.gz",
	{"darwin", "amd64", ""}:               "rust-analyzer-x86_64-apple-darwin.gz",
	{"darwin", "arm64", ""}:               "rust-analyzer-aarch64-apple-darwin.gz",
	{"windows", "amd64", ""}:              "rust-analyzer-x86_64-pc-windows-msvc.gz",
	{"windows", "arm64", ""}:              "rust-analyzer-aarch64-pc-windows-msvc.gz",
}

// UnsupportedPlatformError means no release artifact is published for the
// host.
type UnsupportedPlatformError struct {
	Platform platform.Info
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no rust-analyzer artifact for platform %s", e.Platform)
}

// ArtifactName returns the release asset published for info.
func ArtifactName(info platform.Info) (string, error) {
	libc := info.Libc
	if info.OS != "linux" {
		libc = ""
	}
	name, ok := artifacts[artifactKey{os: info.OS, arch: info.Arch, libc: libc}]
	if !ok {
		return "", &UnsupportedPlatformError{Platform: info}
	}
	return name, nil
}
