package install

import (
	"testing"

	"github.com/jaa/rad/internal/platform"
	"github.com/stretchr/testify/require"
)

func TestArtifactNameTable(t *testing.T) {
	cases := []struct {
		info platform.Info
		want string
	}{
		{platform.Info{OS: "linux", Arch: "amd64", Libc: platform.LibcGNU}, "rust-analyzer-x86_64-unknown-linux-gnu.gz"},
		{platform.Info{OS: "linux", Arch: "amd64", Libc: platform.LibcMusl}, "rust-analyzer-x86_64-unknown-linux-musl.gz"},
		{platform.Info{OS: "linux", Arch: "arm64", Libc: platform.LibcGNU}, "rust-analyzer-aarch64-unknown-linux-gnu.gz"},
		{platform.Info{OS: "linux", Arch: "arm", Libc: platform.LibcGNU}, "rust-analyzer-arm-unknown-linux-gnueabihf.gz"},
		{platform.Info{OS: "darwin", Arch: "amd64"}, "rust-analyzer-x86_64-apple-darwin.gz"},
		{platform.Info{OS: "darwin", Arch: "arm64", Libc: platform.LibcGNU}, "rust-analyzer-aarch64-apple-darwin.gz"},
		{platform.Info{OS: "windows", Arch: "amd64"}, "rust-analyzer-x86_64-pc-windows-msvc.gz"},
		{platform.Info{OS: "windows", Arch: "arm64"}, "rust-analyzer-aarch64-pc-windows-msvc.gz"},
	}
	for _, tc := range cases {
		got, err := ArtifactName(tc.info)
		require.NoError(t, err, tc.info.String())
		require.Equal(t, tc.want, got)
	}
}

func TestArtifactNameUnsupported(t *testing.T) {
	for _, info := range []platform.Info{
		{OS: "freebsd", Arch: "amd64"},
		{OS: "linux", Arch: "arm64", Libc: platform.LibcMusl},
		{OS: "linux", Arch: "riscv64", Libc: platform.LibcGNU},
		{OS: "darwin", Arch: "386"},
	} {
		_, err := ArtifactName(info)
		var unsupported *UnsupportedPlatformError
		require.ErrorAs(t, err, &unsupported, info.String())
		require.Equal(t, info, unsupported.Platform)
	}
}
