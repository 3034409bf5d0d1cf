package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func noMuslLoader(string) ([]string, error) { return nil, nil }

func TestDetectNonLinuxHasNoLibc(t *testing.T) {
	d := &HostDetector{
		GOOS:   "darwin",
		GOARCH: "arm64",
		HostInfo: func(context.Context) (string, string, string, error) {
			t.Fatal("host info must not be queried outside linux")
			return "", "", "", nil
		},
	}

	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Equal(t, Info{OS: "darwin", Arch: "arm64"}, info)
	require.Equal(t, "darwin/arm64", info.String())
}

func TestDetectLinuxDefaultsToGNU(t *testing.T) {
	d := &HostDetector{
		GOOS:   "linux",
		GOARCH: "amd64",
		HostInfo: func(context.Context) (string, string, string, error) {
			return "Ubuntu", "debian", "22.04", nil
		},
		Glob: noMuslLoader,
	}

	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Equal(t, LibcGNU, info.Libc)
	require.Equal(t, "ubuntu", info.Distro)
	require.Equal(t, "22.04", info.Version)
	require.Equal(t, "linux/amd64/gnu", info.String())
}

func TestDetectAlpineIsMusl(t *testing.T) {
	d := &HostDetector{
		GOOS:   "linux",
		GOARCH: "amd64",
		HostInfo: func(context.Context) (string, string, string, error) {
			return "alpine", "alpine", "3.19.1", nil
		},
		Glob: noMuslLoader,
	}

	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Equal(t, LibcMusl, info.Libc)
}

func TestDetectMuslLoaderFallback(t *testing.T) {
	d := &HostDetector{
		GOOS:   "linux",
		GOARCH: "amd64",
		HostInfo: func(context.Context) (string, string, string, error) {
			return "", "", "", errors.New("no os-release")
		},
		Glob: func(string) ([]string, error) {
			return []string{"/lib/ld-musl-x86_64.so.1"}, nil
		},
	}

	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Equal(t, LibcMusl, info.Libc)
}

func TestDetectCancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &HostDetector{
		GOOS:   "linux",
		GOARCH: "arm64",
		HostInfo: func(ctx context.Context) (string, string, string, error) {
			return "", "", "", ctx.Err()
		},
	}

	_, err := d.Detect(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
