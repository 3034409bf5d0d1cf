package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jaa/rad/internal/auth"
	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/exitcode"
	"github.com/jaa/rad/internal/install"
	"github.com/jaa/rad/internal/output"
	"github.com/jaa/rad/internal/platform"
	"github.com/jaa/rad/internal/release"
)

func loadConfig(app *AppContext) (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		ExplicitPath: strings.TrimSpace(app.Opts.ConfigPath),
		WorkingDir:   wd,
	})
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadValidConfig loads and validates the config and attaches the GitHub
// token when one can be found.
func loadValidConfig(app *AppContext) (config.Config, error) {
	cfg, err := loadConfig(app)
	if err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, withExitCode(exitcode.InvalidConfig, err)
	}

	token, err := auth.ResolveGitHubToken()
	switch {
	case err == nil:
		cfg.Defaults.GitHubToken = token.Value
		app.Logger().Debug("using github token", "source", token.Source)
	case errors.Is(err, auth.ErrGitHubTokenNotFound):
		app.Logger().Debug("no github token, using anonymous API access")
	default:
		app.Logger().Warn("github token lookup failed", "error", err)
	}
	return cfg, nil
}

func newEmitter(app *AppContext) output.EventEmitter {
	if app.Opts.JSON {
		return output.NewJSONEmitter(app.IO.Out)
	}
	return output.NewHumanEmitterWithOptions(app.IO.Out, app.IO.ErrOut, output.HumanOptions{
		Quiet:   app.Opts.Quiet,
		Verbose: app.Opts.Verbose,
		NoColor: app.Opts.NoColor,
	})
}

func newHTTPClient(cfg config.Config) *http.Client {
	return release.NewHTTPClient(time.Duration(cfg.Defaults.RequestTimeoutSeconds) * time.Second)
}

func newLister(app *AppContext, cfg config.Config) *release.Client {
	return release.NewClient(cfg.Defaults.ReleasesURL,
		release.WithHTTPClient(newHTTPClient(cfg)),
		release.WithUserAgent(cfg.Defaults.UserAgent),
		release.WithToken(cfg.Defaults.GitHubToken),
		release.WithLogger(app.Logger()),
	)
}

func newInstaller(ctx context.Context, app *AppContext, cfg config.Config) (*install.Installer, error) {
	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return nil, err
	}
	app.Logger().Debug("detected platform", "platform", info.String(), "distro", info.Distro)

	// Artifact downloads are bounded by the context only.
	return install.NewInstaller(info, cfg.Defaults.DownloadURL, cfg.Defaults.CacheDir,
		install.WithHTTPClient(release.NewHTTPClient(0)),
		install.WithUserAgent(cfg.Defaults.UserAgent),
		install.WithLogger(app.Logger()),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), interruptSignals()...)
}

func resolveOutput(flagValue string, cfg config.Config) (string, error) {
	if strings.TrimSpace(flagValue) == "" {
		return cfg.Defaults.Output, nil
	}
	return config.ExpandPath(flagValue)
}

func isTTY(file *os.File) bool {
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
