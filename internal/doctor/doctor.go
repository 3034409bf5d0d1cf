package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaa/rad/internal/auth"
	"github.com/jaa/rad/internal/config"
	"github.com/jaa/rad/internal/engine"
	"github.com/jaa/rad/internal/install"
	"github.com/jaa/rad/internal/platform"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

type Checker struct {
	Detect        func(context.Context) (platform.Info, error)
	Probe         func(context.Context, string) (*engine.LocalVersion, error)
	LookPath      func(string) (string, error)
	CheckWritable func(string) error
	ResolveToken  func() (auth.GitHubToken, error)
}

func NewChecker() *Checker {
	return &Checker{
		Detect: platform.NewDetector().Detect,
		Probe: func(ctx context.Context, binary string) (*engine.LocalVersion, error) {
			return engine.NewProber(binary, nil).Probe(ctx)
		},
		LookPath:      exec.LookPath,
		CheckWritable: checkDirWritable,
		ResolveToken:  auth.ResolveGitHubToken,
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}
	add := func(severity Severity, name, format string, args ...any) {
		report.Checks = append(report.Checks, Check{Severity: severity, Name: name, Message: fmt.Sprintf(format, args...)})
	}

	info, err := c.Detect(ctx)
	if err != nil {
		add(SeverityError, "platform", "platform detection failed: %v", err)
	} else if artifact, err := install.ArtifactName(info); err != nil {
		add(SeverityError, "platform", "%v", err)
	} else {
		add(SeverityInfo, "platform", "%s uses %s", info, artifact)
	}

	binary := cfg.Defaults.ProbeBinary()
	if !strings.ContainsAny(binary, `/\`) {
		if location, err := c.LookPath(binary); err != nil {
			add(SeverityWarn, "binary", "%s not found in PATH", binary)
		} else {
			binary = location
		}
	}
	current, err := c.Probe(ctx, binary)
	switch {
	case err != nil:
		add(SeverityError, "binary", "%s version could not be read: %v", binary, err)
	case current == nil:
		add(SeverityWarn, "binary", "rust-analyzer is not installed at %s; run `rad check` to install it", binary)
	default:
		add(SeverityInfo, "binary", "%s reports %s (%s)", binary, current.SemanticVersion, current.DateVersion)
		if _, err := time.Parse(time.DateOnly, current.DateVersion); err != nil {
			add(SeverityError, "binary", "installed date version %q is not a date", current.DateVersion)
		}
	}

	for _, dir := range []struct {
		label string
		path  string
	}{
		{"output directory", filepath.Dir(cfg.Defaults.Output)},
		{"cache directory", cfg.Defaults.CacheDir},
	} {
		existing, missing := nearestExistingDir(dir.path)
		if err := c.CheckWritable(existing); err != nil {
			add(SeverityError, "filesystem", "%s %s is not writable: %v", dir.label, dir.path, err)
			continue
		}
		if missing {
			add(SeverityInfo, "filesystem", "%s %s will be created", dir.label, dir.path)
			continue
		}
		add(SeverityInfo, "filesystem", "%s %s is writable", dir.label, dir.path)
	}

	token, err := c.ResolveToken()
	switch {
	case errors.Is(err, auth.ErrGitHubTokenNotFound):
		add(SeverityWarn, "auth", "no GitHub token found; set %s to lift the anonymous API rate limit", strings.Join(auth.TokenEnvKeys, ", "))
	case err != nil:
		add(SeverityWarn, "auth", "GitHub token lookup failed: %v", err)
	default:
		add(SeverityInfo, "auth", "GitHub token found via %s", token.Source)
	}

	return report
}

func nearestExistingDir(path string) (string, bool) {
	current := filepath.Clean(path)
	missing := false
	for {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current, missing
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current, missing
		}
		missing = true
		current = parent
	}
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".rad-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}
