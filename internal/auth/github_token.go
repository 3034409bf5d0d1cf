// Package auth resolves the optional GitHub token used for release listing.
package auth

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

var ErrGitHubTokenNotFound = errors.New("github token not found")

// TokenEnvKeys are checked in order before falling back to the gh CLI.
var TokenEnvKeys = []string{"RAD_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

type commandRunner func(name string, args ...string) ([]byte, error)

type GitHubToken struct {
	Value  string
	Source string
}

type GitHubTokenResolver struct {
	Getenv  func(string) string
	Command commandRunner
}

func ResolveGitHubToken() (GitHubToken, error) {
	return GitHubTokenResolver{
		Getenv:  os.Getenv,
		Command: runCommandOutput,
	}.Resolve()
}

func (r GitHubTokenResolver) Resolve() (GitHubToken, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range TokenEnvKeys {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return GitHubToken{Value: value, Source: key}, nil
		}
	}

	command := r.Command
	if command == nil {
		command = runCommandOutput
	}
	raw, err := command("gh", "auth", "token")
	if err != nil {
		return GitHubToken{}, ErrGitHubTokenNotFound
	}
	value := strings.TrimSpace(string(raw))
	if value == "" || strings.ContainsAny(value, " \n") {
		return GitHubToken{}, ErrGitHubTokenNotFound
	}
	return GitHubToken{Value: value, Source: "gh auth token"}, nil
}

func runCommandOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}
