// Package git wraps the git commands used to prepare issue checkouts.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Available checks if the given directory is inside a git work tree.
func Available(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// RunCmdOutput runs a command in dir and returns its combined output.
func RunCmdOutput(ctx context.Context, dir string, name string, args ...string) (string, error) {
	log.Debug().Str("dir", dir).Str("cmd", name).Strs("args", args).Msg("running git command (output return)")
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// RunCmdErr runs a command in dir and folds its output into the error.
func RunCmdErr(ctx context.Context, dir string, name string, args ...string) error {
	_, err := RunCmdOutput(ctx, dir, name, args...)
	return err
}

// RepositoryName returns the repository name of a clone URL:
// "git@github.com:codespecs/daikon.git" gives "daikon".
func RepositoryName(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndexByte(url, ':'); i >= 0 && !strings.Contains(url[i:], "/") {
		url = url[i+1:]
	}
	return strings.TrimSuffix(path.Base(url), ".git")
}

// Checkout describes the revision an issue is evaluated at.
type Checkout struct {
	URL    string
	Branch string
	Commit string
}

// Prepare clones the repository into dir, or fetches when dir already holds
// a clone, then checks out the branch and the commit.
func Prepare(ctx context.Context, dir string, co Checkout) error {
	if _, err := os.Stat(dir); err == nil && Available(ctx, dir) {
		log.Info().Str("dir", dir).Msg("reusing existing clone")
		if err := RunCmdErr(ctx, dir, "git", "fetch", "--all", "--tags"); err != nil {
			return fmt.Errorf("git fetch: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return fmt.Errorf("create clone parent: %w", err)
		}
		if err := RunCmdErr(ctx, "", "git", "clone", co.URL, dir); err != nil {
			return fmt.Errorf("git clone %s: %w", co.URL, err)
		}
	}
	if co.Branch != "" {
		if err := RunCmdErr(ctx, dir, "git", "checkout", co.Branch); err != nil {
			return fmt.Errorf("git checkout %s: %w", co.Branch, err)
		}
	}
	if co.Commit != "" {
		if err := RunCmdErr(ctx, dir, "git", "checkout", co.Commit); err != nil {
			return fmt.Errorf("git checkout %s: %w", co.Commit, err)
		}
	}
	return nil
}
