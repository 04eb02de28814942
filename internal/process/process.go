// Package process runs external tools with a timeout and captures their
// combined output to a log file.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/logging"
	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned when a command exceeds its timeout.
var ErrTimeout = errors.New("timed out")

// Spec describes one command invocation.
type Spec struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	LogPath string
	Timeout time.Duration
}

// Result describes a finished command.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Run executes the command. A non-zero exit is reported in Result and is not
// an error; errors mean the command could not be started, timed out, was
// cancelled, or the log could not be written.
func Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	out := io.Discard
	if spec.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0o755); err != nil {
			return Result{}, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.Create(spec.LogPath)
		if err != nil {
			return Result{}, fmt.Errorf("create log: %w", err)
		}
		defer func() {
			if cErr := f.Close(); cErr != nil {
				log.Warn().Err(cErr).Str("path", spec.LogPath).Msg("failed to close log")
			}
		}()
		out = f
	}
	if logging.DebugEnabled() {
		out = io.MultiWriter(out, os.Stderr)
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 5 * time.Second

	log.Debug().Str("dir", spec.Dir).Str("cmd", spec.Name).Strs("args", spec.Args).Msg("process start")
	start := time.Now()
	err := cmd.Run()
	res := Result{Duration: time.Since(start)}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%s %w after %s", spec.Name, ErrTimeout, spec.Timeout)
		}
		return res, fmt.Errorf("run %s: %w", spec.Name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		err = nil
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	log.Debug().Str("cmd", spec.Name).Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("process finished")
	return res, nil
}
