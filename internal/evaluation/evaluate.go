package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/build"
	"github.com/metalagman/preserve/internal/git"
	"github.com/metalagman/preserve/internal/issue"
	"github.com/metalagman/preserve/internal/minimizer"
	"github.com/metalagman/preserve/internal/model"
	"github.com/metalagman/preserve/internal/oracle"
	"github.com/metalagman/preserve/internal/process"
	"github.com/rs/zerolog/log"
)

// MinimizerLogName is the minimizer output kept in the issue directory.
const MinimizerLogName = "minimizer_log.txt"

// IssueDir is the working directory of one issue.
func IssueDir(issuesDir, issueID string) string {
	return filepath.Join(issuesDir, issueID)
}

func (r *Runner) evaluate(ctx context.Context, it issue.Issue) model.Result {
	start := time.Now()
	res := model.Result{IssueID: it.ID, StartedAt: start.UTC()}
	logger := log.With().Str("issue_id", it.ID).Logger()

	res.Verdict, res.LogPath = r.evaluateIssue(ctx, it)
	res.Duration = time.Since(start)

	event := logger.Info().
		Str("status", string(res.Verdict.Status)).
		Dur("duration", res.Duration)
	if res.Verdict.FailReason != "" {
		event = event.Str("fail_reason", res.Verdict.FailReason)
	}
	if res.Verdict.Preservation != "" {
		event = event.Str("preservation", string(res.Verdict.Preservation))
	}
	if res.Verdict.PreservationReason != "" {
		event = event.Str("preservation_reason", res.Verdict.PreservationReason)
	}
	event.Msg("issue evaluated")
	return res
}

func (r *Runner) evaluateIssue(ctx context.Context, it issue.Issue) (model.Verdict, string) {
	issueDir := IssueDir(r.cfg.IssuesDir, it.ID)
	repo := git.RepositoryName(it.URL)

	checkout := git.Checkout{URL: it.URL, Branch: it.Branch, Commit: it.CommitHash}
	if err := r.steps.Prepare(ctx, minimizer.InputDir(issueDir, repo), checkout); err != nil {
		return model.Failed(fmt.Sprintf("checkout %s: %v", repo, err)), ""
	}

	inv := minimizer.Command(minimizer.Params{
		Project:      repo,
		TargetDir:    absPath(issueDir),
		MinimizerDir: r.cfg.Minimizer.Dir,
		Issue:        it,
		BaseCmd:      r.cfg.Minimizer.Cmd,
	})
	log.Debug().Str("issue_id", it.ID).Str("cmd", inv.String()).Msg("running minimizer")
	minLog := filepath.Join(issueDir, MinimizerLogName)
	mres, err := r.steps.Minimize(ctx, process.Spec{
		Name:    inv.Name,
		Args:    inv.Args,
		Dir:     inv.Dir,
		LogPath: minLog,
		Timeout: r.cfg.Timeouts.Minimizer,
	})
	if err != nil {
		return model.Failed(fmt.Sprintf("minimizer: %v", err)), minLog
	}
	if mres.ExitCode != 0 {
		return model.Failed(fmt.Sprintf("minimizer exited with code %d", mres.ExitCode)), minLog
	}

	v := model.Passed()
	bres, err := r.steps.Rebuild(ctx, build.Options{
		SourceDir:  minimizer.OutputDir(issueDir, repo),
		OutDir:     issueDir,
		JavaHome:   r.cfg.JavaHome(it.JDKVersion),
		CheckerJar: r.cfg.Checker.Jar,
		Processor:  it.Checker,
		ExtraArgs:  r.cfg.Checker.ExtraArgs,
		Timeout:    r.cfg.Timeouts.Build,
	})
	if err != nil {
		return v.WithPreservation(model.StatusFail, fmt.Sprintf("rebuild: %v", err)), bres.LogPath
	}
	return r.judge(it, bres.LogPath, v), bres.LogPath
}

// judge compares the rebuild log with the issue's expected log.
func (r *Runner) judge(it issue.Issue, actualPath string, v model.Verdict) model.Verdict {
	expected, err := os.ReadFile(it.ExpectedLogPath(r.cfg.ExpectedLogsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return v.WithPreservation(model.StatusFail, model.ReasonExpectedLogMissing)
	}
	if err != nil {
		return v.WithPreservation(model.StatusFail, fmt.Sprintf("read expected log: %v", err))
	}
	actual, err := os.ReadFile(actualPath)
	if err != nil {
		return v.WithPreservation(model.StatusFail, fmt.Sprintf("read build log: %v", err))
	}
	d, err := it.Descriptor(r.cfg.Patterns)
	if err != nil {
		return v.WithPreservation(model.StatusError, err.Error())
	}
	status, reason := oracle.Judge(string(expected), string(actual), d)
	return v.WithPreservation(status, reason)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
