// Package evaluation runs the minimizer over a list of issues and judges
// whether each minimized program still shows the original diagnostic.
package evaluation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/build"
	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/git"
	"github.com/metalagman/preserve/internal/issue"
	"github.com/metalagman/preserve/internal/model"
	"github.com/metalagman/preserve/internal/process"
	"github.com/metalagman/preserve/internal/reconcile"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Steps are the external actions of an issue evaluation.
type Steps struct {
	Prepare  func(ctx context.Context, dir string, co git.Checkout) error
	Minimize func(ctx context.Context, spec process.Spec) (process.Result, error)
	Rebuild  func(ctx context.Context, opts build.Options) (build.Result, error)
}

// DefaultSteps clones with git, starts the real minimizer and rebuilds with
// javac.
func DefaultSteps() Steps {
	return Steps{
		Prepare:  git.Prepare,
		Minimize: process.Run,
		Rebuild:  build.Run,
	}
}

// Runner evaluates issues and records the outcome in the store.
type Runner struct {
	stateDir string
	cfg      config.Config
	store    *db.Store
	steps    Steps
}

// Report is the outcome of a run.
type Report struct {
	RunID   string
	RunDir  string
	Results []model.Result
	Summary model.Summary
}

// NewRunner constructs a Runner. Missing steps fall back to DefaultSteps.
func NewRunner(stateDir string, cfg config.Config, store *db.Store, steps Steps) *Runner {
	def := DefaultSteps()
	if steps.Prepare == nil {
		steps.Prepare = def.Prepare
	}
	if steps.Minimize == nil {
		steps.Minimize = def.Minimize
	}
	if steps.Rebuild == nil {
		steps.Rebuild = def.Rebuild
	}
	return &Runner{stateDir: stateDir, cfg: cfg, store: store, steps: steps}
}

// Run evaluates the issues and returns their results in input order. Issue
// failures are recorded in the results; an error means the run itself could
// not be carried out.
func (r *Runner) Run(ctx context.Context, issues []issue.Issue) (rep Report, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		if rep.RunID == "" {
			return
		}
		event := log.Info().
			Str("run_id", rep.RunID).
			Int("issues", rep.Summary.Total).
			Int("minimized", rep.Summary.Minimized).
			Int("preserved", rep.Summary.Preserved).
			Dur("duration", time.Since(startedAt))
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("run finished")
	}()

	lock, err := AcquireLock(r.stateDir)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = lock.Release() }()

	if _, err := reconcile.Run(ctx, r.store.DB()); err != nil {
		return Report{}, err
	}

	runID, err := newRunID()
	if err != nil {
		return Report{}, err
	}
	runDir := filepath.Join(r.stateDir, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Report{RunID: runID}, fmt.Errorf("create run dir: %w", err)
	}
	if err := r.store.CreateRun(ctx, runID, runDir, len(issues)); err != nil {
		return Report{RunID: runID}, err
	}
	rep = Report{RunID: runID, RunDir: runDir}
	log.Info().Str("run_id", runID).Int("issues", len(issues)).Int("concurrency", r.concurrency()).Msg("run started")

	results := make([]model.Result, len(issues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, it := range issues {
		g.Go(func() error {
			res := r.evaluate(gctx, it)
			results[i] = res
			return r.store.CommitResult(gctx, runID, res, []db.Event{issueEvent(res)})
		})
	}
	err = g.Wait()
	rep.Results = results
	rep.Summary = model.Summarize(results)
	if err != nil {
		if fErr := r.store.FinishRun(context.WithoutCancel(ctx), runID, db.RunFailed, rep.Summary); fErr != nil {
			log.Error().Err(fErr).Str("run_id", runID).Msg("failed to mark run failed")
		}
		return rep, err
	}

	if err := r.store.FinishRun(ctx, runID, db.RunFinished, rep.Summary); err != nil {
		return rep, err
	}
	return rep, nil
}

func (r *Runner) concurrency() int {
	if r.cfg.Concurrency <= 0 {
		return 1
	}
	return r.cfg.Concurrency
}

func issueEvent(res model.Result) db.Event {
	data, _ := json.Marshal(res.Verdict)
	msg := fmt.Sprintf("%s: %s", res.IssueID, res.Verdict.Status)
	if res.Verdict.Preservation != "" {
		msg += ", preservation " + string(res.Verdict.Preservation)
	}
	return db.Event{Type: "issue_finished", Message: msg, DataJSON: string(data)}
}

func newRunID() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(buf), nil
}
