package evaluation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/metalagman/preserve/internal/build"
	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/git"
	"github.com/metalagman/preserve/internal/issue"
	"github.com/metalagman/preserve/internal/model"
	"github.com/metalagman/preserve/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crashLog = `error: SourceChecker.typeProcess: unexpected Throwable while processing Foo.java
  ; The Checker Framework crashed.  Please report the crash.
  Compilation unit: /src/com/example/Foo.java
  Exception: java.lang.NullPointerException; Cause: null
    at com.example.Foo.bar(Foo.java:12)
`

const otherCrashLog = `  ; The Checker Framework crashed.  Please report the crash.
  Compilation unit: /src/com/example/Foo.java
  Exception: java.lang.ClassCastException
`

const errorLog = `Foo.java:3: error: [dereference.of.nullable] dereference of possibly-null reference x
`

type fakeEnv struct {
	stateDir string
	cfg      config.Config
	store    *db.Store

	mu       sync.Mutex
	prepared []string
	// actual build log content per issue id
	actual   map[string]string
}

func newFakeEnv(t *testing.T) *fakeEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.IssuesDir = filepath.Join(root, "ISSUES")
	cfg.ExpectedLogsDir = filepath.Join(root, "expected")
	cfg.Minimizer.Dir = filepath.Join(root, "specimin")
	cfg.Concurrency = 3
	require.NoError(t, os.MkdirAll(cfg.ExpectedLogsDir, 0o755))

	stateDir := filepath.Join(root, ".preserve")
	database, err := db.Open(db.Path(stateDir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return &fakeEnv{
		stateDir: stateDir,
		cfg:      cfg,
		store:    db.NewStore(database),
		actual:   map[string]string{},
	}
}

func (e *fakeEnv) expect(t *testing.T, issueID, content string) {
	t.Helper()
	path := filepath.Join(e.cfg.ExpectedLogsDir, issueID+"_expected_log.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (e *fakeEnv) steps() Steps {
	return Steps{
		Prepare: func(_ context.Context, dir string, co git.Checkout) error {
			e.mu.Lock()
			e.prepared = append(e.prepared, dir)
			e.mu.Unlock()
			if co.URL == "broken" {
				return errors.New("repository not found")
			}
			return nil
		},
		Minimize: func(_ context.Context, spec process.Spec) (process.Result, error) {
			args := spec.Args[len(spec.Args)-1]
			switch {
			case strings.Contains(args, "Timeout"):
				return process.Result{ExitCode: -1}, process.ErrTimeout
			case strings.Contains(args, "Broken"):
				return process.Result{ExitCode: 1}, nil
			}
			return process.Result{}, nil
		},
		Rebuild: func(_ context.Context, opts build.Options) (build.Result, error) {
			issueID := filepath.Base(opts.OutDir)
			logPath := filepath.Join(opts.OutDir, build.LogFileName)
			if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
				return build.Result{}, err
			}
			e.mu.Lock()
			content := e.actual[issueID]
			e.mu.Unlock()
			if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
				return build.Result{}, err
			}
			return build.Result{LogPath: logPath, ExitCode: 1, Sources: 1}, nil
		},
	}
}

func testIssue(id, bugType, file string) issue.Issue {
	return issue.Issue{
		ID:      id,
		URL:     "https://github.com/example/" + id + ".git",
		Package: "com.example",
		Targets: []issue.Target{{Method: "bar()", File: file}},
		BugType: bugType,
	}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(t)
	env.expect(t, "crash-pass", crashLog)
	env.expect(t, "crash-fail", crashLog)
	env.expect(t, "error-pass", errorLog)
	env.expect(t, "other-cfg", "anything")
	env.actual["crash-pass"] = crashLog
	env.actual["crash-fail"] = otherCrashLog
	env.actual["error-pass"] = errorLog
	env.actual["no-expected"] = crashLog

	checkoutFails := testIssue("checkout", "crash", "Foo.java")
	checkoutFails.URL = "broken"
	issues := []issue.Issue{
		testIssue("crash-pass", "crash", "Foo.java"),
		testIssue("crash-fail", "crash", "Foo.java"),
		testIssue("error-pass", "error", "Foo.java"),
		testIssue("no-expected", "crash", "Foo.java"),
		testIssue("other-cfg", "other", "Foo.java"),
		testIssue("min-broken", "crash", "Broken.java"),
		testIssue("min-timeout", "crash", "Timeout.java"),
		checkoutFails,
	}

	runner := NewRunner(env.stateDir, env.cfg, env.store, env.steps())
	rep, err := runner.Run(context.Background(), issues)
	require.NoError(t, err)
	require.Len(t, rep.Results, len(issues))

	for i, it := range issues {
		assert.Equal(t, it.ID, rep.Results[i].IssueID, "results keep input order")
	}

	byID := map[string]model.Verdict{}
	for _, res := range rep.Results {
		byID[res.IssueID] = res.Verdict
	}
	assert.Equal(t, model.Passed().WithPreservation(model.StatusPass, ""), byID["crash-pass"])
	assert.Equal(t, model.StatusPass, byID["crash-fail"].Status)
	assert.Equal(t, model.StatusFail, byID["crash-fail"].Preservation)
	assert.Equal(t, model.StatusPass, byID["error-pass"].Preservation)
	assert.Equal(t, model.Passed().WithPreservation(model.StatusFail, model.ReasonExpectedLogMissing), byID["no-expected"])
	assert.Equal(t, model.StatusError, byID["other-cfg"].Preservation)
	assert.Equal(t, model.Failed("minimizer exited with code 1"), byID["min-broken"])
	assert.Equal(t, model.StatusFail, byID["min-timeout"].Status)
	assert.Contains(t, byID["min-timeout"].FailReason, "timed out")
	assert.Equal(t, model.StatusFail, byID["checkout"].Status)
	assert.Contains(t, byID["checkout"].FailReason, "repository not found")

	assert.Equal(t, model.Summary{Total: 8, Minimized: 5, Preserved: 2, Errors: 1}, rep.Summary)

	run, err := env.store.GetRun(context.Background(), rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, db.RunFinished, run.Status)
	assert.Equal(t, 5, run.Minimized)
	assert.Equal(t, 2, run.Preserved)
	assert.DirExists(t, rep.RunDir)

	stored, err := env.store.Results(context.Background(), rep.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, len(issues))

	env.mu.Lock()
	defer env.mu.Unlock()
	assert.Contains(t, env.prepared, filepath.Join(env.cfg.IssuesDir, "crash-pass", "input", "crash-pass"))
}

func TestRunner_RebuildFailureIsPreservationFail(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(t)
	env.expect(t, "cf-1", crashLog)
	steps := env.steps()
	steps.Rebuild = func(context.Context, build.Options) (build.Result, error) {
		return build.Result{}, build.ErrNoSources
	}

	rep, err := NewRunner(env.stateDir, env.cfg, env.store, steps).Run(context.Background(), []issue.Issue{testIssue("cf-1", "crash", "Foo.java")})
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	v := rep.Results[0].Verdict
	assert.Equal(t, model.StatusPass, v.Status)
	assert.Equal(t, model.StatusFail, v.Preservation)
	assert.Contains(t, v.PreservationReason, "no java sources")
}

func TestRunner_FailedRunKeepsFinishedResults(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(t)
	env.cfg.Concurrency = 1
	ctx := context.Background()

	// The second result row collides with the first one.
	issues := []issue.Issue{testIssue("dup", "crash", "Foo.java"), testIssue("dup", "crash", "Foo.java")}
	rep, err := NewRunner(env.stateDir, env.cfg, env.store, env.steps()).Run(ctx, issues)
	require.Error(t, err)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, "dup", rep.Results[0].IssueID)
	assert.Equal(t, model.StatusPass, rep.Results[0].Verdict.Status)
	assert.Equal(t, 2, rep.Summary.Total)

	status, err := env.store.GetRunStatus(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, db.RunFailed, status)
}

func TestRunner_ReconcilesInterruptedRuns(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.CreateRun(ctx, "stale", filepath.Join(env.stateDir, "runs", "stale"), 1))

	_, err := NewRunner(env.stateDir, env.cfg, env.store, env.steps()).Run(ctx, nil)
	require.NoError(t, err)

	status, err := env.store.GetRunStatus(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, db.RunFailed, status)
}

func TestRunner_MinimizerInvocation(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(t)
	env.cfg.Timeouts.Minimizer = 42
	var got process.Spec
	steps := env.steps()
	steps.Minimize = func(_ context.Context, spec process.Spec) (process.Result, error) {
		got = spec
		return process.Result{ExitCode: 2}, nil
	}

	it := testIssue("cf-9", "crash", "Foo.java")
	it.RootDir = "src/main/java/"
	_, err := NewRunner(env.stateDir, env.cfg, env.store, steps).Run(context.Background(), []issue.Issue{it})
	require.NoError(t, err)

	assert.Equal(t, env.cfg.Minimizer.Dir, got.Dir)
	assert.Equal(t, "./gradlew", got.Name)
	assert.Equal(t, filepath.Join(env.cfg.IssuesDir, "cf-9", MinimizerLogName), got.LogPath)
	assert.EqualValues(t, 42, got.Timeout)
	assert.Contains(t, got.Args[len(got.Args)-1], `--targetFile "com/example/Foo.java"`)
	assert.Contains(t, got.Args[len(got.Args)-1], `--targetMethod "com.example.Foo#bar()"`)
}
