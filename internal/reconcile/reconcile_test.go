package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dbpkg "github.com/metalagman/preserve/internal/db"
	"github.com/metalagman/preserve/internal/model"
)

func TestRunMarksInterruptedRunsFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stateDir := filepath.Join(t.TempDir(), ".preserve")
	runDir := filepath.Join(stateDir, "runs", "run-1")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("create run dir: %v", err)
	}

	db, err := dbpkg.Open(dbpkg.Path(stateDir))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := dbpkg.NewStore(db)
	if err := store.CreateRun(ctx, "run-1", runDir, 1); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.CreateRun(ctx, "run-2", filepath.Join(stateDir, "runs", "run-2"), 1); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.FinishRun(ctx, "run-2", dbpkg.RunFinished, model.Summary{Total: 1}); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	fixed, err := Run(ctx, db)
	if err != nil {
		t.Fatalf("reconcile run: %v", err)
	}
	if fixed != 1 {
		t.Fatalf("fixed = %d, want 1", fixed)
	}

	status, err := store.GetRunStatus(ctx, "run-1")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status != dbpkg.RunFailed {
		t.Fatalf("status = %q, want %q", status, dbpkg.RunFailed)
	}
	status, err = store.GetRunStatus(ctx, "run-2")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status != dbpkg.RunFinished {
		t.Fatalf("status = %q, want %q", status, dbpkg.RunFinished)
	}

	var eventMessage string
	if err := db.QueryRowContext(ctx, `SELECT message FROM events WHERE run_id=? AND type=?`, "run-1", "reconciled_run").
		Scan(&eventMessage); err != nil {
		t.Fatalf("query reconciled event: %v", err)
	}
	if eventMessage != "run interrupted" {
		t.Fatalf("event message = %q, want %q", eventMessage, "run interrupted")
	}
}
