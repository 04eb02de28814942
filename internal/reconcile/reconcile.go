// Package reconcile repairs run state left behind by an interrupted process.
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/metalagman/preserve/internal/db"
	"github.com/rs/zerolog/log"
)

// Run marks every run still recorded as running as failed. It must be called
// while holding the run lock, when no other run can be in progress. Runs
// whose directory is gone are reported in the event message.
func Run(ctx context.Context, database *sql.DB) (int, error) {
	runs, err := db.NewStore(database).ListRuns(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, run := range runs {
		if run.Status != db.RunRunning {
			continue
		}
		msg := "run interrupted"
		if _, statErr := os.Stat(run.RunDir); os.IsNotExist(statErr) {
			msg = "run interrupted, run dir missing"
		}
		if err := markFailed(ctx, database, run.ID, msg); err != nil {
			return fixed, err
		}
		log.Warn().Str("run_id", run.ID).Msg(msg)
		fixed++
	}
	return fixed, nil
}

func markFailed(ctx context.Context, database *sql.DB, runID, msg string) error {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET status=?, finished_at=? WHERE run_id=?`, db.RunFailed, now, runID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mark run %s failed: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(run_id, seq, ts, type, message)
		VALUES(?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE run_id=?), ?, ?, ?)`,
		runID, runID, now, "reconciled_run", msg); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert reconcile event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}
	return nil
}
