package evaluation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/preserve/internal/config"
	"github.com/metalagman/preserve/internal/db"
	"github.com/rs/zerolog/log"
)

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
	Skipped    int
}

// PruneRuns deletes old run records and their directories. Running runs are
// always kept. Results and events go with their run.
func PruneRuns(ctx context.Context, database *sql.DB, runsDir string, policy config.RetentionPolicy, dryRun bool) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}
	runs, err := db.NewStore(database).ListRuns(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	res := PruneResult{Considered: len(runs)}
	for idx, run := range runs {
		keep := run.Status == db.RunRunning
		if !keep && policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 && (run.CreatedAt.IsZero() || run.CreatedAt.After(cutoff)) {
			keep = true
		}
		if keep {
			res.Kept++
			continue
		}
		if dryRun {
			res.Deleted++
			continue
		}
		targetDir := run.RunDir
		if targetDir == "" {
			targetDir = filepath.Join(runsDir, run.ID)
		}
		if err := os.RemoveAll(targetDir); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to remove run dir")
			res.Skipped++
			continue
		}
		if _, err := database.ExecContext(ctx, `DELETE FROM runs WHERE run_id=?`, run.ID); err != nil {
			return res, fmt.Errorf("delete run %s: %w", run.ID, err)
		}
		res.Deleted++
	}
	return res, nil
}
