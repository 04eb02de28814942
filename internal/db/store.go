package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/metalagman/preserve/internal/model"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// Store provides persistence for runs and per-issue results.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunRecord is a stored run.
type RunRecord struct {
	ID         string
	CreatedAt  time.Time
	FinishedAt time.Time
	Status     string
	RunDir     string
	IssueCount int
	Minimized  int
	Preserved  int
}

// Event represents a timeline event for a run.
type Event struct {
	Type     string
	Message  string
	DataJSON string
}

// CreateRun inserts the run record and a run_started event.
func (s *Store) CreateRun(ctx context.Context, runID, runDir string, issueCount int) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(run_id, created_at, status, run_dir, issue_count)
		VALUES(?, ?, ?, ?, ?)`,
		runID, createdAt, RunRunning, runDir, issueCount); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}
	if err := insertEvent(ctx, tx, runID, Event{Type: "run_started", Message: "run started"}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create run: %w", err)
	}
	return nil
}

// CommitResult inserts one issue result and its events in one transaction.
func (s *Store) CommitResult(ctx context.Context, runID string, res model.Result, events []Event) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin commit result: %w", err)
	}
	v := res.Verdict
	if _, err := tx.ExecContext(ctx, `INSERT INTO issue_results(run_id, issue_id, status, fail_reason,
		preservation_status, preservation_reason, log_path, started_at, duration_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.IssueID, string(v.Status), nullableString(v.FailReason),
		nullableString(string(v.Preservation)), nullableString(v.PreservationReason),
		nullableString(res.LogPath), res.StartedAt.UTC().Format(time.RFC3339), res.Duration.Milliseconds()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert result %s: %w", res.IssueID, err)
	}
	for _, ev := range events {
		if err := insertEvent(ctx, tx, runID, ev); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result: %w", err)
	}
	return nil
}

// FinishRun records the final status and counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, summary model.Summary) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish run: %w", err)
	}
	finishedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET status=?, finished_at=?, minimized=?, preserved=? WHERE run_id=?`,
		status, finishedAt, summary.Minimized, summary.Preserved, runID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update run: %w", err)
	}
	msg := fmt.Sprintf("%d/%d minimized, %d preserved", summary.Minimized, summary.Total, summary.Preserved)
	if err := insertEvent(ctx, tx, runID, Event{Type: "run_" + status, Message: msg}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, created_at, COALESCE(finished_at, ''), status, run_dir,
		issue_count, minimized, preserved FROM runs ORDER BY created_at DESC, run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// GetRun returns one run. It returns sql.ErrNoRows when the run is missing.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, created_at, COALESCE(finished_at, ''), status, run_dir,
		issue_count, minimized, preserved FROM runs WHERE run_id=?`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, sql.ErrNoRows
	}
	return rec, err
}

// LatestRun returns the newest run.
func (s *Store) LatestRun(ctx context.Context) (RunRecord, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return RunRecord{}, err
	}
	if len(runs) == 0 {
		return RunRecord{}, sql.ErrNoRows
	}
	return runs[0], nil
}

// Results returns the issue results of a run ordered by issue id.
func (s *Store) Results(ctx context.Context, runID string) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT issue_id, status, COALESCE(fail_reason, ''),
		COALESCE(preservation_status, ''), COALESCE(preservation_reason, ''), COALESCE(log_path, ''),
		started_at, duration_ms FROM issue_results WHERE run_id=? ORDER BY issue_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Result
	for rows.Next() {
		var (
			res                        model.Result
			status, pStatus, startedAt string
			durationMS                 int64
		)
		if err := rows.Scan(&res.IssueID, &status, &res.Verdict.FailReason, &pStatus,
			&res.Verdict.PreservationReason, &res.LogPath, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Verdict.Status = model.Status(status)
		res.Verdict.Preservation = model.Status(pStatus)
		res.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		res.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// GetRunStatus returns the status for a run id, or empty if missing.
func (s *Store) GetRunStatus(ctx context.Context, runID string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE run_id=?`, runID)
	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read run status: %w", err)
	}
	return status, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec                   RunRecord
		createdAt, finishedAt string
	)
	if err := row.Scan(&rec.ID, &createdAt, &finishedAt, &rec.Status, &rec.RunDir,
		&rec.IssueCount, &rec.Minimized, &rec.Preserved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if finishedAt != "" {
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	}
	return rec, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, runID string, ev Event) error {
	seq, err := nextSeq(ctx, tx, runID)
	if err != nil {
		return err
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(run_id, seq, ts, type, message, data_json) VALUES(?, ?, ?, ?, ?, ?)`,
		runID, seq, ts, ev.Type, ev.Message, nullableString(ev.DataJSON)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func nextSeq(ctx context.Context, tx *sql.Tx, runID string) (int, error) {
	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id=?`, runID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("read event seq: %w", err)
	}
	return seq + 1, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
