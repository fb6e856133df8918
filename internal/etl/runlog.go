package etl

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hirudo/hirudo-etl/internal/db"
)

// RunLogTable records job runs.
const RunLogTable = "etl_runs"

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// RunEntry is one row of the run log.
type RunEntry struct {
	ID          string         `json:"id"`
	Job         string         `json:"job"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Rows        int64          `json:"rows"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RunResult is the outcome passed to Complete.
type RunResult struct {
	Rows     int64          `json:"rows"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Recorder tracks job runs. Jobs work without one.
type Recorder interface {
	Start(ctx context.Context, runID, job string) error
	Complete(ctx context.Context, runID string, result *RunResult) error
	Fail(ctx context.Context, runID string, errMsg string) error
}

// RunLog is a Recorder backed by a Postgres table. Unlike published tables it is appended to,
// never replaced.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// EnsureTable creates the run log table if it does not exist.
func (l *RunLog) EnsureTable(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS etl_runs (
		id TEXT PRIMARY KEY,
		job TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		rows BIGINT NOT NULL DEFAULT 0,
		error TEXT,
		metadata JSONB
	)`)
	if err != nil {
		return eris.Wrap(err, "runlog: ensure table")
	}
	return nil
}

// Start implements Recorder.
func (l *RunLog) Start(ctx context.Context, runID, job string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO etl_runs (id, job, status, started_at) VALUES ($1, $2, 'running', now())`,
		runID, job,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: start %s run %s", job, runID)
	}
	return nil
}

// Complete implements Recorder.
func (l *RunLog) Complete(ctx context.Context, runID string, result *RunResult) error {
	var metaJSON []byte
	var rows int64
	if result != nil {
		rows = result.Rows
		if result.Metadata != nil {
			var err error
			metaJSON, err = json.Marshal(result.Metadata)
			if err != nil {
				return eris.Wrap(err, "runlog: marshal metadata")
			}
		}
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE etl_runs
		 SET status = 'complete', completed_at = now(), rows = $1, metadata = $2
		 WHERE id = $3`,
		rows, metaJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", runID)
	}
	return nil
}

// Fail implements Recorder.
func (l *RunLog) Fail(ctx context.Context, runID string, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE etl_runs
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", runID)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A missing table yields no runs.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, job, status, started_at, completed_at, rows, error, metadata
		 FROM etl_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		if db.IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "runlog: list recent")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var completedAt *time.Time
		var errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Job, &e.Status, &e.StartedAt, &completedAt, &e.Rows, &errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
