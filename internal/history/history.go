// Package history keeps a log of refresh runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	trigger      TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	succeeded    TEXT NOT NULL,
	failed       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Entry is one recorded refresh run.
type Entry struct {
	RunID       string               `json:"runId" yaml:"run_id"`
	Trigger     string               `json:"trigger" yaml:"trigger"`
	Outcome     string               `json:"outcome" yaml:"outcome"`
	StartedAt   time.Time            `json:"startedAt" yaml:"started_at"`
	FinishedAt  time.Time            `json:"finishedAt" yaml:"finished_at"`
	RecordCount int                  `json:"recordCount" yaml:"record_count"`
	Succeeded   []pricing.ProviderID `json:"succeeded" yaml:"succeeded"`
	Failed      []aggregator.Failure `json:"failed" yaml:"failed"`
	Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// FromReport builds an Entry from a run report.
func FromReport(trigger, outcome string, report *aggregator.Report, err error) Entry {
	e := Entry{Trigger: trigger, Outcome: outcome}
	if report != nil {
		e.RunID = report.RunID
		e.StartedAt = report.StartedAt
		e.FinishedAt = report.FinishedAt
		e.RecordCount = report.RecordCount
		e.Succeeded = report.Succeeded
		e.Failed = report.Failed
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// DB is a run history database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("mkdir", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WrapResource("open", "history", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("migrate", "history", path, err)
	}
	return &DB{db: db, path: path}, nil
}

// Record stores e. Entries without a run id are ignored.
func (d *DB) Record(ctx context.Context, e Entry) error {
	if e.RunID == "" {
		return nil
	}
	succeeded, err := json.Marshal(nonNil(e.Succeeded))
	if err != nil {
		return err
	}
	failed, err := json.Marshal(nonNil(e.Failed))
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_id, trigger, outcome, started_at, finished_at, record_count, succeeded, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Trigger, e.Outcome,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.FinishedAt.UTC().Format(time.RFC3339Nano),
		e.RecordCount, string(succeeded), string(failed), e.Error)
	if err != nil {
		return errors.WrapResource("insert", "run", e.RunID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}

	rows, err := d.db.QueryContext(ctx, `SELECT run_id, trigger, outcome, started_at, finished_at,
		record_count, succeeded, failed, error FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapResource("query", "runs", "", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                 Entry
			started, finished string
			succeeded, failed string
		)
		if err := rows.Scan(&e.RunID, &e.Trigger, &e.Outcome, &started, &finished,
			&e.RecordCount, &succeeded, &failed, &e.Error); err != nil {
			return nil, errors.WrapResource("scan", "run", "", err)
		}
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		if err := json.Unmarshal([]byte(succeeded), &e.Succeeded); err != nil {
			return nil, errors.WrapParse("json", d.path, err)
		}
		if err := json.Unmarshal([]byte(failed), &e.Failed); err != nil {
			return nil, errors.WrapParse("json", d.path, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
