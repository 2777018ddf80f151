// Package audit persists finished matching runs in SQLite
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_runs (
	run_id       TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL,
	total        INTEGER NOT NULL,
	matched      INTEGER NOT NULL,
	gated        INTEGER NOT NULL,
	declined     INTEGER NOT NULL,
	fallback     INTEGER NOT NULL,
	match_rate   REAL NOT NULL,
	cancelled    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS match_records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	ordinal        INTEGER NOT NULL,
	query          TEXT NOT NULL,
	matched_index  INTEGER,
	matched_name   TEXT,
	top_score      REAL NOT NULL,
	reason         TEXT,
	outcome        TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES match_runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_match_records_run ON match_records(run_id, ordinal);
`

// RunSummary is one row of match_runs
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    domain.Summary
	Cancelled  bool
}

// SQLiteStore implements domain.AuditStore
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and creates the tables
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// single writer connection
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate audit db: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// SaveRun stores the run and all of its records in one transaction
func (s *SQLiteStore) SaveRun(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sum := report.Summary
	_, err = tx.ExecContext(ctx,
		`INSERT INTO match_runs (run_id, started_at, finished_at, total, matched, gated, declined, fallback, match_rate, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		sum.Total, sum.Matched, sum.Gated, sum.Declined, sum.Fallback, sum.MatchRate,
		boolToInt(report.Cancelled),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_records (run_id, ordinal, query, matched_index, matched_name, top_score, reason, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range report.Records {
		var matched any
		if rec.MatchedIndex != nil {
			matched = *rec.MatchedIndex
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, rec.Ordinal, rec.Query, matched, nullIfEmpty(rec.MatchedName),
			rec.TopScore, nullIfEmpty(rec.Reason), string(rec.Outcome),
		); err != nil {
			return fmt.Errorf("insert record %d: %w", rec.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, total, matched, gated, declined, fallback, match_rate, cancelled
		 FROM match_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
			cancelled         int
		)
		if err := rows.Scan(&r.RunID, &started, &finished,
			&r.Summary.Total, &r.Summary.Matched, &r.Summary.Gated, &r.Summary.Declined,
			&r.Summary.Fallback, &r.Summary.MatchRate, &cancelled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Summary.Unmatched = r.Summary.Total - r.Summary.Matched
		r.Cancelled = cancelled != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Records returns the stored records of a run in ordinal order
func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]domain.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, query, matched_index, matched_name, top_score, reason, outcome
		 FROM match_records WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.MatchRecord
	for rows.Next() {
		var (
			rec     domain.MatchRecord
			index   sql.NullInt64
			name    sql.NullString
			reason  sql.NullString
			outcome string
		)
		if err := rows.Scan(&rec.Ordinal, &rec.Query, &index, &name, &rec.TopScore, &reason, &outcome); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if index.Valid {
			i := int(index.Int64)
			rec.MatchedIndex = &i
		}
		rec.MatchedName = name.String
		rec.Reason = reason.String
		rec.Outcome = domain.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
