package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"forgeqa/internal/report"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoRuns is returned by Latest when a crate has no recorded verdict.
var ErrNoRuns = errors.New("no recorded runs")

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite ledger.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open ledger %s", path)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to init schema")
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			crate_name TEXT NOT NULL,
			loadset_id TEXT,
			grade TEXT NOT NULL,
			score INTEGER NOT NULL,
			pass INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL,
			verdict JSON NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dimensions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			weight REAL NOT NULL,
			findings_count INTEGER NOT NULL,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_crate ON runs(crate_name, recorded_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Record stores the verdict and its dimensions in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, v *report.Verdict, at time.Time) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode verdict")
	}
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, crate_name, loadset_id, grade, score, pass, recorded_at, verdict)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, v.CrateName, v.LoadsetID, string(v.Grade), v.Score, v.Pass, at.UTC().UnixNano(), payload)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dimensions (run_id, name, score, weight, findings_count) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for name, d := range v.Dimensions {
		if _, err := stmt.ExecContext(ctx, runID, name, d.Score, d.Weight, d.FindingsCount); err != nil {
			return "", errors.Wrapf(err, "insert dimension %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// History returns a crate's entries, newest first.
func (s *SQLiteStore) History(ctx context.Context, crateName string, limit int) ([]Entry, error) {
	query := "SELECT id, crate_name, recorded_at, verdict FROM runs WHERE crate_name = ? ORDER BY recorded_at DESC, rowid DESC"
	args := []any{crateName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Latest returns the newest entry for a crate, or ErrNoRuns.
func (s *SQLiteStore) Latest(ctx context.Context, crateName string) (*Entry, error) {
	entries, err := s.History(ctx, crateName, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrNoRuns, "crate %s", crateName)
	}
	return &entries[0], nil
}

// Dimensions reads back the dimension rows of one run.
func (s *SQLiteStore) Dimensions(ctx context.Context, runID string) (map[string]report.Dimension, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, score, weight, findings_count FROM dimensions WHERE run_id = ?", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]report.Dimension)
	for rows.Next() {
		var d report.Dimension
		if err := rows.Scan(&d.Name, &d.Score, &d.Weight, &d.FindingsCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan dimension")
		}
		out[d.Name] = d
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e       Entry
		nanos   int64
		payload []byte
	)
	if err := rows.Scan(&e.RunID, &e.CrateName, &nanos, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to scan run")
	}
	if err := json.Unmarshal(payload, &e.Verdict); err != nil {
		return nil, errors.Wrapf(err, "decode verdict of run %s", e.RunID)
	}
	e.RecordedAt = time.Unix(0, nanos).UTC()
	return &e, nil
}

var _ Ledger = (*SQLiteStore)(nil)
