package storage

import (
	"context"
	"time"

	"forgeqa/internal/report"
)

// Entry is one recorded verdict.
type Entry struct {
	RunID      string
	CrateName  string
	RecordedAt time.Time
	Verdict    report.Verdict
}

// Ledger keeps the verdict history of crates.
type Ledger interface {
	// Record stores a verdict and returns the new run id.
	Record(ctx context.Context, v *report.Verdict, at time.Time) (string, error)

	// History returns a crate's entries, newest first. limit <= 0 means all.
	History(ctx context.Context, crateName string, limit int) ([]Entry, error)

	// Latest returns the newest entry for a crate.
	Latest(ctx context.Context, crateName string) (*Entry, error)

	// Dimensions returns the per-dimension rows stored with a run.
	Dimensions(ctx context.Context, runID string) (map[string]report.Dimension, error)

	Close() error
}
