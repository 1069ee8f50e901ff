// Package dedupe tracks repeated compose submissions so callers can tell a
// fresh request from the Nth retry of the same target.
package dedupe

import (
	"context"
	"database/sql"
	"fmt"
)

// Tracker tracks duplicate compose submissions per target
type Tracker struct {
	db *sql.DB
}

// NewTracker creates a new dedupe tracker
func NewTracker(db *sql.DB) (*Tracker, error) {
	tracker := &Tracker{db: db}

	if err := tracker.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure dedupe table: %w", err)
	}

	return tracker, nil
}

// ensureTable creates the compose_dedupe table if it doesn't exist
func (t *Tracker) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS compose_dedupe (
			target TEXT PRIMARY KEY,
			job TEXT,
			job_version INTEGER,
			first_seen_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ DEFAULT NOW(),
			seen_count INTEGER DEFAULT 1
		)
	`

	if _, err := t.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create compose_dedupe table: %w", err)
	}
	return nil
}

// Record records a compose submission and returns the seen count
func (t *Tracker) Record(ctx context.Context, target string, job string, jobVersion int) (int, error) {
	query := `
		INSERT INTO compose_dedupe (target, job, job_version, first_seen_at, last_seen_at, seen_count)
		VALUES ($1, $2, $3, NOW(), NOW(), 1)
		ON CONFLICT (target) DO UPDATE
		SET last_seen_at = NOW(),
		    seen_count = compose_dedupe.seen_count + 1,
		    job = EXCLUDED.job,
		    job_version = EXCLUDED.job_version
		RETURNING seen_count
	`

	var seenCount int
	err := t.db.QueryRowContext(ctx, query, target, job, jobVersion).Scan(&seenCount)
	if err != nil {
		return 0, fmt.Errorf("failed to record dedupe: %w", err)
	}

	return seenCount, nil
}

// GetSeenCount retrieves the seen count for a target
func (t *Tracker) GetSeenCount(ctx context.Context, target string) (int, error) {
	query := `SELECT seen_count FROM compose_dedupe WHERE target = $1`

	var seenCount int
	err := t.db.QueryRowContext(ctx, query, target).Scan(&seenCount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get seen count: %w", err)
	}

	return seenCount, nil
}
