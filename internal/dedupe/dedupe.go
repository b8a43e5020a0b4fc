// Package dedupe tracks repeat submissions of the same source so operators
// can spot clients re-sending identical work. It never blocks processing.
package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Tracker tracks duplicate job submissions keyed by source reference.
type Tracker struct {
	db *sql.DB
}

// NewTracker creates a dedupe tracker and ensures its table exists.
func NewTracker(db *sql.DB) (*Tracker, error) {
	tracker := &Tracker{db: db}

	if err := tracker.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure dedupe table: %w", err)
	}

	return tracker, nil
}

func (t *Tracker) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS media_dedupe (
			source TEXT PRIMARY KEY,
			job TEXT,
			first_seen_at TIMESTAMPTZ DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ DEFAULT NOW(),
			seen_count INTEGER DEFAULT 1
		)
	`

	_, err := t.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create media_dedupe table: %w", err)
	}

	slog.Debug("media_dedupe table ready")
	return nil
}

// Record records a submission for a source and returns how many times it has
// been seen, this submission included.
func (t *Tracker) Record(ctx context.Context, source string, job string) (int, error) {
	query := `
		INSERT INTO media_dedupe (source, job, first_seen_at, last_seen_at, seen_count)
		VALUES ($1, $2, NOW(), NOW(), 1)
		ON CONFLICT (source) DO UPDATE
		SET last_seen_at = NOW(),
		    seen_count = media_dedupe.seen_count + 1,
		    job = EXCLUDED.job
		RETURNING seen_count
	`

	var seenCount int
	err := t.db.QueryRowContext(ctx, query, source, job).Scan(&seenCount)
	if err != nil {
		return 0, fmt.Errorf("failed to record dedupe: %w", err)
	}

	return seenCount, nil
}

// GetSeenCount retrieves the seen count for a source. Unknown sources
// return 0.
func (t *Tracker) GetSeenCount(ctx context.Context, source string) (int, error) {
	query := `SELECT seen_count FROM media_dedupe WHERE source = $1`

	var seenCount int
	err := t.db.QueryRowContext(ctx, query, source).Scan(&seenCount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get seen count: %w", err)
	}

	return seenCount, nil
}
