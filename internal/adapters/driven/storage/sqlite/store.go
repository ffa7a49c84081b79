package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	scanned     INTEGER NOT NULL DEFAULT 0,
	kept        INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	notes       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// RunStore records pipeline runs in a SQLite database.
type RunStore struct {
	db   *sql.DB
	path string
}

// NewRunStore opens (or creates) the ledger at dataDir/runs.db.
func NewRunStore(dataDir string) (*RunStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")

	// WAL mode keeps reads cheap while a run is being recorded.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &RunStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *RunStore) Path() string {
	return s.path
}

// RecordRun implements driven.RunStore.
func (s *RunStore) RecordRun(ctx context.Context, rec driven.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, source, started_at, finished_at, scanned, kept, failed, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Kind,
		rec.Source,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.Scanned,
		rec.Kept,
		rec.Failed,
		rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns implements driven.RunStore.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]driven.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, source, started_at, finished_at, scanned, kept, failed, notes
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []driven.RunRecord
	for rows.Next() {
		var rec driven.RunRecord
		var started, finished string
		if err := rows.Scan(
			&rec.ID, &rec.Kind, &rec.Source, &started, &finished,
			&rec.Scanned, &rec.Kept, &rec.Failed, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return out, nil
}

// Close implements driven.RunStore.
func (s *RunStore) Close() error {
	return s.db.Close()
}
