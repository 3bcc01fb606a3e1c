package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It runs on every boot, so every statement
// is a no-op when the schema already exists. The unique index on
// schedule_batches is the authoritative idempotency guard for schedule
// generation.
func (db *DB) RunMigrations() error {
	migration := `
-- Idempotency records: one row per generated schedule batch
CREATE TABLE IF NOT EXISTS schedule_batches (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    course TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    lesson_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    UNIQUE (owner_id, course, topic_id, lesson_id)
);

-- Revision items. Rows are never deleted; missed and completed items stay
-- as the learner's history.
CREATE TABLE IF NOT EXISTS revision_items (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    course TEXT NOT NULL CHECK(course IN ('dsa', 'webdev', 'dbms', 'os', 'networks', 'aptitude')),
    topic_id TEXT NOT NULL,
    topic_title TEXT NOT NULL,
    lesson_id TEXT,
    lesson_title TEXT,
    scheduled_date TIMESTAMP NOT NULL,
    interval_day INTEGER NOT NULL,
    revision_type TEXT NOT NULL CHECK(revision_type IN ('notes', 'quiz', 'recall', 'coding', 'explain')),
    priority TEXT NOT NULL CHECK(priority IN ('low', 'medium', 'high', 'critical')),
    estimated_minutes INTEGER NOT NULL,
    rationale TEXT NOT NULL,
    initial_understanding TEXT NOT NULL CHECK(initial_understanding IN ('confused', 'partial', 'clear', 'crystal')),
    original_date TIMESTAMP,
    reschedule_count INTEGER NOT NULL DEFAULT 0,
    spawned_extra INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL CHECK(status IN ('pending', 'completed', 'missed', 'skipped', 'rescheduled')),
    completed_at TIMESTAMP,
    perf_accuracy INTEGER,
    perf_attempts INTEGER,
    perf_hints_used INTEGER,
    perf_quiz_id TEXT,
    created_at TIMESTAMP NOT NULL,
    modified_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_owner_date_status ON revision_items(owner_id, scheduled_date, status);
CREATE INDEX IF NOT EXISTS idx_items_owner_topic ON revision_items(owner_id, course, topic_id);
CREATE INDEX IF NOT EXISTS idx_items_owner_status ON revision_items(owner_id, status);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
