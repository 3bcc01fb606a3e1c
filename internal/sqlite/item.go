package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/studyloop/revise/internal/domain/revision"
	"github.com/studyloop/revise/internal/repository"
)

const itemColumns = `
	id, owner_id, course, topic_id, topic_title, lesson_id, lesson_title,
	scheduled_date, interval_day, revision_type, priority, estimated_minutes, rationale,
	initial_understanding, original_date, reschedule_count, spawned_extra,
	status, completed_at, perf_accuracy, perf_attempts, perf_hints_used, perf_quiz_id,
	created_at, modified_at`

// ItemRepository implements revision.ItemRepository for SQLite
type ItemRepository struct {
	db *DB
}

var _ revision.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// CreateBatch persists a schedule batch and its items in one transaction. A
// second batch for the same key fails with repository.ErrDuplicateKey and
// leaves nothing behind.
func (r *ItemRepository) CreateBatch(ctx context.Context, batch *revision.ScheduleBatch, items []*revision.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lessonID := ""
	if batch.Key.LessonID != nil {
		lessonID = *batch.Key.LessonID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedule_batches (id, owner_id, course, topic_id, lesson_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Key.OwnerID, batch.Key.Course, batch.Key.TopicID, lessonID, batch.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create schedule batch: %w", err)
	}

	for _, item := range items {
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Create inserts a single item.
func (r *ItemRepository) Create(ctx context.Context, item *revision.Item) error {
	return insertItem(ctx, r.db, item)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, db execer, item *revision.Item) error {
	query := `
		INSERT INTO revision_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var perfAccuracy, perfAttempts, perfHints sql.NullInt64
	var perfQuizID sql.NullString
	if item.Performance != nil {
		perfAccuracy = sql.NullInt64{Int64: int64(item.Performance.Accuracy), Valid: true}
		perfAttempts = sql.NullInt64{Int64: int64(item.Performance.Attempts), Valid: true}
		perfHints = sql.NullInt64{Int64: int64(item.Performance.HintsUsed), Valid: true}
		perfQuizID = sql.NullString{String: item.Performance.QuizID, Valid: item.Performance.QuizID != ""}
	}

	_, err := db.ExecContext(ctx, query,
		item.ID,
		item.OwnerID,
		item.Course,
		item.TopicID,
		item.TopicTitle,
		item.LessonID,
		item.LessonTitle,
		item.ScheduledDate.UTC(),
		item.IntervalDay,
		item.RevisionType,
		item.Priority,
		item.EstimatedMinutes,
		item.Rationale,
		item.InitialUnderstanding,
		nullTime(item.OriginalDate),
		item.RescheduleCount,
		item.SpawnedExtra,
		item.Status,
		nullTime(item.CompletedAt),
		perfAccuracy,
		perfAttempts,
		perfHints,
		perfQuizID,
		item.CreatedAt.UTC(),
		item.ModifiedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// Get retrieves an item by ID
func (r *ItemRepository) Get(ctx context.Context, id string) (*revision.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM revision_items WHERE id = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// Update rewrites an item's mutable fields
func (r *ItemRepository) Update(ctx context.Context, item *revision.Item) error {
	query := `
		UPDATE revision_items
		SET scheduled_date = ?, priority = ?, rationale = ?,
		    original_date = ?, reschedule_count = ?,
		    status = ?, completed_at = ?,
		    perf_accuracy = ?, perf_attempts = ?, perf_hints_used = ?, perf_quiz_id = ?,
		    modified_at = ?
		WHERE id = ?
	`

	var perfAccuracy, perfAttempts, perfHints sql.NullInt64
	var perfQuizID sql.NullString
	if item.Performance != nil {
		perfAccuracy = sql.NullInt64{Int64: int64(item.Performance.Accuracy), Valid: true}
		perfAttempts = sql.NullInt64{Int64: int64(item.Performance.Attempts), Valid: true}
		perfHints = sql.NullInt64{Int64: int64(item.Performance.HintsUsed), Valid: true}
		perfQuizID = sql.NullString{String: item.Performance.QuizID, Valid: item.Performance.QuizID != ""}
	}

	result, err := r.db.ExecContext(ctx, query,
		item.ScheduledDate.UTC(),
		item.Priority,
		item.Rationale,
		nullTime(item.OriginalDate),
		item.RescheduleCount,
		item.Status,
		nullTime(item.CompletedAt),
		perfAccuracy,
		perfAttempts,
		perfHints,
		perfQuizID,
		item.ModifiedAt.UTC(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindPendingByTopic returns pending items for a topic scheduled after the given instant
func (r *ItemRepository) FindPendingByTopic(ctx context.Context, ownerID string, course revision.Course, topicID string, after time.Time) ([]*revision.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM revision_items
		WHERE owner_id = ? AND course = ? AND topic_id = ? AND status = 'pending' AND scheduled_date > ?
		ORDER BY scheduled_date ASC, created_at ASC
	`
	return r.queryItems(ctx, query, ownerID, course, topicID, after.UTC())
}

// FindPendingInRange returns pending items with from <= scheduled_date < to
func (r *ItemRepository) FindPendingInRange(ctx context.Context, ownerID string, from, to time.Time) ([]*revision.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM revision_items
		WHERE owner_id = ? AND status = 'pending' AND scheduled_date >= ? AND scheduled_date < ?
		ORDER BY scheduled_date ASC, created_at ASC
	`
	return r.queryItems(ctx, query, ownerID, from.UTC(), to.UTC())
}

// FindOverdue returns pending items scheduled strictly before the given date
func (r *ItemRepository) FindOverdue(ctx context.Context, ownerID string, before time.Time) ([]*revision.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM revision_items
		WHERE owner_id = ? AND status = 'pending' AND scheduled_date < ?
		ORDER BY scheduled_date ASC, created_at ASC
	`
	return r.queryItems(ctx, query, ownerID, before.UTC())
}

// ApplyCatchup marks the given items missed as of markedAt and inserts their
// clones in a single transaction
func (r *ItemRepository) ApplyCatchup(ctx context.Context, missedIDs []string, clones []*revision.Item, markedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range missedIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE revision_items SET status = 'missed', modified_at = ? WHERE id = ? AND status = 'pending'`,
			markedAt.UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("failed to mark item missed: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			// Another writer already moved this item out of pending.
			return repository.ErrConflict
		}
	}

	for _, clone := range clones {
		if err := insertItem(ctx, tx, clone); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catch-up: %w", err)
	}
	return nil
}

// CountPendingExtras counts pending adjuster-spawned items for a topic
func (r *ItemRepository) CountPendingExtras(ctx context.Context, ownerID string, course revision.Course, topicID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM revision_items
		WHERE owner_id = ? AND course = ? AND topic_id = ? AND status = 'pending' AND spawned_extra = 1`,
		ownerID, course, topicID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count extras: %w", err)
	}
	return count, nil
}

// OwnersWithOverdue returns owners holding pending items scheduled before the given date
func (r *ItemRepository) OwnersWithOverdue(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT owner_id FROM revision_items
		WHERE status = 'pending' AND scheduled_date < ?
		ORDER BY owner_id`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners with overdue items: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner rows: %w", err)
	}
	return owners, nil
}

func (r *ItemRepository) queryItems(ctx context.Context, query string, args ...any) ([]*revision.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*revision.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*revision.Item, error) {
	var item revision.Item
	var originalDate, completedAt sql.NullTime
	var perfAccuracy, perfAttempts, perfHints sql.NullInt64
	var perfQuizID sql.NullString

	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Course,
		&item.TopicID,
		&item.TopicTitle,
		&item.LessonID,
		&item.LessonTitle,
		&item.ScheduledDate,
		&item.IntervalDay,
		&item.RevisionType,
		&item.Priority,
		&item.EstimatedMinutes,
		&item.Rationale,
		&item.InitialUnderstanding,
		&originalDate,
		&item.RescheduleCount,
		&item.SpawnedExtra,
		&item.Status,
		&completedAt,
		&perfAccuracy,
		&perfAttempts,
		&perfHints,
		&perfQuizID,
		&item.CreatedAt,
		&item.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if originalDate.Valid {
		t := originalDate.Time
		item.OriginalDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	if perfAccuracy.Valid {
		item.Performance = &revision.Performance{
			Accuracy:  int(perfAccuracy.Int64),
			Attempts:  int(perfAttempts.Int64),
			HintsUsed: int(perfHints.Int64),
			QuizID:    perfQuizID.String,
		}
	}

	return &item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
