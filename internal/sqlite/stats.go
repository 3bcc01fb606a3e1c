package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/studyloop/revise/internal/domain/insight"
	"github.com/studyloop/revise/internal/domain/revision"
)

// StatsRepository implements insight.StatsRepository for SQLite
type StatsRepository struct {
	db *DB
}

var _ insight.StatsRepository = (*StatsRepository)(nil)

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts aggregates item totals for an owner, optionally filtered by course
func (r *StatsRepository) Counts(ctx context.Context, ownerID string, course *revision.Course) (insight.Counts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(CASE WHEN status = 'missed' THEN 1 END),
			COALESCE(SUM(perf_accuracy), 0),
			COUNT(perf_accuracy)
		FROM revision_items
		WHERE owner_id = ?
	`
	args := []any{ownerID}
	if course != nil {
		query += " AND course = ?"
		args = append(args, *course)
	}

	var counts insight.Counts
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&counts.Total,
		&counts.Completed,
		&counts.Missed,
		&counts.AccuracySum,
		&counts.AccuracyCount,
	)
	if err != nil {
		return insight.Counts{}, fmt.Errorf("failed to aggregate counts: %w", err)
	}
	return counts, nil
}

// CompletionDates returns the distinct calendar days with at least one
// completion, newest first. Deduplication happens here rather than in SQL so
// day boundaries follow UTC regardless of how timestamps were stored.
func (r *StatsRepository) CompletionDates(ctx context.Context, ownerID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT completed_at FROM revision_items
		WHERE owner_id = ? AND status = 'completed' AND completed_at IS NOT NULL
		ORDER BY completed_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	seen := map[time.Time]bool{}
	for rows.Next() {
		var completedAt time.Time
		if err := rows.Scan(&completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion date: %w", err)
		}
		day := toDay(completedAt)
		if !seen[day] {
			seen[day] = true
			dates = append(dates, day)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completion dates: %w", err)
	}
	return dates, nil
}

// WeakTopics returns topics the owner rated confused or partial, most items first
func (r *StatsRepository) WeakTopics(ctx context.Context, ownerID string) ([]insight.WeakTopic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course, topic_id, topic_title, COUNT(*)
		FROM revision_items
		WHERE owner_id = ? AND initial_understanding IN ('confused', 'partial')
		GROUP BY course, topic_id, topic_title
		ORDER BY COUNT(*) DESC, topic_id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weak topics: %w", err)
	}
	defer rows.Close()

	var topics []insight.WeakTopic
	for rows.Next() {
		var t insight.WeakTopic
		if err := rows.Scan(&t.Course, &t.TopicID, &t.TopicTitle, &t.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan weak topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weak topics: %w", err)
	}
	return topics, nil
}

// StaleTopics returns topics whose most recent completion is before the
// cutoff. The per-topic max is computed here: timestamp expressions lose
// their column type in SQLite, so aggregating in SQL would hand back strings.
func (r *StatsRepository) StaleTopics(ctx context.Context, ownerID string, before time.Time) ([]insight.StaleTopic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course, topic_id, topic_title, completed_at
		FROM revision_items
		WHERE owner_id = ? AND status = 'completed' AND completed_at IS NOT NULL
		ORDER BY topic_id, completed_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale topics: %w", err)
	}
	defer rows.Close()

	latest := map[insight.TopicRef]time.Time{}
	for rows.Next() {
		var ref insight.TopicRef
		var completedAt time.Time
		if err := rows.Scan(&ref.Course, &ref.TopicID, &ref.TopicTitle, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stale topic: %w", err)
		}
		if completedAt.After(latest[ref]) {
			latest[ref] = completedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale topics: %w", err)
	}

	var topics []insight.StaleTopic
	for ref, last := range latest {
		if last.Before(before) {
			topics = append(topics, insight.StaleTopic{TopicRef: ref, LastCompletedAt: last})
		}
	}
	return topics, nil
}

// MissedTopics returns topics with at least minMissed missed items, most-missed first
func (r *StatsRepository) MissedTopics(ctx context.Context, ownerID string, minMissed int) ([]insight.MissedTopic, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course, topic_id, topic_title, COUNT(*)
		FROM revision_items
		WHERE owner_id = ? AND status = 'missed'
		GROUP BY course, topic_id, topic_title
		HAVING COUNT(*) >= ?
		ORDER BY COUNT(*) DESC, topic_id`,
		ownerID, minMissed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query missed topics: %w", err)
	}
	defer rows.Close()

	var topics []insight.MissedTopic
	for rows.Next() {
		var t insight.MissedTopic
		if err := rows.Scan(&t.Course, &t.TopicID, &t.TopicTitle, &t.MissedCount); err != nil {
			return nil, fmt.Errorf("failed to scan missed topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missed topics: %w", err)
	}
	return topics, nil
}

func toDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
