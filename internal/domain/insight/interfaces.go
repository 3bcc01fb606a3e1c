package insight

import (
	"context"
	"time"

	"github.com/studyloop/revise/internal/domain/revision"
)

// StatsRepository provides the aggregate queries behind scores, streaks and
// suggestions.
type StatsRepository interface {
	// Counts aggregates item totals for an owner, optionally per course.
	Counts(ctx context.Context, ownerID string, course *revision.Course) (Counts, error)
	// CompletionDates returns the distinct calendar days (midnight UTC) on
	// which the owner completed at least one item, newest first.
	CompletionDates(ctx context.Context, ownerID string) ([]time.Time, error)
	// WeakTopics returns topics with items rated confused or partial.
	WeakTopics(ctx context.Context, ownerID string) ([]WeakTopic, error)
	// StaleTopics returns topics whose latest completion is before the cutoff.
	StaleTopics(ctx context.Context, ownerID string, before time.Time) ([]StaleTopic, error)
	// MissedTopics returns topics with at least minMissed missed items,
	// most-missed first.
	MissedTopics(ctx context.Context, ownerID string, minMissed int) ([]MissedTopic, error)
}
