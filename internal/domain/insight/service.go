package insight

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/studyloop/revise/internal/domain/revision"
)

const (
	completionWeight = 0.4
	accuracyWeight   = 0.6

	// staleAfterDays is how long a topic may go without a completed revision
	// before it is suggested for review.
	staleAfterDays = 30
	// minMissedForSuggestion filters one-off misses out of the suggestions.
	minMissedForSuggestion = 2
)

// Service computes retention metrics and study suggestions from the item
// history. It is read-only: nothing here mutates the schedule.
type Service struct {
	stats  StatsRepository
	logger *slog.Logger

	now func() time.Time
}

// NewService creates a new insight service.
func NewService(stats StatsRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stats: stats, logger: logger, now: time.Now}
}

// RetentionScore combines completion rate and recall accuracy into a bounded
// composite. Both inputs live in [0,100], so the weighted sum does too.
func (s *Service) RetentionScore(ctx context.Context, ownerID string, course *revision.Course) (RetentionScore, error) {
	counts, err := s.stats.Counts(ctx, ownerID, course)
	if err != nil {
		return RetentionScore{}, fmt.Errorf("loading item counts: %w", err)
	}

	var completionRate int
	if counts.Total > 0 {
		completionRate = int(math.Round(float64(counts.Completed) / float64(counts.Total) * 100))
	}

	var avgAccuracy float64
	if counts.AccuracyCount > 0 {
		avgAccuracy = float64(counts.AccuracySum) / float64(counts.AccuracyCount)
	}

	score := int(math.Round(float64(completionRate)*completionWeight + avgAccuracy*accuracyWeight))

	return RetentionScore{
		Score:          score,
		CompletionRate: completionRate,
		AvgAccuracy:    avgAccuracy,
		Total:          counts.Total,
		Completed:      counts.Completed,
		Missed:         counts.Missed,
	}, nil
}

// Streak counts consecutive calendar days with at least one completion,
// walking backward from today. A day with no completion yet today does not
// break the streak; the walk simply starts from yesterday.
func (s *Service) Streak(ctx context.Context, ownerID string) (int, error) {
	dates, err := s.stats.CompletionDates(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("loading completion dates: %w", err)
	}
	if len(dates) == 0 {
		return 0, nil
	}

	completed := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		completed[dateOnly(d)] = true
	}

	cursor := dateOnly(s.now())
	if !completed[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for completed[cursor] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak, nil
}

// Suggestions derives the owner's weak, stale and frequently-missed topics.
func (s *Service) Suggestions(ctx context.Context, ownerID string) (Suggestions, error) {
	weak, err := s.stats.WeakTopics(ctx, ownerID)
	if err != nil {
		return Suggestions{}, fmt.Errorf("loading weak topics: %w", err)
	}

	cutoff := dateOnly(s.now()).AddDate(0, 0, -staleAfterDays)
	stale, err := s.stats.StaleTopics(ctx, ownerID, cutoff)
	if err != nil {
		return Suggestions{}, fmt.Errorf("loading stale topics: %w", err)
	}

	missed, err := s.stats.MissedTopics(ctx, ownerID, minMissedForSuggestion)
	if err != nil {
		return Suggestions{}, fmt.Errorf("loading missed topics: %w", err)
	}

	return Suggestions{
		WeakTopics:       weak,
		StaleTopics:      stale,
		FrequentlyMissed: missed,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
