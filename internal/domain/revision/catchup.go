package revision

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CatchupPlan describes the reflowed calendar produced by a catch-up pass.
type CatchupPlan struct {
	CreatedCount   int     `json:"created_count"`
	DaysToComplete int     `json:"days_to_complete"`
	Items          []*Item `json:"items"`
}

// RunCatchup compresses an owner's overdue backlog into a near-term window.
// Overdue items are walked critical-first, at most CatchupMaxPerDay land on
// each day, originals are retired as missed and replaced with pending clones.
// At most one pass runs per owner at a time; a concurrent call returns
// ErrCatchupRunning so the caller can retry.
func (s *Service) RunCatchup(ctx context.Context, ownerID string) (*CatchupPlan, error) {
	if !s.ownerLocks.TryLock(ownerID) {
		return nil, ErrCatchupRunning
	}
	defer s.ownerLocks.Unlock(ownerID)

	now := s.now()
	today := dateOnly(now)

	overdue, err := s.items.FindOverdue(ctx, ownerID, today)
	if err != nil {
		return nil, fmt.Errorf("loading overdue items: %w", err)
	}
	if len(overdue) == 0 {
		return &CatchupPlan{}, nil
	}

	ordered := byPriorityTier(overdue)

	missedIDs := make([]string, 0, len(ordered))
	clones := make([]*Item, 0, len(ordered))
	maxOffset := 0
	for i, original := range ordered {
		offset := i / s.tuning.CatchupMaxPerDay
		if offset > maxOffset {
			maxOffset = offset
		}

		clone := &Item{
			ID:                   uuid.NewString(),
			OwnerID:              original.OwnerID,
			Course:               original.Course,
			TopicID:              original.TopicID,
			TopicTitle:           original.TopicTitle,
			LessonID:             original.LessonID,
			LessonTitle:          original.LessonTitle,
			ScheduledDate:        today.AddDate(0, 0, offset),
			IntervalDay:          original.IntervalDay,
			RevisionType:         original.RevisionType,
			Priority:             original.Priority,
			EstimatedMinutes:     original.EstimatedMinutes,
			Rationale:            "Catch-up: " + original.Rationale,
			InitialUnderstanding: original.InitialUnderstanding,
			SpawnedExtra:         original.SpawnedExtra,
			Status:               StatusPending,
			CreatedAt:            now,
			ModifiedAt:           now,
		}

		missedIDs = append(missedIDs, original.ID)
		clones = append(clones, clone)
	}

	if err := s.items.ApplyCatchup(ctx, missedIDs, clones, now); err != nil {
		return nil, fmt.Errorf("applying catch-up: %w", err)
	}

	plan := &CatchupPlan{
		CreatedCount:   len(clones),
		DaysToComplete: maxOffset + 1,
		Items:          clones,
	}

	s.logger.Info("catch-up completed",
		"owner", ownerID, "reflowed", plan.CreatedCount, "days", plan.DaysToComplete)

	return plan, nil
}

// byPriorityTier concatenates items tier-major (critical first), preserving
// the incoming order within each tier.
func byPriorityTier(items []*Item) []*Item {
	tiers := map[Priority][]*Item{}
	for _, item := range items {
		tiers[item.Priority] = append(tiers[item.Priority], item)
	}

	ordered := make([]*Item, 0, len(items))
	for _, p := range []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow} {
		ordered = append(ordered, tiers[p]...)
	}
	return ordered
}
