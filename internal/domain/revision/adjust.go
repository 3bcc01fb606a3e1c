package revision

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// AdjustmentKind classifies the outcome of a performance adjustment.
type AdjustmentKind string

const (
	AdjustAccelerate AdjustmentKind = "accelerate"
	AdjustDelay      AdjustmentKind = "delay"
	AdjustMaintain   AdjustmentKind = "maintain"
	AdjustNone       AdjustmentKind = "none"
)

const (
	accelerateBelow = 50
	delayFrom       = 85
	delayFactor     = 1.5
	accelerateLead  = 3
)

// Adjustment describes what a quiz result did to the schedule.
type Adjustment struct {
	Adjusted       bool           `json:"adjusted"`
	Kind           AdjustmentKind `json:"kind"`
	AdjustmentDays int            `json:"adjustment_days,omitempty"`
}

// Adjust reacts to a graded quiz for a topic. Low accuracy inserts one extra
// near-term quiz at critical priority; high accuracy stretches the remaining
// pending dates by half again; mid-range accuracy leaves the plan alone.
// Calls for the same (owner, topic) are serialized: the delay path is a
// read-then-write over every pending item and must not interleave.
func (s *Service) Adjust(ctx context.Context, ownerID string, course Course, topicID string, accuracy int) (Adjustment, error) {
	if accuracy < 0 || accuracy > 100 {
		return Adjustment{}, fmt.Errorf("%w: got %d", ErrInvalidAccuracy, accuracy)
	}

	key := topicKey(ownerID, course, topicID)
	s.topicLocks.Lock(key)
	defer s.topicLocks.Unlock(key)

	now := s.now()
	pending, err := s.items.FindPendingByTopic(ctx, ownerID, course, topicID, now)
	if err != nil {
		return Adjustment{}, fmt.Errorf("loading pending items: %w", err)
	}
	if len(pending) == 0 {
		return Adjustment{Adjusted: false, Kind: AdjustNone}, nil
	}

	switch {
	case accuracy < accelerateBelow:
		return s.accelerate(ctx, pending[0], accuracy, now)
	case accuracy >= delayFrom:
		return s.delay(ctx, pending, accuracy, now)
	default:
		return Adjustment{Adjusted: false, Kind: AdjustMaintain}, nil
	}
}

// accelerate inserts a single extra quiz a few days out. The new item is
// treated as if the learner were confused about the topic, without rewriting
// the stored understanding of the existing items.
func (s *Service) accelerate(ctx context.Context, template *Item, accuracy int, now time.Time) (Adjustment, error) {
	if s.tuning.SpawnedExtraCap > 0 {
		extras, err := s.items.CountPendingExtras(ctx, template.OwnerID, template.Course, template.TopicID)
		if err != nil {
			return Adjustment{}, fmt.Errorf("counting extra items: %w", err)
		}
		if extras >= s.tuning.SpawnedExtraCap {
			s.logger.Info("extra item cap reached, maintaining schedule",
				"owner", template.OwnerID, "topic", template.TopicID, "extras", extras)
			return Adjustment{Adjusted: false, Kind: AdjustMaintain}, nil
		}
	}

	extra := &Item{
		ID:                   uuid.NewString(),
		OwnerID:              template.OwnerID,
		Course:               template.Course,
		TopicID:              template.TopicID,
		TopicTitle:           template.TopicTitle,
		LessonID:             template.LessonID,
		LessonTitle:          template.LessonTitle,
		ScheduledDate:        dateOnly(now).AddDate(0, 0, accelerateLead),
		IntervalDay:          accelerateLead,
		RevisionType:         TypeQuiz,
		Priority:             PriorityCritical,
		EstimatedMinutes:     s.policy.Effort(TypeQuiz),
		Rationale:            fmt.Sprintf("Extra quiz added: accuracy was %d%%, below the %d%% threshold", accuracy, accelerateBelow),
		InitialUnderstanding: UnderstandingConfused,
		SpawnedExtra:         true,
		Status:               StatusPending,
		CreatedAt:            now,
		ModifiedAt:           now,
	}

	if err := s.items.Create(ctx, extra); err != nil {
		return Adjustment{}, fmt.Errorf("creating extra item: %w", err)
	}

	s.logger.Info("schedule accelerated",
		"owner", template.OwnerID, "topic", template.TopicID, "accuracy", accuracy)

	return Adjustment{Adjusted: true, Kind: AdjustAccelerate, AdjustmentDays: accelerateLead}, nil
}

// delay stretches every remaining pending date by the delay factor.
func (s *Service) delay(ctx context.Context, pending []*Item, accuracy int, now time.Time) (Adjustment, error) {
	firstShift := 0
	for i, item := range pending {
		remaining := daysUntil(now, item.ScheduledDate)
		newRemaining := int(math.Ceil(float64(remaining) * delayFactor))
		newDate := dateOnly(now).AddDate(0, 0, newRemaining)

		shift := daysBetween(item.ScheduledDate, newDate)
		if i == 0 {
			firstShift = shift
		}

		item.ScheduledDate = newDate
		item.Rationale += fmt.Sprintf(" | Delayed: accuracy %d%% pushed this out by %d days", accuracy, shift)
		item.ModifiedAt = now

		if err := s.items.Update(ctx, item); err != nil {
			return Adjustment{}, fmt.Errorf("delaying item %s: %w", item.ID, err)
		}
	}

	s.logger.Info("schedule delayed",
		"owner", pending[0].OwnerID, "topic", pending[0].TopicID,
		"accuracy", accuracy, "items", len(pending))

	return Adjustment{Adjusted: true, Kind: AdjustDelay, AdjustmentDays: firstShift}, nil
}

// daysUntil returns the number of whole days from now until the date, rounded
// up so a partially elapsed day still counts.
func daysUntil(now, date time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(dateOnly(to).Sub(dateOnly(from)).Hours() / 24))
}
