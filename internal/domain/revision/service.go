package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studyloop/revise/internal/repository"
)

// Tuning holds the deployment-adjustable knobs of the engine.
type Tuning struct {
	// CatchupMaxPerDay caps how many reflowed items land on one catch-up day.
	CatchupMaxPerDay int
	// SpawnedExtraCap bounds outstanding accelerate items per topic. Zero
	// means unlimited.
	SpawnedExtraCap int
}

// DefaultTuning returns the standard engine knobs.
func DefaultTuning() Tuning {
	return Tuning{CatchupMaxPerDay: 5, SpawnedExtraCap: 3}
}

// Service is the adaptive revision scheduling engine: it generates spaced
// revision schedules from completion events, adjusts them as quiz evidence
// arrives, and compresses overdue backlogs into a near-term calendar.
type Service struct {
	items  ItemRepository
	policy IntervalPolicy
	tuning Tuning
	logger *slog.Logger

	topicLocks *keyedMutex
	ownerLocks *tryLock

	now func() time.Time
}

// NewService creates a new scheduling service.
func NewService(items ItemRepository, policy IntervalPolicy, tuning Tuning, logger *slog.Logger) *Service {
	if tuning.CatchupMaxPerDay <= 0 {
		tuning.CatchupMaxPerDay = DefaultTuning().CatchupMaxPerDay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		items:      items,
		policy:     policy,
		tuning:     tuning,
		logger:     logger,
		topicLocks: newKeyedMutex(),
		ownerLocks: newTryLock(),
		now:        time.Now,
	}
}

// GenerateResult reports the outcome of schedule generation.
type GenerateResult struct {
	Created          []*Item `json:"created"`
	AlreadyGenerated bool    `json:"already_generated"`
}

// Generate builds the spaced revision batch for a completed lesson. It is
// idempotent per (owner, course, topic, lesson): a repeated event returns
// AlreadyGenerated without creating anything.
func (s *Service) Generate(ctx context.Context, event CompletionEvent) (*GenerateResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	row, ok := s.policy.Row(event.Understanding)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnderstanding, event.Understanding)
	}

	key := topicKey(event.OwnerID, event.Course, event.TopicID)
	s.topicLocks.Lock(key)
	defer s.topicLocks.Unlock(key)

	now := s.now()
	baseline := dateOnly(event.CompletedAt)
	items := make([]*Item, 0, len(row.IntervalDays))
	for i, day := range row.IntervalDays {
		activity := row.Activities[i]
		items = append(items, &Item{
			ID:                   uuid.NewString(),
			OwnerID:              event.OwnerID,
			Course:               event.Course,
			TopicID:              event.TopicID,
			TopicTitle:           event.TopicTitle,
			LessonID:             event.LessonID,
			LessonTitle:          event.LessonTitle,
			ScheduledDate:        baseline.AddDate(0, 0, day),
			IntervalDay:          day,
			RevisionType:         activity,
			Priority:             row.Priority,
			EstimatedMinutes:     s.policy.Effort(activity),
			Rationale:            generationRationale(day, event.Understanding, activity),
			InitialUnderstanding: event.Understanding,
			Status:               StatusPending,
			CreatedAt:            now,
			ModifiedAt:           now,
		})
	}

	batch := &ScheduleBatch{
		ID: uuid.NewString(),
		Key: BatchKey{
			OwnerID:  event.OwnerID,
			Course:   event.Course,
			TopicID:  event.TopicID,
			LessonID: event.LessonID,
		},
		CreatedAt: now,
	}

	if err := s.items.CreateBatch(ctx, batch, items); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Debug("schedule already generated",
				"owner", event.OwnerID, "topic", event.TopicID)
			return &GenerateResult{AlreadyGenerated: true}, nil
		}
		return nil, fmt.Errorf("creating schedule batch: %w", err)
	}

	s.logger.Info("schedule generated",
		"owner", event.OwnerID,
		"topic", event.TopicID,
		"understanding", event.Understanding,
		"items", len(items))

	return &GenerateResult{Created: items}, nil
}

func validateEvent(event CompletionEvent) error {
	if strings.TrimSpace(event.OwnerID) == "" || strings.TrimSpace(event.TopicID) == "" {
		return ErrInvalidInput
	}
	if !ValidCourse(event.Course) {
		return fmt.Errorf("%w: unknown course %q", ErrInvalidInput, event.Course)
	}
	if event.CompletedAt.IsZero() {
		return fmt.Errorf("%w: missing completion time", ErrInvalidInput)
	}
	return nil
}

func generationRationale(day int, level Understanding, activity RevisionType) string {
	return fmt.Sprintf("Day-%d %s revision: scheduled because the topic was rated %q on completion", day, activity, level)
}

func topicKey(ownerID string, course Course, topicID string) string {
	return ownerID + "|" + string(course) + "|" + topicID
}

// dateOnly truncates an instant to midnight UTC. All schedule arithmetic
// works on whole calendar days.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
