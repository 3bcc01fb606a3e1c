package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyloop/revise/internal/repository"
)

// Reschedule moves an item to a new date by manual request. The original date
// is preserved on the first reschedule only; the count increments every time
// and the item returns to pending.
func (s *Service) Reschedule(ctx context.Context, itemID string, newDate time.Time, reason string) (*Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, fmt.Errorf("%w: status %q", ErrItemNotPending, item.Status)
	}

	now := s.now()
	if item.OriginalDate == nil {
		original := item.ScheduledDate
		item.OriginalDate = &original
	}
	item.ScheduledDate = dateOnly(newDate)
	item.RescheduleCount++
	item.Status = StatusPending
	if reason != "" {
		item.Rationale += " | Rescheduled: " + reason
	}
	item.ModifiedAt = now

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("rescheduling item: %w", err)
	}

	s.logger.Info("item rescheduled",
		"item", item.ID, "owner", item.OwnerID, "count", item.RescheduleCount)

	return item, nil
}

// Complete marks a pending item done, recording quiz performance when given.
func (s *Service) Complete(ctx context.Context, itemID string, perf *Performance) (*Item, error) {
	if perf != nil && (perf.Accuracy < 0 || perf.Accuracy > 100) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAccuracy, perf.Accuracy)
	}

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusPending {
		return nil, fmt.Errorf("%w: status %q", ErrItemNotPending, item.Status)
	}

	now := s.now()
	item.Status = StatusCompleted
	item.CompletedAt = &now
	item.Performance = perf
	item.ModifiedAt = now

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("completing item: %w", err)
	}

	return item, nil
}

// Skip marks a pending item as deliberately skipped.
func (s *Service) Skip(ctx context.Context, itemID string) (*Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusPending {
		return nil, fmt.Errorf("%w: status %q", ErrItemNotPending, item.Status)
	}

	item.Status = StatusSkipped
	item.ModifiedAt = s.now()

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("skipping item: %w", err)
	}

	return item, nil
}

func (s *Service) getItem(ctx context.Context, itemID string) (*Item, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("loading item: %w", err)
	}
	return item, nil
}
