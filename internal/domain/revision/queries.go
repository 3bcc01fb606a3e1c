package revision

import (
	"context"
	"fmt"
)

// DueToday returns the owner's pending items scheduled for the current day.
func (s *Service) DueToday(ctx context.Context, ownerID string) ([]*Item, error) {
	today := dateOnly(s.now())
	items, err := s.items.FindPendingInRange(ctx, ownerID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("loading due items: %w", err)
	}
	return items, nil
}

// Overdue returns the owner's pending items scheduled before today.
func (s *Service) Overdue(ctx context.Context, ownerID string) ([]*Item, error) {
	items, err := s.items.FindOverdue(ctx, ownerID, dateOnly(s.now()))
	if err != nil {
		return nil, fmt.Errorf("loading overdue items: %w", err)
	}
	return items, nil
}

// Upcoming returns pending items scheduled within the next N days, starting
// tomorrow.
func (s *Service) Upcoming(ctx context.Context, ownerID string, days int) ([]*Item, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	tomorrow := dateOnly(s.now()).AddDate(0, 0, 1)
	items, err := s.items.FindPendingInRange(ctx, ownerID, tomorrow, tomorrow.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("loading upcoming items: %w", err)
	}
	return items, nil
}
