package revision_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/revise/internal/domain/revision"
	"github.com/studyloop/revise/internal/repository/mocks"
)

var catchupNow = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

func overdueItem(id string, priority revision.Priority, daysAgo int) *revision.Item {
	item := pendingItem(id, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo))
	item.Priority = priority
	return item
}

func TestRunCatchup_ReflowsTwelveItemsAcrossThreeDays(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ItemRepository{}

	// 7 critical and 5 high, interleaved the way a date-ordered scan would
	// return them.
	var overdue []*revision.Item
	for i := 0; i < 7; i++ {
		overdue = append(overdue, overdueItem(fmt.Sprintf("c%d", i), revision.PriorityCritical, 10-i))
	}
	for i := 0; i < 5; i++ {
		overdue = append(overdue, overdueItem(fmt.Sprintf("h%d", i), revision.PriorityHigh, 9-i))
	}
	mixed := []*revision.Item{
		overdue[7], overdue[0], overdue[8], overdue[1], overdue[2], overdue[9],
		overdue[3], overdue[10], overdue[4], overdue[5], overdue[11], overdue[6],
	}

	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	repo.On("FindOverdue", ctx, "learner1", today).Return(mixed, nil)

	var missedIDs []string
	var clones []*revision.Item
	var markedAt time.Time
	repo.On("ApplyCatchup", ctx, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			missedIDs = args.Get(1).([]string)
			clones = args.Get(2).([]*revision.Item)
			markedAt = args.Get(3).(time.Time)
		}).
		Return(nil)

	svc := newTestService(repo, catchupNow)
	plan, err := svc.RunCatchup(ctx, "learner1")
	require.NoError(t, err)
	require.Equal(t, 12, plan.CreatedCount)
	require.Equal(t, 3, plan.DaysToComplete)
	require.Len(t, plan.Items, 12)

	// Critical items come first, preserving their scan order within the tier.
	require.Equal(t, []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "h0", "h1", "h2", "h3", "h4"}, missedIDs)

	// The originals are retired with the engine clock, not wall time.
	require.Equal(t, catchupNow, markedAt)

	// At most five clones per day: indices 0-4 on day 0, 5-9 on day 1, 10-11 on day 2.
	for i, clone := range clones {
		wantDate := today.AddDate(0, 0, i/5)
		require.Equal(t, wantDate, clone.ScheduledDate, "clone %d", i)
		require.Equal(t, revision.StatusPending, clone.Status)
		require.Contains(t, clone.Rationale, "Catch-up: ")
		require.NotEqual(t, missedIDs[i], clone.ID, "clone must get a fresh ID")
	}

	// Clones carry the original's identity and effort.
	require.Equal(t, revision.PriorityCritical, clones[0].Priority)
	require.Equal(t, revision.PriorityHigh, clones[11].Priority)
	require.Equal(t, "graphs", clones[0].TopicID)
	require.Equal(t, 8, clones[0].EstimatedMinutes)
}

func TestRunCatchup_NoOverdueItemsIsEmptyPlan(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ItemRepository{}
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	repo.On("FindOverdue", ctx, "learner1", today).Return([]*revision.Item{}, nil)

	svc := newTestService(repo, catchupNow)
	plan, err := svc.RunCatchup(ctx, "learner1")
	require.NoError(t, err)
	require.Equal(t, 0, plan.CreatedCount)
	require.Equal(t, 0, plan.DaysToComplete)
	require.Empty(t, plan.Items)

	repo.AssertNotCalled(t, "ApplyCatchup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunCatchup_SecondConcurrentRunIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ItemRepository{}
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	entered := make(chan struct{})
	release := make(chan struct{})
	repo.On("FindOverdue", ctx, "learner1", today).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return([]*revision.Item{}, nil)

	svc := newTestService(repo, catchupNow)

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunCatchup(ctx, "learner1")
		done <- err
	}()

	<-entered
	_, err := svc.RunCatchup(ctx, "learner1")
	require.ErrorIs(t, err, revision.ErrCatchupRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestRunCatchup_RespectsConfiguredDailyCap(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ItemRepository{}
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	var overdue []*revision.Item
	for i := 0; i < 4; i++ {
		overdue = append(overdue, overdueItem(fmt.Sprintf("i%d", i), revision.PriorityMedium, i+1))
	}
	repo.On("FindOverdue", ctx, "learner1", today).Return(overdue, nil)
	repo.On("ApplyCatchup", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := revision.NewService(repo, revision.DefaultPolicy(),
		revision.Tuning{CatchupMaxPerDay: 2}, nil)
	revision.SetNow(svc, func() time.Time { return catchupNow })

	plan, err := svc.RunCatchup(ctx, "learner1")
	require.NoError(t, err)
	require.Equal(t, 4, plan.CreatedCount)
	require.Equal(t, 2, plan.DaysToComplete)
	require.Equal(t, today, plan.Items[0].ScheduledDate)
	require.Equal(t, today, plan.Items[1].ScheduledDate)
	require.Equal(t, today.AddDate(0, 0, 1), plan.Items[2].ScheduledDate)
	require.Equal(t, today.AddDate(0, 0, 1), plan.Items[3].ScheduledDate)
}
