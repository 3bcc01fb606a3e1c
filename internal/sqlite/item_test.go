package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/revise/internal/domain/revision"
	"github.com/studyloop/revise/internal/repository"
)

func testItem(ownerID string, scheduled time.Time) *revision.Item {
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	return &revision.Item{
		ID:                   uuid.NewString(),
		OwnerID:              ownerID,
		Course:               revision.CourseDSA,
		TopicID:              "binary-trees",
		TopicTitle:           "Binary Trees",
		ScheduledDate:        scheduled,
		IntervalDay:          3,
		RevisionType:         revision.TypeQuiz,
		Priority:             revision.PriorityHigh,
		EstimatedMinutes:     10,
		Rationale:            "Day-3 quiz revision",
		InitialUnderstanding: revision.UnderstandingPartial,
		Status:               revision.StatusPending,
		CreatedAt:            now,
		ModifiedAt:           now,
	}
}

func testBatch(ownerID, topicID string, lessonID *string) *revision.ScheduleBatch {
	return &revision.ScheduleBatch{
		ID: uuid.NewString(),
		Key: revision.BatchKey{
			OwnerID:  ownerID,
			Course:   revision.CourseDSA,
			TopicID:  topicID,
			LessonID: lessonID,
		},
		CreatedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestItemRepository_CreateBatchAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	lessonID := "lesson-1"
	lessonTitle := "Traversals"
	item := testItem("owner1", time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	item.LessonID = &lessonID
	item.LessonTitle = &lessonTitle

	err := repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", &lessonID), []*revision.Item{item})
	require.NoError(t, err)

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, item.OwnerID, got.OwnerID)
	require.Equal(t, item.Course, got.Course)
	require.Equal(t, item.TopicID, got.TopicID)
	require.NotNil(t, got.LessonID)
	require.Equal(t, lessonID, *got.LessonID)
	require.NotNil(t, got.LessonTitle)
	require.Equal(t, lessonTitle, *got.LessonTitle)
	require.True(t, got.ScheduledDate.Equal(item.ScheduledDate))
	require.Equal(t, item.IntervalDay, got.IntervalDay)
	require.Equal(t, item.RevisionType, got.RevisionType)
	require.Equal(t, item.Priority, got.Priority)
	require.Equal(t, item.EstimatedMinutes, got.EstimatedMinutes)
	require.Equal(t, item.Rationale, got.Rationale)
	require.Equal(t, item.InitialUnderstanding, got.InitialUnderstanding)
	require.Equal(t, revision.StatusPending, got.Status)
	require.Nil(t, got.OriginalDate)
	require.Nil(t, got.CompletedAt)
	require.Nil(t, got.Performance)
}

func TestItemRepository_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	_, err := repo.Get(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemRepository_CreateBatch_DuplicateKeyLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewItemRepository(db)

	first := testItem("owner1", time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	err := repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", nil), []*revision.Item{first})
	require.NoError(t, err)

	dup := testItem("owner1", time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC))
	err = repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", nil), []*revision.Item{dup})
	require.ErrorIs(t, err, repository.ErrDuplicateKey)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM revision_items`).Scan(&count))
	require.Equal(t, 1, count, "the rejected batch must roll back its items")
}

func TestItemRepository_CreateBatch_LessonScopesTheKey(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	// Topic-level batch and a lesson-level batch for the same topic coexist.
	err := repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", nil), nil)
	require.NoError(t, err)

	lessonID := "lesson-1"
	err = repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", &lessonID), nil)
	require.NoError(t, err)

	// A second topic-level batch is still a duplicate.
	err = repo.CreateBatch(ctx, testBatch("owner1", "binary-trees", nil), nil)
	require.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestItemRepository_Update_RoundTripsPerformance(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	item := testItem("owner1", time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, item))

	completedAt := time.Date(2024, 2, 4, 18, 30, 0, 0, time.UTC)
	item.Status = revision.StatusCompleted
	item.CompletedAt = &completedAt
	item.Performance = &revision.Performance{Accuracy: 85, Attempts: 2, HintsUsed: 1, QuizID: "quiz-9"}
	item.ModifiedAt = completedAt
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, revision.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.True(t, got.CompletedAt.Equal(completedAt))
	require.NotNil(t, got.Performance)
	require.Equal(t, 85, got.Performance.Accuracy)
	require.Equal(t, 2, got.Performance.Attempts)
	require.Equal(t, 1, got.Performance.HintsUsed)
	require.Equal(t, "quiz-9", got.Performance.QuizID)
}

func TestItemRepository_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	item := testItem("owner1", time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, repo.Update(ctx, item), repository.ErrNotFound)
}

func TestItemRepository_FindPendingByTopic(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	after := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	match := testItem("owner1", time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC))
	earlier := testItem("owner1", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))
	otherTopic := testItem("owner1", time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC))
	otherTopic.TopicID = "graphs"
	done := testItem("owner1", time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC))
	done.Status = revision.StatusCompleted

	for _, item := range []*revision.Item{match, earlier, otherTopic, done} {
		require.NoError(t, repo.Create(ctx, item))
	}

	got, err := repo.FindPendingByTopic(ctx, "owner1", revision.CourseDSA, "binary-trees", after)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, match.ID, got[0].ID)
}

func TestItemRepository_FindPendingInRange_BoundsAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }

	inRangeLate := testItem("owner1", day(9))
	inRangeEarly := testItem("owner1", day(5))
	atUpperBound := testItem("owner1", day(10))
	beforeRange := testItem("owner1", day(4))

	for _, item := range []*revision.Item{inRangeLate, inRangeEarly, atUpperBound, beforeRange} {
		require.NoError(t, repo.Create(ctx, item))
	}

	got, err := repo.FindPendingInRange(ctx, "owner1", day(5), day(10))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, inRangeEarly.ID, got[0].ID, "results must come back date ascending")
	require.Equal(t, inRangeLate.ID, got[1].ID)
}

func TestItemRepository_FindOverdue_StrictlyBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	overdue := testItem("owner1", today.AddDate(0, 0, -1))
	dueToday := testItem("owner1", today)
	otherOwner := testItem("owner2", today.AddDate(0, 0, -3))

	for _, item := range []*revision.Item{overdue, dueToday, otherOwner} {
		require.NoError(t, repo.Create(ctx, item))
	}

	got, err := repo.FindOverdue(ctx, "owner1", today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, overdue.ID, got[0].ID)
}

func TestItemRepository_ApplyCatchup(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	original := testItem("owner1", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, original))

	clone := testItem("owner1", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	clone.Rationale = "Catch-up: " + original.Rationale

	markedAt := time.Date(2024, 2, 10, 3, 0, 0, 0, time.UTC)
	err := repo.ApplyCatchup(ctx, []string{original.ID}, []*revision.Item{clone}, markedAt)
	require.NoError(t, err)

	missed, err := repo.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, revision.StatusMissed, missed.Status)
	require.True(t, missed.ModifiedAt.Equal(markedAt))

	created, err := repo.Get(ctx, clone.ID)
	require.NoError(t, err)
	require.Equal(t, revision.StatusPending, created.Status)
}

func TestItemRepository_ApplyCatchup_ConflictRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewItemRepository(db)

	first := testItem("owner1", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))
	completed := testItem("owner1", time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC))
	completed.Status = revision.StatusCompleted
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, completed))

	cloneA := testItem("owner1", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	cloneB := testItem("owner1", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	// The second original is no longer pending, so the whole pass must abort.
	markedAt := time.Date(2024, 2, 10, 3, 0, 0, 0, time.UTC)
	err := repo.ApplyCatchup(ctx, []string{first.ID, completed.ID}, []*revision.Item{cloneA, cloneB}, markedAt)
	require.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, revision.StatusPending, got.Status, "rollback must restore the first original")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM revision_items`).Scan(&count))
	require.Equal(t, 2, count, "no clones may survive the rollback")
}

func TestItemRepository_CountPendingExtras(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	extra := testItem("owner1", time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC))
	extra.SpawnedExtra = true
	regular := testItem("owner1", time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC))
	doneExtra := testItem("owner1", time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC))
	doneExtra.SpawnedExtra = true
	doneExtra.Status = revision.StatusCompleted

	for _, item := range []*revision.Item{extra, regular, doneExtra} {
		require.NoError(t, repo.Create(ctx, item))
	}

	count, err := repo.CountPendingExtras(ctx, "owner1", revision.CourseDSA, "binary-trees")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestItemRepository_OwnersWithOverdue(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(newTestDB(t))

	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	a := testItem("bob", today.AddDate(0, 0, -2))
	b := testItem("alice", today.AddDate(0, 0, -1))
	c := testItem("carol", today) // due today, not overdue

	for _, item := range []*revision.Item{a, b, c} {
		require.NoError(t, repo.Create(ctx, item))
	}

	owners, err := repo.OwnersWithOverdue(ctx, today)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, owners)
}
