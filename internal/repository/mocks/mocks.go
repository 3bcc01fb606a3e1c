package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/studyloop/revise/internal/domain/insight"
	"github.com/studyloop/revise/internal/domain/revision"
)

// ItemRepository is a mock for revision.ItemRepository.
type ItemRepository struct {
	mock.Mock
}

var _ revision.ItemRepository = (*ItemRepository)(nil)

func (m *ItemRepository) CreateBatch(ctx context.Context, batch *revision.ScheduleBatch, items []*revision.Item) error {
	args := m.Called(ctx, batch, items)
	return args.Error(0)
}

func (m *ItemRepository) Create(ctx context.Context, item *revision.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *ItemRepository) Get(ctx context.Context, id string) (*revision.Item, error) {
	args := m.Called(ctx, id)
	if item, ok := args.Get(0).(*revision.Item); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) Update(ctx context.Context, item *revision.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *ItemRepository) FindPendingByTopic(ctx context.Context, ownerID string, course revision.Course, topicID string, after time.Time) ([]*revision.Item, error) {
	args := m.Called(ctx, ownerID, course, topicID, after)
	if items, ok := args.Get(0).([]*revision.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) FindPendingInRange(ctx context.Context, ownerID string, from, to time.Time) ([]*revision.Item, error) {
	args := m.Called(ctx, ownerID, from, to)
	if items, ok := args.Get(0).([]*revision.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) FindOverdue(ctx context.Context, ownerID string, before time.Time) ([]*revision.Item, error) {
	args := m.Called(ctx, ownerID, before)
	if items, ok := args.Get(0).([]*revision.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) ApplyCatchup(ctx context.Context, missedIDs []string, clones []*revision.Item, markedAt time.Time) error {
	args := m.Called(ctx, missedIDs, clones, markedAt)
	return args.Error(0)
}

func (m *ItemRepository) CountPendingExtras(ctx context.Context, ownerID string, course revision.Course, topicID string) (int, error) {
	args := m.Called(ctx, ownerID, course, topicID)
	return args.Int(0), args.Error(1)
}

func (m *ItemRepository) OwnersWithOverdue(ctx context.Context, before time.Time) ([]string, error) {
	args := m.Called(ctx, before)
	if owners, ok := args.Get(0).([]string); ok {
		return owners, args.Error(1)
	}
	return nil, args.Error(1)
}

// StatsRepository is a mock for insight.StatsRepository.
type StatsRepository struct {
	mock.Mock
}

var _ insight.StatsRepository = (*StatsRepository)(nil)

func (m *StatsRepository) Counts(ctx context.Context, ownerID string, course *revision.Course) (insight.Counts, error) {
	args := m.Called(ctx, ownerID, course)
	return args.Get(0).(insight.Counts), args.Error(1)
}

func (m *StatsRepository) CompletionDates(ctx context.Context, ownerID string) ([]time.Time, error) {
	args := m.Called(ctx, ownerID)
	if dates, ok := args.Get(0).([]time.Time); ok {
		return dates, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) WeakTopics(ctx context.Context, ownerID string) ([]insight.WeakTopic, error) {
	args := m.Called(ctx, ownerID)
	if topics, ok := args.Get(0).([]insight.WeakTopic); ok {
		return topics, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) StaleTopics(ctx context.Context, ownerID string, before time.Time) ([]insight.StaleTopic, error) {
	args := m.Called(ctx, ownerID, before)
	if topics, ok := args.Get(0).([]insight.StaleTopic); ok {
		return topics, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) MissedTopics(ctx context.Context, ownerID string, minMissed int) ([]insight.MissedTopic, error) {
	args := m.Called(ctx, ownerID, minMissed)
	if topics, ok := args.Get(0).([]insight.MissedTopic); ok {
		return topics, args.Error(1)
	}
	return nil, args.Error(1)
}
