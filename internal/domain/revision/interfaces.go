package revision

import (
	"context"
	"time"
)

// ItemRepository provides persistence for revision items and schedule batches.
type ItemRepository interface {
	// CreateBatch persists a batch record and its items atomically. It returns
	// repository.ErrDuplicateKey when a batch already exists for the same key.
	CreateBatch(ctx context.Context, batch *ScheduleBatch, items []*Item) error
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	// FindPendingByTopic returns pending items for a topic scheduled after the
	// given instant, ordered by scheduled date.
	FindPendingByTopic(ctx context.Context, ownerID string, course Course, topicID string, after time.Time) ([]*Item, error)
	// FindPendingInRange returns pending items with from <= scheduledDate < to.
	FindPendingInRange(ctx context.Context, ownerID string, from, to time.Time) ([]*Item, error)
	// FindOverdue returns pending items scheduled strictly before the given
	// date, ordered by scheduled date.
	FindOverdue(ctx context.Context, ownerID string, before time.Time) ([]*Item, error)
	// ApplyCatchup marks the given items missed as of markedAt and inserts
	// their clones in a single transaction.
	ApplyCatchup(ctx context.Context, missedIDs []string, clones []*Item, markedAt time.Time) error
	CountPendingExtras(ctx context.Context, ownerID string, course Course, topicID string) (int, error)
	OwnersWithOverdue(ctx context.Context, before time.Time) ([]string, error)
}
