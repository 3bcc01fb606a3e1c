package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/studyloop/revise/internal/domain/revision"
)

// CatchupRunner compresses one owner's overdue backlog.
type CatchupRunner interface {
	RunCatchup(ctx context.Context, ownerID string) (*revision.CatchupPlan, error)
}

// OwnerSource lists owners holding overdue items.
type OwnerSource interface {
	OwnersWithOverdue(ctx context.Context, before time.Time) ([]string, error)
}

// Scheduler runs the daily catch-up sweep over all owners with overdue items.
type Scheduler struct {
	cron    *gocron.Scheduler
	engine  CatchupRunner
	owners  OwnerSource
	hourUTC int
	logger  *slog.Logger
}

// New creates a new scheduler instance.
func New(engine CatchupRunner, owners OwnerSource, hourUTC int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		engine:  engine,
		owners:  owners,
		hourUTC: hourUTC,
		logger:  logger,
	}
}

// Start begins running the daily sweep in the background.
func (s *Scheduler) Start() error {
	at := fmt.Sprintf("%02d:00", s.hourUTC)
	if _, err := s.cron.Every(1).Day().At(at).Do(s.RunSweep); err != nil {
		return fmt.Errorf("scheduling catch-up sweep: %w", err)
	}
	s.cron.StartAsync()
	s.logger.Info("catch-up sweep scheduled", "at", at+" UTC")
	return nil
}

// Stop terminates the scheduled jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunSweep compresses the backlog of every owner with overdue items. Owners
// whose catch-up is already in flight are skipped, not retried.
func (s *Scheduler) RunSweep() {
	ctx := context.Background()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	owners, err := s.owners.OwnersWithOverdue(ctx, today)
	if err != nil {
		s.logger.Error("catch-up sweep failed to list owners", "error", err)
		return
	}

	for _, ownerID := range owners {
		plan, err := s.engine.RunCatchup(ctx, ownerID)
		if err != nil {
			if errors.Is(err, revision.ErrCatchupRunning) {
				s.logger.Debug("catch-up already running, skipping", "owner", ownerID)
				continue
			}
			s.logger.Error("catch-up failed", "owner", ownerID, "error", err)
			continue
		}
		if plan.CreatedCount > 0 {
			s.logger.Info("catch-up sweep reflowed items",
				"owner", ownerID, "items", plan.CreatedCount, "days", plan.DaysToComplete)
		}
	}
}
