package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"consistify/internal/models"
)

// Roller computes the summaries of a finished day.
type Roller interface {
	Rollover(ctx context.Context, day time.Time) (int, error)
}

// Scheduler wraps cron-based jobs. All specs are evaluated in UTC.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// New builds a scheduler whose specs include a seconds field.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithSeconds()),
		logger:  logger,
		timeout: 5 * time.Minute,
		now:     time.Now,
	}
}

// ScheduleRollover registers the job that closes the previous UTC day.
func (s *Scheduler) ScheduleRollover(spec string, roller Roller) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() { s.runRollover(roller) })
	if err != nil {
		return 0, fmt.Errorf("schedule rollover %q: %w", spec, err)
	}
	return id, nil
}

func (s *Scheduler) runRollover(roller Roller) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	day := models.Day(s.now()).AddDate(0, 0, -1)
	started := time.Now()
	done, err := roller.Rollover(ctx, day)
	if err != nil {
		s.logger.Error("rollover finished with errors",
			slog.String("date", models.FormatDay(day)),
			slog.Int("users", done),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("rollover finished",
		slog.String("date", models.FormatDay(day)),
		slog.Int("users", done),
		slog.Duration("took", time.Since(started)),
	)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
