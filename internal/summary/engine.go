package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"consistify/internal/metrics"
	"consistify/internal/models"
)

// Trigger names what caused a recomputation.
type Trigger string

const (
	TriggerRead     Trigger = "read"
	TriggerToggle   Trigger = "toggle"
	TriggerJournal  Trigger = "journal"
	TriggerRollover Trigger = "rollover"
)

// reconcileWorkers caps concurrent status checks for one day.
const reconcileWorkers = 8

// Engine reconciles daily status rows and maintains daily summaries.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New builds an engine over the given store.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Reconcile makes sure every task in effect on day has a status row.
func (e *Engine) Reconcile(ctx context.Context, userID int64, day time.Time) error {
	day = models.Day(day)
	tasks, err := e.store.TasksInEffect(ctx, userID, day)
	if err != nil {
		return e.fail("reconcile", userID, day, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileWorkers)
	for _, task := range tasks {
		g.Go(func() error {
			return e.ensureStatus(gctx, task, day)
		})
	}
	if err := g.Wait(); err != nil {
		return e.fail("reconcile", userID, day, err)
	}
	return nil
}

func (e *Engine) ensureStatus(ctx context.Context, task models.Task, day time.Time) error {
	_, err := e.store.FindStatus(ctx, task.ID, day)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("find status for task %d: %w", task.ID, err)
	}

	_, err = e.store.CreateStatus(ctx, models.DailyTaskStatus{
		UserID:       task.UserID,
		TaskID:       task.ID,
		Date:         day,
		TaskTitle:    task.Title,
		TaskPriority: task.Priority,
	})
	switch {
	case err == nil:
		metrics.StatusRowsCreated.Inc()
		return nil
	case errors.Is(err, models.ErrDuplicate):
		// A concurrent caller created the row first.
		metrics.DuplicateRaces.Inc()
		return nil
	default:
		return fmt.Errorf("create status for task %d: %w", task.ID, err)
	}
}

// ComputeSummary reconciles the day and recomputes its summary.
func (e *Engine) ComputeSummary(ctx context.Context, userID int64, day time.Time) (models.DailySummary, error) {
	return e.Compute(ctx, userID, day, TriggerRead)
}

// Compute is ComputeSummary with an explicit trigger for instrumentation.
func (e *Engine) Compute(ctx context.Context, userID int64, day time.Time, trigger Trigger) (s models.DailySummary, err error) {
	started := time.Now()
	defer func() { metrics.ObserveSummary(string(trigger), started, err) }()

	day = models.Day(day)
	if err := e.Reconcile(ctx, userID, day); err != nil {
		return models.DailySummary{}, err
	}
	return e.recompute(ctx, userID, day)
}

func (e *Engine) recompute(ctx context.Context, userID int64, day time.Time) (models.DailySummary, error) {
	statuses, err := e.store.ActiveStatuses(ctx, userID, day)
	if err != nil {
		return models.DailySummary{}, e.fail("load statuses", userID, day, err)
	}

	var prev *models.DailySummary
	found, err := e.store.FindSummary(ctx, userID, day.AddDate(0, 0, -1))
	switch {
	case err == nil:
		prev = &found
	case !errors.Is(err, models.ErrNotFound):
		return models.DailySummary{}, e.fail("load previous summary", userID, day, err)
	}

	computed := Aggregate(userID, day, statuses, prev)

	var saved models.DailySummary
	err = e.store.WithinTx(ctx, func(w SummaryWriter) error {
		var err error
		saved, err = w.UpsertSummary(ctx, computed)
		if err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
		return w.ReplaceAuditLogs(ctx, saved.ID, AuditRows(saved.ID, statuses))
	})
	if err != nil {
		return models.DailySummary{}, e.fail("save summary", userID, day, err)
	}

	e.logger.Debug("summary computed",
		slog.Int64("user_id", userID),
		slog.String("date", models.FormatDay(day)),
		slog.Int("total", saved.TotalTasks),
		slog.Int("completed", saved.CompletedTasks),
		slog.Int("streak", saved.CurrentStreak),
	)
	return saved, nil
}

// ToggleStatus records completion of one task on one day and recomputes that day.
func (e *Engine) ToggleStatus(ctx context.Context, userID, taskID int64, day time.Time, completed bool) (models.DailyTaskStatus, error) {
	day = models.Day(day)
	task, err := e.store.GetTask(ctx, taskID)
	if errors.Is(err, models.ErrNotFound) {
		return models.DailyTaskStatus{}, fmt.Errorf("%w: unauthorized access to task", models.ErrForbidden)
	}
	if err != nil {
		return models.DailyTaskStatus{}, e.fail("load task", userID, day, err)
	}
	if task.UserID != userID {
		return models.DailyTaskStatus{}, fmt.Errorf("%w: unauthorized access to task", models.ErrForbidden)
	}
	if !task.Active() {
		return models.DailyTaskStatus{}, fmt.Errorf("%w: task %d has been deleted", models.ErrInvalidState, taskID)
	}

	status, err := e.store.UpsertStatus(ctx, models.DailyTaskStatus{
		UserID:       userID,
		TaskID:       taskID,
		Date:         day,
		IsCompleted:  completed,
		TaskTitle:    task.Title,
		TaskPriority: task.Priority,
	})
	if err != nil {
		return models.DailyTaskStatus{}, e.fail("upsert status", userID, day, err)
	}

	if _, err := e.Compute(ctx, userID, day, TriggerToggle); err != nil {
		return models.DailyTaskStatus{}, err
	}
	return status, nil
}

// DailyStatuses reconciles the day and lists its rows for active tasks.
func (e *Engine) DailyStatuses(ctx context.Context, userID int64, day time.Time) ([]models.DailyTaskStatus, error) {
	day = models.Day(day)
	if err := e.Reconcile(ctx, userID, day); err != nil {
		return nil, err
	}
	statuses, err := e.store.ActiveStatuses(ctx, userID, day)
	if err != nil {
		return nil, e.fail("load statuses", userID, day, err)
	}
	return statuses, nil
}

// UpdateJournal sets focus, mood and notes of a day, creating its summary first when absent.
func (e *Engine) UpdateJournal(ctx context.Context, userID int64, day time.Time, j models.Journal) (models.DailySummary, error) {
	day = models.Day(day)
	if j.Empty() {
		return models.DailySummary{}, fmt.Errorf("%w: nothing to update", models.ErrInvalidInput)
	}
	if j.Mood != nil {
		if err := j.Mood.Validate(); err != nil {
			return models.DailySummary{}, err
		}
	}

	_, err := e.store.FindSummary(ctx, userID, day)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if _, err := e.Compute(ctx, userID, day, TriggerJournal); err != nil {
			return models.DailySummary{}, err
		}
	case err != nil:
		return models.DailySummary{}, e.fail("load summary", userID, day, err)
	}

	s, err := e.store.UpdateJournal(ctx, userID, day, j)
	if err != nil {
		return models.DailySummary{}, e.fail("update journal", userID, day, err)
	}
	return s, nil
}

// StreakReport compares the carried streak with the legacy scan.
type StreakReport struct {
	Date      *time.Time `json:"date,omitempty"`
	Carried   int        `json:"carried"`
	MaxStreak int        `json:"maxStreak"`
	Scanned   int        `json:"scanned"`
	Diverged  bool       `json:"diverged"`
}

// Streak reports the streak as of the newest summary on or before through.
func (e *Engine) Streak(ctx context.Context, userID int64, through time.Time) (StreakReport, error) {
	through = models.Day(through)
	summaries, err := e.store.RecentSummaries(ctx, userID, through, scanWindow)
	if err != nil {
		return StreakReport{}, e.fail("load recent summaries", userID, through, err)
	}
	if len(summaries) == 0 {
		return StreakReport{}, nil
	}

	latest := summaries[0]
	report := StreakReport{
		Date:      &latest.Date,
		Carried:   latest.CurrentStreak,
		MaxStreak: latest.MaxStreak,
		Scanned:   ScanStreak(summaries),
	}
	if report.Carried != report.Scanned {
		report.Diverged = true
		metrics.StreakDivergence.Inc()
		e.logger.Warn("carried and scanned streaks differ",
			slog.Int64("user_id", userID),
			slog.String("date", models.FormatDay(latest.Date)),
			slog.Int("carried", report.Carried),
			slog.Int("scanned", report.Scanned),
		)
	}
	return report, nil
}

// Rollover computes day for every user that owns tasks.
// A failure for one user does not stop the others; all failures are returned joined.
func (e *Engine) Rollover(ctx context.Context, day time.Time) (int, error) {
	day = models.Day(day)
	userIDs, err := e.store.UserIDsWithTasks(ctx)
	if err != nil {
		return 0, e.fail("list users", 0, day, err)
	}

	var errs []error
	done := 0
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := e.Compute(ctx, id, day, TriggerRollover); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// fail logs a store failure and wraps it as a persistence error.
func (e *Engine) fail(op string, userID int64, day time.Time, err error) error {
	if errors.Is(err, models.ErrPersistence) {
		return err
	}
	e.logger.Error("summary engine failure",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.String("date", models.FormatDay(day)),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}
