package summary

import (
	"context"
	"time"

	"consistify/internal/models"
)

// Store is the persistence the engine depends on.
// Lookups return models.ErrNotFound when nothing matches, and CreateStatus
// returns models.ErrDuplicate when the (task, day) row already exists.
type Store interface {
	GetTask(ctx context.Context, taskID int64) (models.Task, error)
	TasksInEffect(ctx context.Context, userID int64, day time.Time) ([]models.Task, error)
	UserIDsWithTasks(ctx context.Context) ([]int64, error)

	FindStatus(ctx context.Context, taskID int64, day time.Time) (models.DailyTaskStatus, error)
	CreateStatus(ctx context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error)
	UpsertStatus(ctx context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error)
	// ActiveStatuses lists the day's rows whose task is still active.
	ActiveStatuses(ctx context.Context, userID int64, day time.Time) ([]models.DailyTaskStatus, error)

	FindSummary(ctx context.Context, userID int64, day time.Time) (models.DailySummary, error)
	// RecentSummaries returns at most limit summaries dated on or before through, newest first.
	RecentSummaries(ctx context.Context, userID int64, through time.Time, limit int) ([]models.DailySummary, error)
	UpdateJournal(ctx context.Context, userID int64, day time.Time, j models.Journal) (models.DailySummary, error)

	// WithinTx runs fn so that all of its writes commit or roll back together.
	WithinTx(ctx context.Context, fn func(w SummaryWriter) error) error
}

// SummaryWriter persists a summary together with its audit snapshot.
type SummaryWriter interface {
	// UpsertSummary writes the computed fields and leaves focus, mood and notes untouched.
	UpsertSummary(ctx context.Context, s models.DailySummary) (models.DailySummary, error)
	ReplaceAuditLogs(ctx context.Context, summaryID int64, rows []models.TaskAuditLog) error
}
