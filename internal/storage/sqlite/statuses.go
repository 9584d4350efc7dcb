package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"consistify/internal/models"
)

const statusColumns = `s.id, s.user_id, s.task_id, s.day, s.is_completed, s.task_title, s.task_priority, s.created_at`

func scanStatus(row interface{ Scan(...any) error }) (models.DailyTaskStatus, error) {
	var (
		st       models.DailyTaskStatus
		day      string
		priority string
	)
	if err := row.Scan(&st.ID, &st.UserID, &st.TaskID, &day, &st.IsCompleted, &st.TaskTitle, &priority, &st.CreatedAt); err != nil {
		return models.DailyTaskStatus{}, err
	}
	st.TaskPriority = models.Priority(priority)
	d, err := parseDayKey(day)
	if err != nil {
		return models.DailyTaskStatus{}, err
	}
	st.Date = d
	return st, nil
}

// FindStatus returns the status row of a task on a day.
func (s *Store) FindStatus(ctx context.Context, taskID int64, day time.Time) (models.DailyTaskStatus, error) {
	st, err := scanStatus(s.db.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM daily_task_statuses s
        WHERE s.task_id = ? AND s.day = ?`, taskID, dayKey(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyTaskStatus{}, fmt.Errorf("status %w", models.ErrNotFound)
	}
	if err != nil {
		return models.DailyTaskStatus{}, fmt.Errorf("find status: %w", err)
	}
	return st, nil
}

// CreateStatus inserts a status row and reports models.ErrDuplicate when one already exists.
func (s *Store) CreateStatus(ctx context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_task_statuses(user_id, task_id, day, is_completed, task_title, task_priority)
        VALUES(?, ?, ?, ?, ?, ?)`,
		st.UserID, st.TaskID, dayKey(st.Date), st.IsCompleted, st.TaskTitle, string(st.TaskPriority))
	if isUniqueViolation(err) {
		return models.DailyTaskStatus{}, fmt.Errorf("status for task %d on %s: %w", st.TaskID, dayKey(st.Date), models.ErrDuplicate)
	}
	if err != nil {
		return models.DailyTaskStatus{}, fmt.Errorf("insert status: %w", err)
	}
	return s.FindStatus(ctx, st.TaskID, st.Date)
}

// UpsertStatus sets completion of a task on a day. The title and priority
// snapshot is written only when the row is created.
func (s *Store) UpsertStatus(ctx context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO daily_task_statuses(user_id, task_id, day, is_completed, task_title, task_priority)
        VALUES(?, ?, ?, ?, ?, ?)
        ON CONFLICT(task_id, day) DO UPDATE SET is_completed = excluded.is_completed`,
		st.UserID, st.TaskID, dayKey(st.Date), st.IsCompleted, st.TaskTitle, string(st.TaskPriority))
	if err != nil {
		return models.DailyTaskStatus{}, fmt.Errorf("upsert status: %w", err)
	}
	return s.FindStatus(ctx, st.TaskID, st.Date)
}

// ActiveStatuses lists a user's status rows for a day whose task is still active, newest task first.
func (s *Store) ActiveStatuses(ctx context.Context, userID int64, day time.Time) ([]models.DailyTaskStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statusColumns+` FROM daily_task_statuses s
        JOIN tasks t ON t.id = s.task_id
        WHERE s.user_id = ? AND s.day = ? AND t.is_active = 1
        ORDER BY t.created_at DESC, t.id DESC`, userID, dayKey(day))
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.DailyTaskStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}
