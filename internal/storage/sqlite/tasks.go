package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"consistify/internal/models"
)

const taskColumns = `id, user_id, title, priority, start_date, end_date, is_active, created_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var (
		t        models.Task
		priority string
		start    string
		end      sql.NullString
		active   bool
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &priority, &start, &end, &active, &t.CreatedAt); err != nil {
		return models.Task{}, err
	}
	t.Priority = models.Priority(priority)
	t.State = models.TaskRetired
	if active {
		t.State = models.TaskActive
	}

	var err error
	if t.StartDate, err = parseDayKey(start); err != nil {
		return models.Task{}, err
	}
	if end.Valid {
		e, err := parseDayKey(end.String)
		if err != nil {
			return models.Task{}, err
		}
		t.EndDate = &e
	}
	return t, nil
}

func nullableDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dayKey(*t)
}

func queryTasks(ctx context.Context, q querier, query string, args ...any) ([]models.Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new active task for a user.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, fmt.Errorf("%w: task title must not be empty", models.ErrInvalidInput)
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.EndDate != nil && models.Day(*t.EndDate).Before(models.Day(t.StartDate)) {
		return models.Task{}, fmt.Errorf("%w: end date precedes start date", models.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(user_id, title, priority, start_date, end_date) VALUES(?, ?, ?, ?, ?)`,
		t.UserID, t.Title, string(t.Priority), dayKey(t.StartDate), nullableDay(t.EndDate))
	if isUniqueViolation(err) {
		return models.Task{}, fmt.Errorf("%w: an active task named %q already exists", models.ErrConflict, t.Title)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id, whether active or retired.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %w", models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ownedTask loads a task and checks that userID owns it.
func (s *Store) ownedTask(ctx context.Context, userID, id int64) (models.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if t.UserID != userID {
		return models.Task{}, fmt.Errorf("%w: task belongs to another user", models.ErrForbidden)
	}
	return t, nil
}

// ListActiveTasks returns a user's active tasks, newest first.
func (s *Store) ListActiveTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return queryTasks(ctx, s.db, `SELECT `+taskColumns+` FROM tasks
        WHERE user_id = ? AND is_active = 1 ORDER BY created_at DESC, id DESC`, userID)
}

// TasksInEffect returns the active tasks whose date range covers day.
func (s *Store) TasksInEffect(ctx context.Context, userID int64, day time.Time) ([]models.Task, error) {
	key := dayKey(day)
	return queryTasks(ctx, s.db, `SELECT `+taskColumns+` FROM tasks
        WHERE user_id = ? AND is_active = 1 AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)`,
		userID, key, key)
}

// UserIDsWithTasks lists users that own at least one active task.
func (s *Store) UserIDsWithTasks(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM tasks WHERE is_active = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list task owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task owner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateTask applies changes to an active task owned by userID.
func (s *Store) UpdateTask(ctx context.Context, userID, id int64, changes models.TaskChanges) (models.Task, error) {
	current, err := s.ownedTask(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}
	if !current.Active() {
		return models.Task{}, fmt.Errorf("%w: task %d has been deleted", models.ErrInvalidState, id)
	}

	next := current
	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if title == "" {
			return models.Task{}, fmt.Errorf("%w: task title must not be empty", models.ErrInvalidInput)
		}
		next.Title = title
	}
	if changes.Priority != nil {
		next.Priority = *changes.Priority
	}
	if changes.StartDate != nil {
		next.StartDate = models.Day(*changes.StartDate)
	}
	if changes.ClearEndDate {
		next.EndDate = nil
	} else if changes.EndDate != nil {
		end := models.Day(*changes.EndDate)
		next.EndDate = &end
	}
	if next.EndDate != nil && next.EndDate.Before(next.StartDate) {
		return models.Task{}, fmt.Errorf("%w: end date precedes start date", models.ErrInvalidInput)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, priority = ?, start_date = ?, end_date = ? WHERE id = ?`,
		next.Title, string(next.Priority), dayKey(next.StartDate), nullableDay(next.EndDate), id)
	if isUniqueViolation(err) {
		return models.Task{}, fmt.Errorf("%w: an active task named %q already exists", models.ErrConflict, next.Title)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// RetireTask soft-deletes a task owned by userID. The row is kept for history.
func (s *Store) RetireTask(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedTask(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE tasks SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("retire task: %w", err)
	}
	return nil
}
