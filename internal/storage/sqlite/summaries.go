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

const summaryColumns = `id, user_id, day, total_tasks, completed_tasks, points, cumulative_points,
        consistency, current_streak, max_streak, focus, mood, notes, updated_at`

func scanSummary(row interface{ Scan(...any) error }) (models.DailySummary, error) {
	var (
		sum   models.DailySummary
		day   string
		focus sql.NullString
		mood  sql.NullString
		notes sql.NullString
	)
	if err := row.Scan(&sum.ID, &sum.UserID, &day, &sum.TotalTasks, &sum.CompletedTasks, &sum.Points, &sum.CumulativePoints,
		&sum.Consistency, &sum.CurrentStreak, &sum.MaxStreak, &focus, &mood, &notes, &sum.UpdatedAt); err != nil {
		return models.DailySummary{}, err
	}
	d, err := parseDayKey(day)
	if err != nil {
		return models.DailySummary{}, err
	}
	sum.Date = d
	if focus.Valid {
		sum.Focus = &focus.String
	}
	if notes.Valid {
		sum.Notes = &notes.String
	}
	if mood.Valid {
		var m models.Mood
		if err := m.Scan(mood.String); err != nil {
			return models.DailySummary{}, fmt.Errorf("decode mood: %w", err)
		}
		sum.Mood = &m
	}
	return sum, nil
}

func findSummary(ctx context.Context, q querier, userID int64, day time.Time) (models.DailySummary, error) {
	sum, err := scanSummary(q.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM daily_summaries
        WHERE user_id = ? AND day = ?`, userID, dayKey(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailySummary{}, fmt.Errorf("summary %w", models.ErrNotFound)
	}
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("find summary: %w", err)
	}
	return sum, nil
}

func querySummaries(ctx context.Context, q querier, query string, args ...any) ([]models.DailySummary, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var out []models.DailySummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// upsertSummary writes the computed fields and keeps focus, mood and notes.
func upsertSummary(ctx context.Context, q querier, sum models.DailySummary) (models.DailySummary, error) {
	_, err := q.ExecContext(ctx, `INSERT INTO daily_summaries(user_id, day, total_tasks, completed_tasks, points,
            cumulative_points, consistency, current_streak, max_streak)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id, day) DO UPDATE SET
            total_tasks = excluded.total_tasks,
            completed_tasks = excluded.completed_tasks,
            points = excluded.points,
            cumulative_points = excluded.cumulative_points,
            consistency = excluded.consistency,
            current_streak = excluded.current_streak,
            max_streak = excluded.max_streak,
            updated_at = CURRENT_TIMESTAMP`,
		sum.UserID, dayKey(sum.Date), sum.TotalTasks, sum.CompletedTasks, sum.Points,
		sum.CumulativePoints, sum.Consistency, sum.CurrentStreak, sum.MaxStreak)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("upsert summary: %w", err)
	}
	return findSummary(ctx, q, sum.UserID, sum.Date)
}

func replaceAuditLogs(ctx context.Context, q querier, summaryID int64, rows []models.TaskAuditLog) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM task_audit_logs WHERE summary_id = ?`, summaryID); err != nil {
		return fmt.Errorf("clear audit logs: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(rows)*5)
	)
	sb.WriteString(`INSERT INTO task_audit_logs(summary_id, task_id, title, priority, completed) VALUES `)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, summaryID, r.TaskID, r.Title, string(r.Priority), r.Completed)
	}
	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert audit logs: %w", err)
	}
	return nil
}

// FindSummary returns the summary of a user's day.
func (s *Store) FindSummary(ctx context.Context, userID int64, day time.Time) (models.DailySummary, error) {
	return findSummary(ctx, s.db, userID, day)
}

// GetSummary fetches a summary by id.
func (s *Store) GetSummary(ctx context.Context, id int64) (models.DailySummary, error) {
	sum, err := scanSummary(s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM daily_summaries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailySummary{}, fmt.Errorf("summary %w", models.ErrNotFound)
	}
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("get summary: %w", err)
	}
	return sum, nil
}

// RecentSummaries returns up to limit summaries dated on or before through, newest first.
func (s *Store) RecentSummaries(ctx context.Context, userID int64, through time.Time, limit int) ([]models.DailySummary, error) {
	return querySummaries(ctx, s.db, `SELECT `+summaryColumns+` FROM daily_summaries
        WHERE user_id = ? AND day <= ? ORDER BY day DESC LIMIT ?`, userID, dayKey(through), limit)
}

// ListSummaries returns stored summaries between start and end inclusive, oldest first.
func (s *Store) ListSummaries(ctx context.Context, userID int64, start, end time.Time) ([]models.DailySummary, error) {
	return querySummaries(ctx, s.db, `SELECT `+summaryColumns+` FROM daily_summaries
        WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`, userID, dayKey(start), dayKey(end))
}

// UpdateJournal sets the non-nil journal fields of an existing summary.
func (s *Store) UpdateJournal(ctx context.Context, userID int64, day time.Time, j models.Journal) (models.DailySummary, error) {
	var (
		sets []string
		args []any
	)
	if j.Focus != nil {
		sets = append(sets, "focus = ?")
		args = append(args, *j.Focus)
	}
	if j.Mood != nil {
		sets = append(sets, "mood = ?")
		args = append(args, *j.Mood)
	}
	if j.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *j.Notes)
	}
	if len(sets) == 0 {
		return s.FindSummary(ctx, userID, day)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, userID, dayKey(day))

	res, err := s.db.ExecContext(ctx, `UPDATE daily_summaries SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND day = ?`, args...)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("update journal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.DailySummary{}, err
	}
	if affected == 0 {
		return models.DailySummary{}, fmt.Errorf("summary %w", models.ErrNotFound)
	}
	return s.FindSummary(ctx, userID, day)
}

// AuditLogs returns the snapshot rows of a summary.
func (s *Store) AuditLogs(ctx context.Context, summaryID int64) ([]models.TaskAuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, summary_id, task_id, title, priority, completed
        FROM task_audit_logs WHERE summary_id = ? ORDER BY id`, summaryID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.TaskAuditLog
	for rows.Next() {
		var (
			l        models.TaskAuditLog
			priority string
		)
		if err := rows.Scan(&l.ID, &l.SummaryID, &l.TaskID, &l.Title, &priority, &l.Completed); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		l.Priority = models.Priority(priority)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
