package models

import (
	"strings"
	"time"
)

// Priority ranks a task. It is copied onto daily status rows as a snapshot.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority accepts a priority in any case and falls back to MEDIUM when empty.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	case "":
		return PriorityMedium, true
	default:
		return "", false
	}
}

// TaskState separates live tasks from soft-deleted ones.
// Retired tasks stay referenced by historical status and audit rows.
type TaskState string

const (
	TaskActive  TaskState = "active"
	TaskRetired TaskState = "retired"
)

// User owns tasks and summaries.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Task is a recurring daily habit owned by one user.
type Task struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Title     string     `json:"title"`
	Priority  Priority   `json:"priority"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	State     TaskState  `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Active reports whether the task has not been soft-deleted.
func (t Task) Active() bool {
	return t.State == TaskActive
}

// InEffect reports whether the task counts towards the given day.
func (t Task) InEffect(day time.Time) bool {
	day = Day(day)
	if !t.Active() || Day(t.StartDate).After(day) {
		return false
	}
	return t.EndDate == nil || !Day(*t.EndDate).Before(day)
}

// DailyTaskStatus records completion of one task on one day.
// Title and priority are frozen at the moment the row is created.
type DailyTaskStatus struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	TaskID       int64     `json:"taskId"`
	Date         time.Time `json:"date"`
	IsCompleted  bool      `json:"isCompleted"`
	TaskTitle    string    `json:"taskTitle"`
	TaskPriority Priority  `json:"taskPriority"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DailySummary aggregates one user's day.
type DailySummary struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	Date             time.Time `json:"date"`
	TotalTasks       int       `json:"totalTasks"`
	CompletedTasks   int       `json:"completedTasks"`
	Points           int       `json:"points"`
	CumulativePoints int       `json:"cumulativePoints"`
	Consistency      float64   `json:"consistency"`
	CurrentStreak    int       `json:"currentStreak"`
	MaxStreak        int       `json:"maxStreak"`
	Focus            *string   `json:"focus,omitempty"`
	Mood             *Mood     `json:"mood,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Journal carries the free-form fields of a summary. Nil fields are left untouched.
type Journal struct {
	Focus *string
	Mood  *Mood
	Notes *string
}

// Empty reports whether the journal changes nothing.
func (j Journal) Empty() bool {
	return j.Focus == nil && j.Mood == nil && j.Notes == nil
}

// TaskAuditLog is a frozen per-task row attached to a summary.
type TaskAuditLog struct {
	ID        int64    `json:"id"`
	SummaryID int64    `json:"summaryId"`
	TaskID    int64    `json:"taskId"`
	Title     string   `json:"title"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
}

// TaskChanges lists the editable task fields. Nil fields are left untouched.
type TaskChanges struct {
	Title        *string
	Priority     *Priority
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
}
