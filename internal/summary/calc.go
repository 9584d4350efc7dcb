package summary

import (
	"strings"
	"time"

	"consistify/internal/models"
)

const (
	untitledTask = "Untitled Task"
	// scanWindow bounds the legacy streak scan.
	scanWindow = 365
)

// Aggregate computes a day's summary from its status rows and the stored
// summary of the previous day, which may be nil.
func Aggregate(userID int64, day time.Time, statuses []models.DailyTaskStatus, prev *models.DailySummary) models.DailySummary {
	s := models.DailySummary{
		UserID:     userID,
		Date:       models.Day(day),
		TotalTasks: len(statuses),
	}
	for _, st := range statuses {
		if st.IsCompleted {
			s.CompletedTasks++
		}
	}
	s.Points = s.CompletedTasks
	if s.TotalTasks > 0 {
		s.Consistency = float64(s.CompletedTasks) / float64(s.TotalTasks) * 100
	}

	var prevStreak, prevMax, prevCumulative int
	if prev != nil {
		prevStreak, prevMax, prevCumulative = prev.CurrentStreak, prev.MaxStreak, prev.CumulativePoints
	}
	s.CumulativePoints = s.Points + prevCumulative
	if s.CompletedTasks > 0 {
		s.CurrentStreak = prevStreak + 1
	}
	s.MaxStreak = max(s.CurrentStreak, prevMax)
	return s
}

// AuditRows snapshots status rows for a summary.
func AuditRows(summaryID int64, statuses []models.DailyTaskStatus) []models.TaskAuditLog {
	rows := make([]models.TaskAuditLog, 0, len(statuses))
	for _, st := range statuses {
		title := st.TaskTitle
		if strings.TrimSpace(title) == "" {
			title = untitledTask
		}
		priority := st.TaskPriority
		if priority == "" {
			priority = models.PriorityMedium
		}
		rows = append(rows, models.TaskAuditLog{
			SummaryID: summaryID,
			TaskID:    st.TaskID,
			Title:     title,
			Priority:  priority,
			Completed: st.IsCompleted,
		})
	}
	return rows
}

// ScanStreak counts consecutive days with completions, walking back from the
// newest summary. summaries must be ordered newest first. The run stops at
// the first missing calendar day or the first day without completions.
func ScanStreak(summaries []models.DailySummary) int {
	if len(summaries) == 0 {
		return 0
	}
	streak := 0
	expected := models.Day(summaries[0].Date)
	for _, s := range summaries {
		if !models.Day(s.Date).Equal(expected) || s.CompletedTasks == 0 {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}
