package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"consistify/internal/models"
)

func statuses(done ...bool) []models.DailyTaskStatus {
	out := make([]models.DailyTaskStatus, len(done))
	for i, d := range done {
		out[i] = models.DailyTaskStatus{TaskID: int64(i + 1), IsCompleted: d}
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.DailyTaskStatus
		prev     *models.DailySummary
		want     models.DailySummary
	}{
		{
			name: "empty day",
			want: models.DailySummary{},
		},
		{
			name:     "first day partial",
			statuses: statuses(true, false, false, false),
			want:     models.DailySummary{TotalTasks: 4, CompletedTasks: 1, Points: 1, CumulativePoints: 1, Consistency: 25, CurrentStreak: 1, MaxStreak: 1},
		},
		{
			name:     "extends streak",
			statuses: statuses(true, true),
			prev:     &models.DailySummary{CurrentStreak: 4, MaxStreak: 6, CumulativePoints: 10},
			want:     models.DailySummary{TotalTasks: 2, CompletedTasks: 2, Points: 2, CumulativePoints: 12, Consistency: 100, CurrentStreak: 5, MaxStreak: 6},
		},
		{
			name:     "breaks streak keeps max",
			statuses: statuses(false, false),
			prev:     &models.DailySummary{CurrentStreak: 4, MaxStreak: 4, CumulativePoints: 10},
			want:     models.DailySummary{TotalTasks: 2, CumulativePoints: 10, MaxStreak: 4},
		},
		{
			name:     "new max",
			statuses: statuses(true),
			prev:     &models.DailySummary{CurrentStreak: 4, MaxStreak: 4, CumulativePoints: 4},
			want:     models.DailySummary{TotalTasks: 1, CompletedTasks: 1, Points: 1, CumulativePoints: 5, Consistency: 100, CurrentStreak: 5, MaxStreak: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(7, day1, tt.statuses, tt.prev)
			tt.want.UserID = 7
			tt.want.Date = day1
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Consistency, 0.0)
			assert.LessOrEqual(t, got.Consistency, 100.0)
			assert.GreaterOrEqual(t, got.MaxStreak, got.CurrentStreak)
		})
	}
}

func TestAuditRowsFallbacks(t *testing.T) {
	rows := AuditRows(3, []models.DailyTaskStatus{
		{TaskID: 1, TaskTitle: "Read", TaskPriority: models.PriorityHigh, IsCompleted: true},
		{TaskID: 2},
	})

	assert.Equal(t, []models.TaskAuditLog{
		{SummaryID: 3, TaskID: 1, Title: "Read", Priority: models.PriorityHigh, Completed: true},
		{SummaryID: 3, TaskID: 2, Title: "Untitled Task", Priority: models.PriorityMedium},
	}, rows)
}

func TestScanStreak(t *testing.T) {
	day := func(offset, completed int) models.DailySummary {
		return models.DailySummary{Date: day1.AddDate(0, 0, offset), CompletedTasks: completed}
	}

	assert.Equal(t, 0, ScanStreak(nil))
	assert.Equal(t, 3, ScanStreak([]models.DailySummary{day(5, 1), day(4, 2), day(3, 1)}))
	assert.Equal(t, 2, ScanStreak([]models.DailySummary{day(5, 1), day(4, 2), day(2, 1)}), "gap stops the run")
	assert.Equal(t, 1, ScanStreak([]models.DailySummary{day(5, 1), day(4, 0), day(3, 1)}), "zero day stops the run")
	assert.Equal(t, 0, ScanStreak([]models.DailySummary{day(5, 0), day(4, 3)}))
}
