package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consistify/internal/models"
)

var day1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, logger), store
}

func stripIDs(rows []models.TaskAuditLog) []models.TaskAuditLog {
	out := make([]models.TaskAuditLog, len(rows))
	for i, r := range rows {
		r.ID = 0
		out[i] = r
	}
	return out
}

func TestComputeSummary_NoTasks(t *testing.T) {
	engine, store := newTestEngine(t)

	s, err := engine.ComputeSummary(context.Background(), 1, day1)
	require.NoError(t, err)

	assert.Equal(t, 0, s.TotalTasks)
	assert.Equal(t, 0, s.CompletedTasks)
	assert.Equal(t, 0, s.Points)
	assert.Zero(t, s.Consistency)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Empty(t, store.auditFor(s.ID))
}

func TestComputeSummary_TwoTasksNoneCompleted(t *testing.T) {
	engine, store := newTestEngine(t)
	store.addTask(1, "Read", day1)
	store.addTask(1, "Run", day1)

	s, err := engine.ComputeSummary(context.Background(), 1, day1.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, day1, s.Date)
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, 0, s.CompletedTasks)
	assert.Equal(t, 0, s.Points)
	assert.Zero(t, s.Consistency)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 2, store.statusCount())
	assert.Len(t, store.auditFor(s.ID), 2)
}

func TestToggleStatus_RecomputesSummary(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)
	store.addTask(1, "Run", day1)

	_, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)

	st, err := engine.ToggleStatus(ctx, 1, a.ID, day1, true)
	require.NoError(t, err)
	assert.True(t, st.IsCompleted)
	assert.Equal(t, "Read", st.TaskTitle)

	s, err := store.FindSummary(ctx, 1, day1)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalTasks)
	assert.Equal(t, 1, s.CompletedTasks)
	assert.Equal(t, 1, s.Points)
	assert.InDelta(t, 50.0, s.Consistency, 1e-9)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.MaxStreak)
	assert.Equal(t, 1, s.CumulativePoints)
}

func TestToggleStatus_CreatesMissingRowWithSnapshot(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Stretch", day1)

	st, err := engine.ToggleStatus(ctx, 1, a.ID, day1, true)
	require.NoError(t, err)
	assert.Equal(t, "Stretch", st.TaskTitle)
	assert.Equal(t, models.PriorityMedium, st.TaskPriority)
	assert.Equal(t, 1, store.statusCount())
}

func TestToggleStatus_Validation(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	mine := store.addTask(1, "Read", day1)
	theirs := store.addTask(2, "Swim", day1)

	_, err := engine.ToggleStatus(ctx, 1, theirs.ID, day1, true)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = engine.ToggleStatus(ctx, 1, 9999, day1, true)
	assert.ErrorIs(t, err, models.ErrForbidden)

	store.retire(mine.ID)
	_, err = engine.ToggleStatus(ctx, 1, mine.ID, day1, true)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, 0, store.statusCount())
}

func TestComputeSummary_StreakAcrossDays(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)

	_, err := engine.ToggleStatus(ctx, 1, a.ID, day1, true)
	require.NoError(t, err)

	day2 := day1.AddDate(0, 0, 1)
	_, err = engine.ToggleStatus(ctx, 1, a.ID, day2, true)
	require.NoError(t, err)
	s2, err := store.FindSummary(ctx, 1, day2)
	require.NoError(t, err)
	assert.Equal(t, 2, s2.CurrentStreak)
	assert.Equal(t, 2, s2.MaxStreak)
	assert.Equal(t, 2, s2.CumulativePoints)

	day3 := day2.AddDate(0, 0, 1)
	s3, err := engine.ComputeSummary(ctx, 1, day3)
	require.NoError(t, err)
	assert.Equal(t, 0, s3.CurrentStreak)
	assert.Equal(t, 2, s3.MaxStreak)
	assert.Equal(t, 2, s3.CumulativePoints)
}

func TestComputeSummary_CarriesFromStoredPreviousDay(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	day2 := day1.AddDate(0, 0, 1)
	a := store.addTask(1, "Read", day2)
	store.putSummary(models.DailySummary{UserID: 1, Date: day1, CompletedTasks: 1, CurrentStreak: 1, MaxStreak: 1, CumulativePoints: 1})

	_, err := engine.ToggleStatus(ctx, 1, a.ID, day2, true)
	require.NoError(t, err)

	s, err := store.FindSummary(ctx, 1, day2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
	assert.Equal(t, 2, s.CumulativePoints)
}

func TestComputeSummary_Idempotent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)
	store.addTask(1, "Run", day1)
	_, err := engine.ToggleStatus(ctx, 1, a.ID, day1, true)
	require.NoError(t, err)

	first, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)
	firstAudit := stripIDs(store.auditFor(first.ID))

	second, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, firstAudit, stripIDs(store.auditFor(second.ID)))
	assert.Len(t, firstAudit, second.TotalTasks)
}

func TestComputeSummary_ExcludesRetiredTasks(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)
	b := store.addTask(1, "Run", day1)
	_, err := engine.ToggleStatus(ctx, 1, b.ID, day1, true)
	require.NoError(t, err)

	store.retire(b.ID)
	s, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)

	assert.Equal(t, 1, s.TotalTasks)
	assert.Equal(t, 0, s.CompletedTasks)
	assert.Equal(t, 2, store.statusCount())
	audit := store.auditFor(s.ID)
	require.Len(t, audit, 1)
	assert.Equal(t, a.ID, audit[0].TaskID)
}

func TestComputeSummary_SnapshotSurvivesRename(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)
	_, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)

	store.rename(a.ID, "Read 20 pages")
	_, err = engine.ToggleStatus(ctx, 1, a.ID, day1, true)
	require.NoError(t, err)

	s, err := store.FindSummary(ctx, 1, day1)
	require.NoError(t, err)
	audit := store.auditFor(s.ID)
	require.Len(t, audit, 1)
	assert.Equal(t, "Read", audit[0].Title)
	assert.True(t, audit[0].Completed)
}

func TestComputeSummary_PreservesJournal(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	store.addTask(1, "Read", day1)

	focus := "deep work"
	mood := models.PresetMood(models.MoodHigh)
	_, err := engine.UpdateJournal(ctx, 1, day1, models.Journal{Focus: &focus, Mood: &mood})
	require.NoError(t, err)

	s, err := engine.ComputeSummary(ctx, 1, day1)
	require.NoError(t, err)
	require.NotNil(t, s.Focus)
	assert.Equal(t, focus, *s.Focus)
	require.NotNil(t, s.Mood)
	assert.Equal(t, mood, *s.Mood)
	assert.Nil(t, s.Notes)
}

func TestUpdateJournal_Validation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.UpdateJournal(context.Background(), 1, day1, models.Journal{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	bad := models.Mood{Kind: models.MoodCustom}
	_, err = engine.UpdateJournal(context.Background(), 1, day1, models.Journal{Mood: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestReconcile_SwallowsDuplicateRace(t *testing.T) {
	engine, store := newTestEngine(t)
	store.addTask(1, "Read", day1)
	store.addTask(1, "Run", day1)
	store.raceOnCreate = true

	s, err := engine.ComputeSummary(context.Background(), 1, day1)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalTasks)
}

func TestReconcile_SkipsTasksOutOfRange(t *testing.T) {
	engine, store := newTestEngine(t)
	store.addTask(1, "Later", day1.AddDate(0, 0, 3))

	s, err := engine.ComputeSummary(context.Background(), 1, day1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalTasks)
	assert.Equal(t, 0, store.statusCount())
}

func TestComputeSummary_PersistenceFailure(t *testing.T) {
	engine, store := newTestEngine(t)
	store.addTask(1, "Read", day1)
	store.failSave = errors.New("disk full")

	_, err := engine.ComputeSummary(context.Background(), 1, day1)
	assert.ErrorIs(t, err, models.ErrPersistence)
}

func TestStreak_ScanMatchesCarriedOnContiguousHistory(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)

	for i := 0; i < 4; i++ {
		_, err := engine.ToggleStatus(ctx, 1, a.ID, day1.AddDate(0, 0, i), true)
		require.NoError(t, err)
	}

	report, err := engine.Streak(ctx, 1, day1.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Carried)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 4, report.MaxStreak)
	assert.False(t, report.Diverged)
}

func TestStreak_FlagsDivergenceAfterPastEdit(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	a := store.addTask(1, "Read", day1)

	for i := 0; i < 3; i++ {
		_, err := engine.ToggleStatus(ctx, 1, a.ID, day1.AddDate(0, 0, i), true)
		require.NoError(t, err)
	}
	// Undo day 2 without recomputing day 3.
	_, err := engine.ToggleStatus(ctx, 1, a.ID, day1.AddDate(0, 0, 1), false)
	require.NoError(t, err)

	report, err := engine.Streak(ctx, 1, day1.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Carried)
	assert.Equal(t, 1, report.Scanned)
	assert.True(t, report.Diverged)
}

func TestStreak_NoHistory(t *testing.T) {
	engine, _ := newTestEngine(t)

	report, err := engine.Streak(context.Background(), 1, day1)
	require.NoError(t, err)
	assert.Equal(t, StreakReport{}, report)
}

func TestRollover_ComputesEveryUser(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)
	store.addTask(1, "Read", day1)
	store.addTask(2, "Run", day1)

	done, err := engine.Rollover(ctx, day1)
	require.NoError(t, err)
	assert.Equal(t, 2, done)

	for _, id := range []int64{1, 2} {
		s, err := store.FindSummary(ctx, id, day1)
		require.NoError(t, err)
		assert.Equal(t, 1, s.TotalTasks)
	}
}
