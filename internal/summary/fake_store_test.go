package summary

import (
	"context"
	"sort"
	"sync"
	"time"

	"consistify/internal/models"
)

type statusKey struct {
	taskID int64
	day    string
}

type summaryKey struct {
	userID int64
	day    string
}

// fakeStore is an in-memory Store guarded by a single mutex.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	tasks     map[int64]models.Task
	statuses  map[statusKey]models.DailyTaskStatus
	summaries map[summaryKey]models.DailySummary
	audit     map[int64][]models.TaskAuditLog

	// raceOnCreate makes CreateStatus behave as if another caller won the insert.
	raceOnCreate bool
	failSave     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:     map[int64]models.Task{},
		statuses:  map[statusKey]models.DailyTaskStatus{},
		summaries: map[summaryKey]models.DailySummary{},
		audit:     map[int64][]models.TaskAuditLog{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addTask(userID int64, title string, start time.Time) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := models.Task{
		ID:        f.id(),
		UserID:    userID,
		Title:     title,
		Priority:  models.PriorityMedium,
		StartDate: models.Day(start),
		State:     models.TaskActive,
		CreatedAt: time.Now(),
	}
	f.tasks[t.ID] = t
	return t
}

func (f *fakeStore) retire(taskID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[taskID]
	t.State = models.TaskRetired
	f.tasks[taskID] = t
}

func (f *fakeStore) rename(taskID int64, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tasks[taskID]
	t.Title = title
	f.tasks[taskID] = t
}

func (f *fakeStore) putSummary(s models.DailySummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.id()
	f.summaries[summaryKey{s.UserID, models.FormatDay(s.Date)}] = s
}

func (f *fakeStore) auditFor(summaryID int64) []models.TaskAuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TaskAuditLog(nil), f.audit[summaryID]...)
}

func (f *fakeStore) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statuses)
}

func (f *fakeStore) GetTask(_ context.Context, taskID int64) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) TasksInEffect(_ context.Context, userID int64, day time.Time) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, t := range f.tasks {
		if t.UserID == userID && t.InEffect(day) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UserIDsWithTasks(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, t := range f.tasks {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			ids = append(ids, t.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) FindStatus(_ context.Context, taskID int64, day time.Time) (models.DailyTaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[statusKey{taskID, models.FormatDay(day)}]
	if !ok {
		return models.DailyTaskStatus{}, models.ErrNotFound
	}
	return st, nil
}

func (f *fakeStore) CreateStatus(_ context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := statusKey{st.TaskID, models.FormatDay(st.Date)}
	if f.raceOnCreate {
		st.ID = f.id()
		f.statuses[key] = st
		return models.DailyTaskStatus{}, models.ErrDuplicate
	}
	if _, ok := f.statuses[key]; ok {
		return models.DailyTaskStatus{}, models.ErrDuplicate
	}
	st.ID = f.id()
	f.statuses[key] = st
	return st, nil
}

func (f *fakeStore) UpsertStatus(_ context.Context, st models.DailyTaskStatus) (models.DailyTaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := statusKey{st.TaskID, models.FormatDay(st.Date)}
	if existing, ok := f.statuses[key]; ok {
		existing.IsCompleted = st.IsCompleted
		f.statuses[key] = existing
		return existing, nil
	}
	st.ID = f.id()
	f.statuses[key] = st
	return st, nil
}

func (f *fakeStore) ActiveStatuses(_ context.Context, userID int64, day time.Time) ([]models.DailyTaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DailyTaskStatus
	for key, st := range f.statuses {
		if st.UserID != userID || key.day != models.FormatDay(day) {
			continue
		}
		if f.tasks[st.TaskID].Active() {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

func (f *fakeStore) FindSummary(_ context.Context, userID int64, day time.Time) (models.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[summaryKey{userID, models.FormatDay(day)}]
	if !ok {
		return models.DailySummary{}, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) RecentSummaries(_ context.Context, userID int64, through time.Time, limit int) ([]models.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DailySummary
	for _, s := range f.summaries {
		if s.UserID == userID && !s.Date.After(through) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateJournal(_ context.Context, userID int64, day time.Time, j models.Journal) (models.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := summaryKey{userID, models.FormatDay(day)}
	s, ok := f.summaries[key]
	if !ok {
		return models.DailySummary{}, models.ErrNotFound
	}
	if j.Focus != nil {
		s.Focus = j.Focus
	}
	if j.Mood != nil {
		s.Mood = j.Mood
	}
	if j.Notes != nil {
		s.Notes = j.Notes
	}
	f.summaries[key] = s
	return s, nil
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(w SummaryWriter) error) error {
	if f.failSave != nil {
		return f.failSave
	}
	return fn(f)
}

func (f *fakeStore) UpsertSummary(_ context.Context, s models.DailySummary) (models.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := summaryKey{s.UserID, models.FormatDay(s.Date)}
	if existing, ok := f.summaries[key]; ok {
		s.ID = existing.ID
		s.Focus, s.Mood, s.Notes = existing.Focus, existing.Mood, existing.Notes
	} else {
		s.ID = f.id()
	}
	f.summaries[key] = s
	return s, nil
}

func (f *fakeStore) ReplaceAuditLogs(_ context.Context, summaryID int64, rows []models.TaskAuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TaskAuditLog, len(rows))
	for i, r := range rows {
		r.ID = f.id()
		out[i] = r
	}
	f.audit[summaryID] = out
	return nil
}
