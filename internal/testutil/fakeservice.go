package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

// ErrNotFound is returned when a task id does not exist on a day.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of api.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  map[string][]task.Task // YYYY-MM-DD -> tasks
	nextID int
	calls  map[string]int

	// Error injection for testing
	ListTasksErr    error
	CreateTaskErr   error
	UpdateTaskErr   error
	DeleteTaskErr   error
	MonthlyStatsErr error
}

func NewFakeService() *FakeService {
	return &FakeService{
		tasks: make(map[string][]task.Task),
		calls: make(map[string]int),
	}
}

// AddTask stores a task for date and returns its generated id.
func (f *FakeService) AddTask(date, content string, priority task.Priority) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(date, content, priority).ID
}

// Tasks returns a copy of the stored tasks for date.
func (f *FakeService) Tasks(date string) []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]task.Task(nil), f.tasks[date]...)
}

// Calls returns how often method was invoked, e.g. Calls("UpdateTask").
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeService) addLocked(date, content string, priority task.Priority) task.Task {
	f.nextID++
	t := task.Task{
		ID:       fmt.Sprintf("t%d", f.nextID),
		Content:  content,
		Priority: priority,
	}
	f.tasks[date] = append(f.tasks[date], t)
	return t
}

// ListTasks implements api.Service.
func (f *FakeService) ListTasks(ctx context.Context, date time.Time) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListTasks"]++
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return append([]task.Task(nil), f.tasks[calendar.FormatDate(date)]...), nil
}

// CreateTask implements api.Service.
func (f *FakeService) CreateTask(ctx context.Context, date time.Time, content string, priority task.Priority) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateTask"]++
	if f.CreateTaskErr != nil {
		return task.Task{}, f.CreateTaskErr
	}
	return f.addLocked(calendar.FormatDate(date), content, priority), nil
}

// UpdateTask implements api.Service.
func (f *FakeService) UpdateTask(ctx context.Context, date time.Time, id string, u task.Update) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateTask"]++
	if f.UpdateTaskErr != nil {
		return task.Task{}, f.UpdateTaskErr
	}
	day := calendar.FormatDate(date)
	for i := range f.tasks[day] {
		t := &f.tasks[day][i]
		if t.ID != id {
			continue
		}
		if u.Content != nil {
			t.Content = *u.Content
		}
		if u.Priority != nil {
			t.Priority = *u.Priority
		}
		if u.Completed != nil {
			t.Completed = *u.Completed
		}
		return *t, nil
	}
	return task.Task{}, ErrNotFound
}

// DeleteTask implements api.Service.
func (f *FakeService) DeleteTask(ctx context.Context, date time.Time, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteTask"]++
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	day := calendar.FormatDate(date)
	for i, t := range f.tasks[day] {
		if t.ID == id {
			f.tasks[day] = append(f.tasks[day][:i], f.tasks[day][i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MonthlyStats implements api.Service.
func (f *FakeService) MonthlyStats(ctx context.Context, year int, month time.Month) (calendar.MonthlyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MonthlyStats"]++
	if f.MonthlyStatsErr != nil {
		return calendar.EmptyStats(), f.MonthlyStatsErr
	}
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	stats := calendar.EmptyStats()
	for day, tasks := range f.tasks {
		if len(day) != len(prefix)+2 || day[:len(prefix)] != prefix || len(tasks) == 0 {
			continue
		}
		done := task.CountCompleted(tasks)
		stats.Days[day[len(prefix):]] = calendar.DayStats{Total: len(tasks), Completed: done}
		stats.TotalTasks += len(tasks)
		stats.CompletedTasks += done
	}
	return stats, nil
}
