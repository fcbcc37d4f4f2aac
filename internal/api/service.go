// Package api is the HTTP client for the daycal task backend.
package api

import (
	"context"
	"time"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

// Service defines the backend operations the client needs.
// The UI and CLI only talk to the backend through this interface.
type Service interface {
	// ListTasks returns the tasks for a day in backend order.
	ListTasks(ctx context.Context, date time.Time) ([]task.Task, error)

	// CreateTask adds a task to a day and returns the stored task.
	CreateTask(ctx context.Context, date time.Time, content string, priority task.Priority) (task.Task, error)

	// UpdateTask changes only the fields set in u.
	UpdateTask(ctx context.Context, date time.Time, id string, u task.Update) (task.Task, error)

	// DeleteTask removes a task from a day.
	DeleteTask(ctx context.Context, date time.Time, id string) error

	// MonthlyStats returns per-day totals for a month.
	MonthlyStats(ctx context.Context, year int, month time.Month) (calendar.MonthlyStats, error)
}
