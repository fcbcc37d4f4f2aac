package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

// Load results carry the token they were issued with; Update drops any result
// whose token is no longer the latest.
type tasksLoadedMsg struct {
	seq   uint64
	date  time.Time
	tasks []task.Task
	err   error
}

type statsLoadedMsg struct {
	seq   uint64
	month time.Time
	stats calendar.MonthlyStats
	err   error
}

type taskCreatedMsg struct {
	date time.Time
	task task.Task
	err  error
}

type taskUpdatedMsg struct {
	date     time.Time
	id       string
	fromEdit bool
	err      error
}

type taskDeletedMsg struct {
	date time.Time
	id   string
	err  error
}

func (m Model) fetchTasks(seq uint64, date time.Time) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		tasks, err := svc.ListTasks(ctx, date)
		return tasksLoadedMsg{seq: seq, date: date, tasks: tasks, err: err}
	}
}

func (m Model) fetchStats(seq uint64, month time.Time) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		stats, err := svc.MonthlyStats(ctx, month.Year(), month.Month())
		return statsLoadedMsg{seq: seq, month: month, stats: stats, err: err}
	}
}

func (m Model) createTask(date time.Time, content string, priority task.Priority) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		created, err := svc.CreateTask(ctx, date, content, priority)
		return taskCreatedMsg{date: date, task: created, err: err}
	}
}

func (m Model) updateTask(date time.Time, id string, u task.Update, fromEdit bool) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		_, err := svc.UpdateTask(ctx, date, id, u)
		return taskUpdatedMsg{date: date, id: id, fromEdit: fromEdit, err: err}
	}
}

func (m Model) deleteTask(date time.Time, id string) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		err := svc.DeleteTask(ctx, date, id)
		return taskDeletedMsg{date: date, id: id, err: err}
	}
}

// loadTasks issues a new task-list request for the selected day.
func (m Model) loadTasks() (Model, tea.Cmd) {
	m.tasksSeq++
	return m, m.fetchTasks(m.tasksSeq, m.selected)
}

// loadStats issues a new stats request for the visible month.
func (m Model) loadStats() (Model, tea.Cmd) {
	m.statsSeq++
	return m, m.fetchStats(m.statsSeq, m.view)
}

// reload refetches the selected day and the visible month's markers.
func (m Model) reload() (Model, tea.Cmd) {
	m, tasksCmd := m.loadTasks()
	m, statsCmd := m.loadStats()
	return m, tea.Batch(tasksCmd, statsCmd)
}
