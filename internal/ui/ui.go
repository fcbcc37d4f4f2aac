package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"daycal/internal/api"
	"daycal/internal/calendar"
	"daycal/internal/config"
	"daycal/internal/task"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
)

type focus int

const (
	focusCalendar focus = iota
	focusTasks
)

type editState struct {
	taskID   string
	date     time.Time
	priority task.Priority
}

// Model is the whole application state. Every field changes only inside Update.
type Model struct {
	svc    api.Service
	cfg    config.Config
	logger *log.Logger
	ctx    context.Context
	now    func() time.Time

	view     time.Time // first day of the visible month
	selected time.Time
	stats    calendar.MonthlyStats

	// tasks always belongs to tasksDate; the panel shows it only when
	// tasksDate is the selected day.
	tasks     []task.Task
	tasksDate time.Time
	loaded    bool
	cursor    int

	focus       focus
	mode        mode
	input       textinput.Model
	addPriority task.Priority
	editInput   textinput.Model
	edit        *editState
	pendingDel  *task.Task
	status      string

	tasksSeq uint64
	statsSeq uint64
}

// Option customizes a Model.
type Option func(*Model)

// WithClock replaces time.Now, used to decide which day is today.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// WithContext sets the context passed to API calls.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// New builds the initial state with initial selected (today when zero).
func New(svc api.Service, cfg config.Config, logger *log.Logger, initial time.Time, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "任务内容"
	ti.CharLimit = 256
	ti.Width = 40

	ei := textinput.New()
	ei.CharLimit = 256
	ei.Width = 40

	m := Model{
		svc:         svc,
		cfg:         cfg,
		logger:      logger,
		ctx:         context.Background(),
		now:         time.Now,
		stats:       calendar.EmptyStats(),
		input:       ti,
		editInput:   ei,
		addPriority: task.Normal,
		status:      "Press 'a' to add, tab to switch panes.",
		tasksSeq:    1,
		statsSeq:    1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if initial.IsZero() {
		initial = m.now()
	}
	m.selected = calendar.StartOfDay(initial)
	m.view = calendar.ShiftMonth(m.selected, 0)
	return m
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, svc api.Service, cfg config.Config, logger *log.Logger, initial time.Time) error {
	m := New(svc, cfg, logger, initial, WithContext(ctx))
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchTasks(m.tasksSeq, m.selected), m.fetchStats(m.statsSeq, m.view))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg.String(), msg)
		case modeEdit:
			return m.updateEditMode(msg.String(), msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		}
		return m.updateBrowseMode(msg.String())
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.input.Width = clampWidth(msg.Width - 20)
		m.editInput.Width = clampWidth(msg.Width - 20)
	case tasksLoadedMsg:
		return m.applyTasks(msg), nil
	case statsLoadedMsg:
		return m.applyStats(msg), nil
	case taskCreatedMsg:
		return m.afterCreate(msg)
	case taskUpdatedMsg:
		return m.afterUpdate(msg)
	case taskDeletedMsg:
		return m.afterDelete(msg)
	}
	return m, nil
}

func (m Model) applyTasks(msg tasksLoadedMsg) Model {
	if msg.seq != m.tasksSeq {
		m.logger.Debug("dropping stale task list", "date", calendar.FormatDate(msg.date), "seq", msg.seq, "latest", m.tasksSeq)
		return m
	}
	if msg.err != nil {
		m.logger.Error("load tasks failed", "date", calendar.FormatDate(msg.date), "err", msg.err)
		if calendar.SameDay(m.tasksDate, msg.date) && m.loaded {
			return m
		}
		msg.tasks = nil
	}
	m.tasks = task.SortByPriority(msg.tasks)
	m.tasksDate = msg.date
	m.loaded = true
	m.cursor = clampCursor(m.cursor, len(m.tasks))
	return m
}

func (m Model) applyStats(msg statsLoadedMsg) Model {
	if msg.seq != m.statsSeq {
		m.logger.Debug("dropping stale stats", "month", msg.month.Format("2006-01"), "seq", msg.seq, "latest", m.statsSeq)
		return m
	}
	if msg.err != nil {
		m.logger.Error("load stats failed", "month", msg.month.Format("2006-01"), "err", msg.err)
		msg.stats = calendar.EmptyStats()
	}
	if msg.stats.Days == nil {
		msg.stats.Days = map[string]calendar.DayStats{}
	}
	m.stats = msg.stats
	return m
}

func (m Model) afterCreate(msg taskCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("create task failed", "date", calendar.FormatDate(msg.date), "err", msg.err)
		return m, nil
	}
	m.logger.Info("task created", "date", calendar.FormatDate(msg.date), "id", msg.task.ID)
	m.input.SetValue("")
	m.input.Blur()
	if m.mode == modeAdd {
		m.mode = modeBrowse
	}
	m.status = "Added task"
	return m.reload()
}

func (m Model) afterUpdate(msg taskUpdatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("update task failed", "date", calendar.FormatDate(msg.date), "id", msg.id, "err", msg.err)
		if msg.fromEdit {
			return m, nil
		}
		return m.reload()
	}
	if msg.fromEdit && m.edit != nil && m.edit.taskID == msg.id {
		m.edit = nil
		m.editInput.Blur()
		m.mode = modeBrowse
		m.status = "Saved"
	}
	return m.reload()
}

func (m Model) afterDelete(msg taskDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Error("delete task failed", "date", calendar.FormatDate(msg.date), "id", msg.id, "err", msg.err)
	} else {
		m.status = "Deleted task"
	}
	return m.reload()
}

func (m Model) updateBrowseMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Focus:
		if m.focus == focusCalendar {
			m.focus = focusTasks
		} else {
			m.focus = focusCalendar
		}
		return m, nil
	case k.Add:
		m.mode = modeAdd
		m.addPriority = task.Normal
		m.input.Focus()
		m.status = "Add mode: type, tab for priority, enter to save"
		return m, nil
	case k.Reload:
		return m.reload()
	case k.Today:
		return m.selectDate(m.now())
	case k.PrevMonth:
		m.view = calendar.ShiftMonth(m.view, -1)
		return m.loadStats()
	case k.NextMonth:
		m.view = calendar.ShiftMonth(m.view, 1)
		return m.loadStats()
	}
	if m.focus == focusCalendar {
		return m.updateCalendarKeys(key)
	}
	return m.updateTaskKeys(key)
}

func (m Model) updateCalendarKeys(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Left, "left":
		return m.selectDate(m.selected.AddDate(0, 0, -1))
	case k.Right, "right":
		return m.selectDate(m.selected.AddDate(0, 0, 1))
	case k.Up, "up":
		return m.selectDate(m.selected.AddDate(0, 0, -7))
	case k.Down, "down":
		return m.selectDate(m.selected.AddDate(0, 0, 7))
	case k.Confirm:
		m.focus = focusTasks
	}
	return m, nil
}

func (m Model) updateTaskKeys(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case k.Toggle:
		t, ok := m.currentTask()
		if !ok {
			return m, nil
		}
		done := !t.Completed
		return m, m.updateTask(m.selected, t.ID, task.Update{Completed: &done}, false)
	case k.Delete:
		t, ok := m.currentTask()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Content)
	case k.Edit, k.Confirm:
		t, ok := m.currentTask()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startEdit(t)
	}
	return m, nil
}

// selectDate makes date the selected day, following it with the visible month.
func (m Model) selectDate(date time.Time) (tea.Model, tea.Cmd) {
	date = calendar.StartOfDay(date)
	m.selected = date
	m.cursor = 0
	m, tasksCmd := m.loadTasks()
	month := calendar.ShiftMonth(date, 0)
	if month.Equal(m.view) {
		return m, tasksCmd
	}
	m.view = month
	m, statsCmd := m.loadStats()
	return m, tea.Batch(tasksCmd, statsCmd)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeBrowse || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	cell, ok := m.grid().At(msg.Y-gridTop, msg.X/cellWidth)
	if !ok {
		return m, nil
	}
	m.focus = focusCalendar
	return m.selectDate(cell.Date)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeBrowse
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Priority:
		m.addPriority = m.addPriority.Next()
		return m, nil
	case m.cfg.Keys.Confirm:
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		return m, m.createTask(m.selected, content, m.addPriority)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) startEdit(t task.Task) (tea.Model, tea.Cmd) {
	priority, _ := task.ParsePriority(string(t.Priority))
	m.edit = &editState{
		taskID:   t.ID,
		date:     m.selected,
		priority: priority,
	}
	m.editInput.SetValue(t.Content)
	m.editInput.CursorEnd()
	m.editInput.Focus()
	m.mode = modeEdit
	m.status = "Edit: tab for priority, enter to save, esc to cancel"
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.edit = nil
		m.editInput.Blur()
		m.mode = modeBrowse
		m.status = "Edit cancelled"
		return m, nil
	case m.cfg.Keys.Priority:
		if m.edit != nil {
			m.edit.priority = m.edit.priority.Next()
		}
		return m, nil
	case m.cfg.Keys.Confirm:
		if m.edit == nil {
			return m, nil
		}
		content := strings.TrimSpace(m.editInput.Value())
		if content == "" {
			return m, nil
		}
		priority := m.edit.priority
		u := task.Update{Content: &content, Priority: &priority}
		return m, m.updateTask(m.edit.date, m.edit.taskID, u, true)
	default:
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.mode = modeBrowse
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.mode = modeBrowse
			return m, nil
		}
		id := m.pendingDel.ID
		m.mode = modeBrowse
		m.pendingDel = nil
		return m, m.deleteTask(m.selected, id)
	default:
		return m, nil
	}
}

// visibleTasks is the task list for the selected day, or nil while it loads.
func (m Model) visibleTasks() ([]task.Task, bool) {
	if !m.loaded || !calendar.SameDay(m.tasksDate, m.selected) {
		return nil, false
	}
	return m.tasks, true
}

func (m Model) currentTask() (task.Task, bool) {
	tasks, ok := m.visibleTasks()
	if !ok || len(tasks) == 0 {
		return task.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m Model) grid() calendar.Grid {
	return calendar.Build(m.view.Year(), m.view.Month(), m.now(), m.selected, m.stats)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func clampWidth(w int) int {
	if w < 20 {
		return 20
	}
	return w
}
