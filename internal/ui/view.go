package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"daycal/internal/calendar"
	"daycal/internal/config"
	"daycal/internal/task"
)

// Grid geometry, used to map mouse clicks back to cells.
const (
	gridTop   = 2
	cellWidth = 5
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	todayStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	hasTasksStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	modalStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("4")).
			Padding(0, 1)
	priorityStyles = map[task.Priority]lipgloss.Style{
		task.Urgent:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		task.Important: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		task.Normal:    lipgloss.NewStyle(),
	}
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderCalendar())
	b.WriteString("\n")
	b.WriteString(m.renderTaskPanel())
	b.WriteString("\n")

	switch m.mode {
	case modeAdd:
		b.WriteString(fmt.Sprintf("新任务 [%s]: ", m.addPriority.Label()))
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeEdit:
		b.WriteString(m.renderEditModal())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys, m.mode))
	return b.String()
}

// renderCalendar draws the month header, weekday row and weeks. The weeks start
// at line gridTop and every cell is cellWidth columns wide.
func (m Model) renderCalendar() string {
	var b strings.Builder
	g := m.grid()

	total, done := m.stats.TotalTasks, m.stats.CompletedTasks
	b.WriteString(titleStyle.Render(fmt.Sprintf("◀ %s ▶", calendar.MonthTitle(g.Year, g.Month))))
	b.WriteString(fmt.Sprintf("   完成率 %d/%d (%d%%)", done, total, m.stats.CompletionRate()))
	b.WriteString("\n")

	for _, wd := range calendar.Weekdays {
		b.WriteString(headerStyle.Render(" " + wd + "  "))
	}
	b.WriteString("\n")

	for _, row := range g.Rows() {
		for _, c := range row {
			b.WriteString(renderCell(c))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderCell(c calendar.Cell) string {
	if c.Blank() {
		return strings.Repeat(" ", cellWidth)
	}
	left, right := " ", " "
	switch {
	case c.IsSelected:
		left, right = "[", "]"
	case c.IsToday:
		left, right = "<", ">"
	}
	marker := " "
	if c.HasTasks {
		marker = hasTasksStyle.Render("•")
	}
	text := fmt.Sprintf("%s%2d%s%s", left, c.Day, marker, right)
	switch {
	case c.IsSelected:
		return selectedStyle.Render(text)
	case c.IsToday:
		return todayStyle.Render(text)
	default:
		return text
	}
}

func (m Model) renderTaskPanel() string {
	var b strings.Builder
	title := calendar.PanelTitle(m.selected, m.now())
	tasks, ok := m.visibleTasks()
	if !ok {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("加载中…"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render(title))
	b.WriteString(fmt.Sprintf("  共 %d 项", len(tasks)))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString(emptyStyle.Render("暂无任务，按 a 添加"))
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range tasks {
		cursor := " "
		if m.focus == focusTasks && m.mode == modeBrowse && i == m.cursor {
			cursor = ">"
		}
		checkbox := "[ ]"
		content := t.Content
		if t.Completed {
			checkbox = "[x]"
			content = doneStyle.Render(content)
		}
		label := priorityStyle(t.Priority).Render(t.Priority.Label())
		line := fmt.Sprintf("%s %s %s %s", cursor, checkbox, label, content)
		if t.FromDate != "" {
			line += emptyStyle.Render(" ↩ " + t.FromDate)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderEditModal() string {
	if m.edit == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("编辑任务"))
	b.WriteString("\n\n")
	b.WriteString(m.editInput.View())
	b.WriteString("\n")
	b.WriteString("优先级: ")
	for i, p := range task.Priorities {
		if i > 0 {
			b.WriteString("  ")
		}
		if p == m.edit.priority {
			b.WriteString(selectedStyle.Render("(" + p.Label() + ")"))
		} else {
			b.WriteString(" " + p.Label() + " ")
		}
	}
	return modalStyle.Render(b.String())
}

func priorityStyle(p task.Priority) lipgloss.Style {
	if s, ok := priorityStyles[p]; ok {
		return s
	}
	return priorityStyles[task.Normal]
}

func renderHelp(k config.Keymap, md mode) string {
	switch md {
	case modeAdd:
		return fmt.Sprintf("%s save • %s priority • %s cancel", k.Confirm, k.Priority, k.Cancel)
	case modeEdit:
		return fmt.Sprintf("%s save • %s priority • %s cancel", k.Confirm, k.Priority, k.Cancel)
	case modeConfirmDelete:
		return "y delete • n cancel"
	}
	return fmt.Sprintf("%s/%s/%s/%s move • %s/%s month • %s today • %s pane • %s add • %s toggle • %s edit • %s delete • %s quit",
		k.Left, k.Down, k.Up, k.Right, k.PrevMonth, k.NextMonth, k.Today, k.Focus, k.Add, keyName(k.Toggle), k.Edit, k.Delete, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
