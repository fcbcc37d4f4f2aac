// Package task holds the day-scoped task model shared by the client and its views.
package task

import (
	"sort"
	"strings"
)

type Priority string

const (
	Normal    Priority = "normal"
	Important Priority = "important"
	Urgent    Priority = "urgent"
)

// Priorities lists every priority in display order, highest first.
var Priorities = []Priority{Urgent, Important, Normal}

type Task struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
	CreatedAt string   `json:"createdAt,omitempty"`
	FromDate  string   `json:"from_date,omitempty"`
}

// Update carries the fields of a partial update. Nil fields are left untouched.
type Update struct {
	Content   *string   `json:"content,omitempty"`
	Priority  *Priority `json:"priority,omitempty"`
	Completed *bool     `json:"completed,omitempty"`
}

func ParsePriority(v string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(v))) {
	case Normal, "":
		return Normal, true
	case Important:
		return Important, true
	case Urgent:
		return Urgent, true
	default:
		return Normal, false
	}
}

// Rank orders priorities for display. Unknown values rank with normal.
func (p Priority) Rank() int {
	switch p {
	case Urgent:
		return 2
	case Important:
		return 1
	default:
		return 0
	}
}

// Next cycles normal -> important -> urgent -> normal.
func (p Priority) Next() Priority {
	switch p {
	case Normal:
		return Important
	case Important:
		return Urgent
	default:
		return Normal
	}
}

// Label is the short marker shown next to a task row.
func (p Priority) Label() string {
	switch p {
	case Urgent:
		return "紧急"
	case Important:
		return "重要"
	default:
		return "普通"
	}
}

// SortByPriority returns a copy of tasks ordered urgent first. Tasks of equal
// priority keep the order the backend returned them in.
func SortByPriority(tasks []Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
	})
	return sorted
}

func CountCompleted(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
