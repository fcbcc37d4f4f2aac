// Package calendar computes month grids and the annotations drawn on them.
package calendar

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire and display format for a calendar day.
const DateLayout = "2006-01-02"

// DayStats is the per-day entry of MonthlyStats.
type DayStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed,omitempty"`
}

type MonthlyStats struct {
	TotalTasks     int                 `json:"totalTasks"`
	CompletedTasks int                 `json:"completedTasks"`
	Days           map[string]DayStats `json:"days"`
}

func EmptyStats() MonthlyStats {
	return MonthlyStats{Days: map[string]DayStats{}}
}

// HasTasks reports whether the stats record at least one task on day.
func (s MonthlyStats) HasTasks(day int) bool {
	return s.Days[fmt.Sprintf("%02d", day)].Total > 0
}

// CompletionRate is completed/total as a rounded percentage, 0 for an empty month.
func (s MonthlyStats) CompletionRate() int {
	if s.TotalTasks <= 0 {
		return 0
	}
	return int(math.Round(float64(s.CompletedTasks) / float64(s.TotalTasks) * 100))
}

// FormatDate renders t as YYYY-MM-DD in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format(DateLayout)
}

func ParseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
	}
	return t, nil
}

func SameDay(a, b time.Time) bool {
	return FormatDate(a) == FormatDate(b)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// StartWeekday is the column of the first day of the month, Sunday = 0.
func StartWeekday(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.Local).Weekday())
}

// ShiftMonth returns the first day of the month delta months away from t.
func ShiftMonth(t time.Time, delta int) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.Local)
}

// PanelTitle labels the task panel for the selected day.
func PanelTitle(selected, today time.Time) string {
	if SameDay(selected, today) {
		return "今日任务"
	}
	selected = selected.Local()
	return fmt.Sprintf("%d月%d日 任务", int(selected.Month()), selected.Day())
}

// MonthTitle is the grid header, e.g. "2026年10月".
func MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%d年%d月", year, int(month))
}
