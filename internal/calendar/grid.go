package calendar

import "time"

// Weekdays are the column headers, Sunday first.
var Weekdays = []string{"日", "一", "二", "三", "四", "五", "六"}

// Cell is one slot of the grid. Blank cells have Day == 0.
type Cell struct {
	Date       time.Time
	Day        int
	HasTasks   bool
	IsToday    bool
	IsSelected bool
}

func (c Cell) Blank() bool {
	return c.Day == 0
}

type Grid struct {
	Year   int
	Month  time.Month
	Blanks int
	Cells  []Cell
}

// Build lays out year/month: Blanks leading blank cells followed by one cell per day.
func Build(year int, month time.Month, today, selected time.Time, stats MonthlyStats) Grid {
	g := Grid{
		Year:   year,
		Month:  month,
		Blanks: StartWeekday(year, month),
	}
	days := DaysInMonth(year, month)
	g.Cells = make([]Cell, 0, g.Blanks+days)
	for i := 0; i < g.Blanks; i++ {
		g.Cells = append(g.Cells, Cell{})
	}
	for d := 1; d <= days; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
		g.Cells = append(g.Cells, Cell{
			Date:       date,
			Day:        d,
			HasTasks:   stats.HasTasks(d),
			IsToday:    SameDay(date, today),
			IsSelected: SameDay(date, selected),
		})
	}
	return g
}

// DayCount is the number of numbered (non-blank) cells.
func (g Grid) DayCount() int {
	return len(g.Cells) - g.Blanks
}

// Rows splits the cells into weeks of seven. The last week may be short.
func (g Grid) Rows() [][]Cell {
	var rows [][]Cell
	for start := 0; start < len(g.Cells); start += 7 {
		end := start + 7
		if end > len(g.Cells) {
			end = len(g.Cells)
		}
		rows = append(rows, g.Cells[start:end])
	}
	return rows
}

// At returns the numbered cell at week row and weekday column.
func (g Grid) At(row, col int) (Cell, bool) {
	if row < 0 || col < 0 || col > 6 {
		return Cell{}, false
	}
	idx := row*7 + col
	if idx >= len(g.Cells) || g.Cells[idx].Blank() {
		return Cell{}, false
	}
	return g.Cells[idx], true
}
