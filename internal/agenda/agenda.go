// Package agenda renders a day's tasks for the list and export commands.
package agenda

import (
	"fmt"
	"io"
	"strings"
	"time"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five HTML-significant characters and leaves everything
// else untouched.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// WriteText writes one line per task, highest priority first.
// Format: "{N:>3}  [x] {LABEL}  {CONTENT}" with an optional "  (from {DATE})" suffix.
func WriteText(w io.Writer, date time.Time, tasks []task.Task) error {
	if _, err := fmt.Fprintf(w, "%s  %d 项\n", calendar.FormatDate(date), len(tasks)); err != nil {
		return err
	}
	for i, t := range task.SortByPriority(tasks) {
		line := fmt.Sprintf("%3d  %s %s  %s", i+1, checkbox(t), t.Priority.Label(), normalizeContent(t.Content))
		if t.FromDate != "" {
			line += fmt.Sprintf("  (from %s)", t.FromDate)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteHTML writes a standalone HTML page listing the day's tasks.
func WriteHTML(w io.Writer, date time.Time, tasks []task.Task) error {
	var b strings.Builder
	day := calendar.FormatDate(date)
	sorted := task.SortByPriority(tasks)

	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n", EscapeHTML(day))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", EscapeHTML(day))
	fmt.Fprintf(&b, "<p class=\"summary\">%d/%d</p>\n", task.CountCompleted(sorted), len(sorted))
	if len(sorted) == 0 {
		b.WriteString("<p class=\"empty\">暂无任务</p>\n")
	} else {
		b.WriteString("<ul class=\"tasks\">\n")
		for _, t := range sorted {
			class := "task priority-" + string(normalizePriority(t.Priority))
			if t.Completed {
				class += " completed"
			}
			fmt.Fprintf(&b, "<li class=\"%s\" data-id=\"%s\"><span class=\"priority\">%s</span> %s",
				class, EscapeHTML(t.ID), t.Priority.Label(), EscapeHTML(normalizeContent(t.Content)))
			if t.FromDate != "" {
				fmt.Fprintf(&b, " <span class=\"from\">%s</span>", EscapeHTML(t.FromDate))
			}
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
	}
	b.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func checkbox(t task.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func normalizePriority(p task.Priority) task.Priority {
	n, _ := task.ParsePriority(string(p))
	return n
}

// normalizeContent keeps every task on one line.
func normalizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}
