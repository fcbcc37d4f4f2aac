// Package testutil provides test doubles for the daycal backend.
package testutil

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

// Route patterns served by Backend. They double as keys for failure injection.
const (
	RouteListTasks  = "GET /api/tasks/{date}"
	RouteCreateTask = "POST /api/tasks/{date}"
	RouteUpdateTask = "PUT /api/tasks/{date}/{id}"
	RouteDeleteTask = "DELETE /api/tasks/{date}/{id}"
	RouteStats      = "GET /api/stats/{year}/{month}"
)

// Backend is an httptest server implementing the task REST contract on SQLite.
type Backend struct {
	URL string

	srv *httptest.Server
	db  *sql.DB

	mu        sync.Mutex
	entropy   io.Reader
	failures  map[string]int
	malformed map[string]bool
	hits      map[string]int
}

// NewBackend starts a backend whose database lives in t.TempDir().
// The server and database are closed by t.Cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	db, err := sql.Open("sqlite", sqliteDSN(filepath.Join(t.TempDir(), "tasks.db")))
	if err != nil {
		t.Fatalf("open backend db: %v", err)
	}
	db.SetMaxOpenConns(1)

	b := &Backend{
		db:        db,
		entropy:   ulid.Monotonic(rand.Reader, 0),
		failures:  map[string]int{},
		malformed: map[string]bool{},
		hits:      map[string]int{},
	}
	if err := b.ensureSchema(); err != nil {
		db.Close()
		t.Fatalf("backend schema: %v", err)
	}

	mux := http.NewServeMux()
	b.route(mux, RouteListTasks, b.listTasks)
	b.route(mux, RouteCreateTask, b.createTask)
	b.route(mux, RouteUpdateTask, b.updateTask)
	b.route(mux, RouteDeleteTask, b.deleteTask)
	b.route(mux, RouteStats, b.stats)

	b.srv = httptest.NewServer(mux)
	b.URL = b.srv.URL
	t.Cleanup(func() {
		b.srv.Close()
		db.Close()
	})
	return b
}

// Fail makes every request to route answer with status until Reset.
func (b *Backend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = status
}

// Malform makes route answer 200 with a body that is not JSON.
func (b *Backend) Malform(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.malformed[route] = true
}

// Reset clears injected failures.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = map[string]int{}
	b.malformed = map[string]bool{}
}

// Hits returns how many requests reached route.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// Seed stores tasks for date directly, bypassing the HTTP API.
// Tasks without an ID get one; missing priorities become normal.
func (b *Backend) Seed(t testing.TB, date string, tasks ...task.Task) []task.Task {
	t.Helper()
	out := make([]task.Task, 0, len(tasks))
	for _, tk := range tasks {
		stored, err := b.insert(date, tk)
		if err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
		out = append(out, stored)
	}
	return out
}

func (b *Backend) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[pattern]++
		status, fail := b.failures[pattern]
		malformed := b.malformed[pattern]
		b.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		if malformed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "{not json")
			return
		}
		h(w, r)
	})
}

func (b *Backend) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	day TEXT NOT NULL,
	content TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	from_date TEXT NOT NULL DEFAULT ''
);`
	if _, err := b.db.Exec(ddl); err != nil {
		return err
	}
	_, err := b.db.Exec(`CREATE INDEX IF NOT EXISTS tasks_day ON tasks(day);`)
	return err
}

func (b *Backend) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

func (b *Backend) insert(day string, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = b.newID()
	}
	if t.Priority == "" {
		t.Priority = task.Normal
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().Format(time.RFC3339Nano)
	}
	_, err := b.db.Exec(`INSERT INTO tasks (id, day, content, priority, completed, created_at, from_date) VALUES (?, ?, ?, ?, ?, ?, ?);`,
		t.ID, day, t.Content, string(t.Priority), boolToInt(t.Completed), t.CreatedAt, t.FromDate)
	return t, err
}

func (b *Backend) fetch(day string) ([]task.Task, error) {
	rows, err := b.db.Query(`SELECT id, content, priority, completed, created_at, from_date FROM tasks WHERE day = ? ORDER BY seq;`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (b *Backend) fetchOne(day, id string) (task.Task, error) {
	row := b.db.QueryRow(`SELECT id, content, priority, completed, created_at, from_date FROM tasks WHERE day = ? AND id = ?;`, day, id)
	return scanTask(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (task.Task, error) {
	var t task.Task
	var priority string
	var completed int
	if err := s.Scan(&t.ID, &t.Content, &priority, &completed, &t.CreatedAt, &t.FromDate); err != nil {
		return task.Task{}, err
	}
	t.Priority = task.Priority(priority)
	t.Completed = completed == 1
	return t, nil
}

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	day, ok := pathDate(w, r)
	if !ok {
		return
	}
	tasks, err := b.fetch(day)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": day, "tasks": tasks, "migrated": true})
}

func (b *Backend) createTask(w http.ResponseWriter, r *http.Request) {
	day, ok := pathDate(w, r)
	if !ok {
		return
	}
	var req struct {
		Content  string        `json:"content"`
		Priority task.Priority `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	created, err := b.insert(day, task.Task{Content: req.Content, Priority: req.Priority})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request) {
	day, ok := pathDate(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	current, err := b.fetchOne(day, id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var u task.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if u.Content != nil {
		current.Content = *u.Content
	}
	if u.Priority != nil {
		current.Priority = *u.Priority
	}
	if u.Completed != nil {
		current.Completed = *u.Completed
	}
	_, err = b.db.Exec(`UPDATE tasks SET content = ?, priority = ?, completed = ? WHERE day = ? AND id = ?;`,
		current.Content, string(current.Priority), boolToInt(current.Completed), day, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (b *Backend) deleteTask(w http.ResponseWriter, r *http.Request) {
	day, ok := pathDate(w, r)
	if !ok {
		return
	}
	res, err := b.db.Exec(`DELETE FROM tasks WHERE day = ? AND id = ?;`, day, r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	prefix := r.PathValue("year") + "-" + r.PathValue("month") + "-"
	rows, err := b.db.Query(`SELECT day, COUNT(*), COALESCE(SUM(completed), 0) FROM tasks WHERE day LIKE ? GROUP BY day;`, prefix+"%")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer rows.Close()

	stats := calendar.EmptyStats()
	for rows.Next() {
		var day string
		var total, completed int
		if err := rows.Scan(&day, &total, &completed); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		stats.Days[strings.TrimPrefix(day, prefix)] = calendar.DayStats{Total: total, Completed: completed}
		stats.TotalTasks += total
		stats.CompletedTasks += completed
	}
	writeJSON(w, http.StatusOK, stats)
}

func pathDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	day := r.PathValue("date")
	if _, err := time.Parse(calendar.DateLayout, day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return "", false
	}
	return day, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
