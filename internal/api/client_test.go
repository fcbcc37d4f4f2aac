package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"daycal/internal/api"
	"daycal/internal/task"
	"daycal/internal/testutil"
)

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	c, err := api.New(baseURL, nil, time.Second)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

func oct(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.Local)
}

func TestCreateThenListRoundTrip(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := newClient(t, backend.URL)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, oct(19), "write report", task.Urgent)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected the backend to assign an id")
	}

	tasks, err := c.ListTasks(ctx, oct(19))
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != created.ID || got.Content != "write report" || got.Priority != task.Urgent || got.Completed {
		t.Fatalf("unexpected task %+v", got)
	}

	other, err := c.ListTasks(ctx, oct(20))
	if err != nil {
		t.Fatalf("ListTasks other day: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("tasks leaked into another day: %+v", other)
	}
}

func TestUpdateSendsOnlyPresentFields(t *testing.T) {
	backend := testutil.NewBackend(t)
	seeded := backend.Seed(t, "2026-10-19", task.Task{Content: "call mom", Priority: task.Important})
	c := newClient(t, backend.URL)
	ctx := context.Background()

	done := true
	updated, err := c.UpdateTask(ctx, oct(19), seeded[0].ID, task.Update{Completed: &done})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !updated.Completed || updated.Content != "call mom" || updated.Priority != task.Important {
		t.Fatalf("completion update changed other fields: %+v", updated)
	}

	content := "call dad"
	urgent := task.Urgent
	updated, err = c.UpdateTask(ctx, oct(19), seeded[0].ID, task.Update{Content: &content, Priority: &urgent})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !updated.Completed || updated.Content != "call dad" || updated.Priority != task.Urgent {
		t.Fatalf("unexpected task after edit: %+v", updated)
	}
}

func TestDeleteTask(t *testing.T) {
	backend := testutil.NewBackend(t)
	seeded := backend.Seed(t, "2026-10-19",
		task.Task{Content: "a"},
		task.Task{Content: "b"},
	)
	c := newClient(t, backend.URL)
	ctx := context.Background()

	if err := c.DeleteTask(ctx, oct(19), seeded[0].ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	tasks, err := c.ListTasks(ctx, oct(19))
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Content != "b" {
		t.Fatalf("unexpected tasks after delete: %+v", tasks)
	}

	err = c.DeleteTask(ctx, oct(19), seeded[0].ID)
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("expected a 404 StatusError, got %v", err)
	}
}

func TestMonthlyStats(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(t, "2026-10-05", task.Task{Content: "a", Completed: true}, task.Task{Content: "b"})
	backend.Seed(t, "2026-10-19", task.Task{Content: "c"})
	backend.Seed(t, "2026-11-01", task.Task{Content: "elsewhere"})
	c := newClient(t, backend.URL)

	stats, err := c.MonthlyStats(context.Background(), 2026, time.October)
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if stats.TotalTasks != 3 || stats.CompletedTasks != 1 {
		t.Fatalf("totals: got %d/%d, want 1/3", stats.CompletedTasks, stats.TotalTasks)
	}
	if stats.Days["05"].Total != 2 || stats.Days["19"].Total != 1 {
		t.Fatalf("unexpected days: %+v", stats.Days)
	}
	if _, ok := stats.Days["01"]; ok {
		t.Fatal("November task counted in October")
	}
}

func TestFailuresAreErrors(t *testing.T) {
	tests := []struct {
		name  string
		route string
		call  func(c *api.Client) error
	}{
		{"list", testutil.RouteListTasks, func(c *api.Client) error {
			_, err := c.ListTasks(context.Background(), oct(19))
			return err
		}},
		{"create", testutil.RouteCreateTask, func(c *api.Client) error {
			_, err := c.CreateTask(context.Background(), oct(19), "x", task.Normal)
			return err
		}},
		{"stats", testutil.RouteStats, func(c *api.Client) error {
			_, err := c.MonthlyStats(context.Background(), 2026, time.October)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name+" status", func(t *testing.T) {
			backend := testutil.NewBackend(t)
			backend.Fail(tt.route, http.StatusInternalServerError)
			if err := tt.call(newClient(t, backend.URL)); err == nil {
				t.Fatal("expected an error for a 500 response")
			}
		})
		t.Run(tt.name+" malformed", func(t *testing.T) {
			backend := testutil.NewBackend(t)
			backend.Malform(tt.route)
			err := tt.call(newClient(t, backend.URL))
			if err == nil || !strings.Contains(err.Error(), "malformed") {
				t.Fatalf("expected a malformed response error, got %v", err)
			}
		})
	}
}

func TestSchemaRejectsWrongShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/api/stats/") {
			w.Write([]byte(`{"totalTasks": "many", "completedTasks": 0, "days": {}}`))
			return
		}
		w.Write([]byte(`{"tasks": [{"content": "no id"}]}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	if _, err := c.ListTasks(context.Background(), oct(19)); err == nil {
		t.Fatal("expected a task without id to be rejected")
	}
	stats, err := c.MonthlyStats(context.Background(), 2026, time.October)
	if err == nil {
		t.Fatal("expected string totals to be rejected")
	}
	if stats.TotalTasks != 0 || stats.Days == nil {
		t.Fatalf("failed stats should come back empty, got %+v", stats)
	}
}

func TestRequestPathsUseLocalDates(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"tasks": []}`))
		case http.MethodDelete:
			w.Write([]byte(`{"success": true}`))
		default:
			w.Write([]byte(`{"id": "x", "content": "c"}`))
		}
	}))
	defer srv.Close()
	c := newClient(t, srv.URL+"/")
	ctx := context.Background()
	late := time.Date(2026, 3, 7, 23, 30, 0, 0, time.Local)

	c.ListTasks(ctx, late)
	c.CreateTask(ctx, late, "c", task.Normal)
	c.UpdateTask(ctx, late, "a/b", task.Update{})
	c.DeleteTask(ctx, late, "x")

	want := []string{
		"GET /api/tasks/2026-03-07",
		"POST /api/tasks/2026-03-07",
		"PUT /api/tasks/2026-03-07/a/b",
		"DELETE /api/tasks/2026-03-07/x",
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d requests, want %d: %v", len(paths), len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("request %d: got %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"localhost:5001", "ftp://example.com", "://"} {
		if _, err := api.New(raw, nil, 0); err == nil {
			t.Errorf("api.New(%q): expected an error", raw)
		}
	}
}
