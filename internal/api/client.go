package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"daycal/internal/calendar"
	"daycal/internal/task"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Client implements Service over HTTP.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
}

// New creates a client for the backend at baseURL.
// A nil httpClient uses http.DefaultClient; a zero timeout uses DefaultTimeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: u, http: httpClient, timeout: timeout}, nil
}

type taskListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

type createRequest struct {
	Content  string        `json:"content"`
	Priority task.Priority `json:"priority"`
}

// ListTasks implements Service.
func (c *Client) ListTasks(ctx context.Context, date time.Time) ([]task.Task, error) {
	body, err := c.do(ctx, http.MethodGet, c.tasksPath(date), nil)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var resp taskListResponse
	if err := decodeValidated(body, taskListSchema, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range resp.Tasks {
		if resp.Tasks[i].Priority == "" {
			resp.Tasks[i].Priority = task.Normal
		}
	}
	return resp.Tasks, nil
}

// CreateTask implements Service.
func (c *Client) CreateTask(ctx context.Context, date time.Time, content string, priority task.Priority) (task.Task, error) {
	body, err := c.do(ctx, http.MethodPost, c.tasksPath(date), createRequest{Content: content, Priority: priority})
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	var created task.Task
	if err := decodeValidated(body, taskSchema, &created); err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// UpdateTask implements Service.
func (c *Client) UpdateTask(ctx context.Context, date time.Time, id string, u task.Update) (task.Task, error) {
	body, err := c.do(ctx, http.MethodPut, c.taskPath(date, id), u)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	var updated task.Task
	if err := decodeValidated(body, taskSchema, &updated); err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	return updated, nil
}

// DeleteTask implements Service.
func (c *Client) DeleteTask(ctx context.Context, date time.Time, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.taskPath(date, id), nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// MonthlyStats implements Service.
func (c *Client) MonthlyStats(ctx context.Context, year int, month time.Month) (calendar.MonthlyStats, error) {
	path := fmt.Sprintf("/api/stats/%04d/%02d", year, int(month))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return calendar.EmptyStats(), fmt.Errorf("monthly stats: %w", err)
	}
	stats := calendar.EmptyStats()
	if err := decodeValidated(body, statsSchema, &stats); err != nil {
		return calendar.EmptyStats(), fmt.Errorf("monthly stats: %w", err)
	}
	if stats.Days == nil {
		stats.Days = map[string]calendar.DayStats{}
	}
	return stats, nil
}

func (c *Client) tasksPath(date time.Time) string {
	return "/api/tasks/" + calendar.FormatDate(date)
}

func (c *Client) taskPath(date time.Time, id string) string {
	return c.tasksPath(date) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, wrapError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
