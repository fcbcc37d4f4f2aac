package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"daycal/internal/api"
	"daycal/internal/cli"
	"daycal/internal/config"
	"daycal/internal/exitcode"
	"daycal/internal/task"
	"daycal/internal/testutil"
)

// writeConfig writes a config pointing at serverURL and returns its path.
func writeConfig(t *testing.T, serverURL string) string {
	t.Helper()
	t.Setenv(config.ServerURLEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "server_url = \"" + serverURL + "\"\ntimeout_seconds = 2\nlog_file = \"" + filepath.Join(dir, "daycal.log") + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type uiCall struct {
	called  bool
	cfg     config.Config
	initial time.Time
}

func fakeUI(rec *uiCall, err error) cli.UIRunner {
	return func(ctx context.Context, svc api.Service, cfg config.Config, logger *log.Logger, initial time.Time) error {
		rec.called = true
		rec.cfg = cfg
		rec.initial = initial
		return err
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := d.Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestDispatcher_VersionCommand(t *testing.T) {
	code, out, errOut := run(t, cli.NewDispatcher(nil, fakeUI(&uiCall{}, nil)), "version")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if out != "daycal "+cli.Version+"\n" {
		t.Errorf("unexpected output %q", out)
	}
	if errOut != "" {
		t.Errorf("expected no stderr, got %q", errOut)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	code, out, _ := run(t, cli.NewDispatcher(nil, fakeUI(&uiCall{}, nil)), "help")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"Usage:", "daycal list", "daycal export"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestDispatcher_UserErrors(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown command", []string{"bogus"}, "error: unknown command: bogus\n"},
		{"unknown flag", []string{"list", "--nope"}, "error: unknown flag: -nope\n"},
		{"bad date", []string{"list", "--config", cfgPath, "--date", "2026-13-01"}, "error: invalid date \"2026-13-01\" (want YYYY-MM-DD)\n"},
		{"extra argument", []string{"list", "--config", cfgPath, "today"}, "error: unexpected argument: today\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &uiCall{}
			code, _, errOut := run(t, cli.NewDispatcher(nil, fakeUI(rec, nil)), tt.args...)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if errOut != tt.wantErr {
				t.Errorf("stderr = %q, want %q", errOut, tt.wantErr)
			}
			if rec.called {
				t.Error("ui should not start")
			}
		})
	}
}

func TestDispatcher_BadServerURL(t *testing.T) {
	cfgPath := writeConfig(t, "ftp://example.com")
	code, _, errOut := run(t, cli.NewDispatcher(nil, nil), "list", "--config", cfgPath)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(errOut, "error: ") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestDispatcher_DefaultsToUI(t *testing.T) {
	backend := testutil.NewBackend(t)
	cfgPath := writeConfig(t, backend.URL)

	rec := &uiCall{}
	code, _, errOut := run(t, cli.NewDispatcher(nil, fakeUI(rec, nil)), "--config", cfgPath, "--date", "2026-03-07")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, errOut)
	}
	if !rec.called {
		t.Fatal("ui was not started")
	}
	if rec.cfg.ServerURL != backend.URL {
		t.Errorf("server url = %q, want %q", rec.cfg.ServerURL, backend.URL)
	}
	want := time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local)
	if !rec.initial.Equal(want) {
		t.Errorf("initial date = %v, want %v", rec.initial, want)
	}
	if _, err := os.Stat(rec.cfg.LogFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestDispatcher_CreatesConfigOnFirstLaunch(t *testing.T) {
	t.Setenv(config.ServerURLEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	rec := &uiCall{}
	code, _, _ := run(t, cli.NewDispatcher(nil, fakeUI(rec, nil)), "tui", "--config", path)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if rec.cfg.ServerURL != config.DefaultServerURL {
		t.Errorf("server url = %q, want default", rec.cfg.ServerURL)
	}
	if !rec.initial.IsZero() {
		t.Errorf("initial date should be unset, got %v", rec.initial)
	}
}

func TestDispatcher_UIFailure(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")
	code, _, errOut := run(t, cli.NewDispatcher(nil, fakeUI(&uiCall{}, errors.New("no tty"))), "--config", cfgPath)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errOut != "error: no tty\n" {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestListCommand(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(t, "2026-10-19",
		task.Task{Content: "water plants", Priority: task.Normal},
		task.Task{Content: "pay rent", Priority: task.Urgent, Completed: true},
	)
	cfgPath := writeConfig(t, backend.URL)

	code, out, errOut := run(t, cli.NewDispatcher(nil, nil), "list", "--config", cfgPath, "--date", "2026-10-19")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, errOut)
	}
	want := "2026-10-19  2 项\n" +
		"  1  [x] 紧急  pay rent\n" +
		"  2  [ ] 普通  water plants\n"
	if out != want {
		t.Errorf("got\n%q\nwant\n%q", out, want)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Fail(testutil.RouteListTasks, 500)
	cfgPath := writeConfig(t, backend.URL)

	code, out, errOut := run(t, cli.NewDispatcher(nil, nil), "list", "--config", cfgPath, "--date", "2026-10-19")
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "error: backend error: list tasks:") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestExportCommand(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(t, "2026-10-19", task.Task{Content: "<b>bold</b> & 'quoted'", Priority: task.Important})
	cfgPath := writeConfig(t, backend.URL)
	outPath := filepath.Join(t.TempDir(), "agenda.html")

	code, out, errOut := run(t, cli.NewDispatcher(nil, nil), "export", "--config", cfgPath, "--date", "2026-10-19", "--out", outPath)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, errOut)
	}
	if out != "" {
		t.Errorf("expected no stdout when writing a file, got %q", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "&lt;b&gt;bold&lt;/b&gt; &amp; &#39;quoted&#39;") {
		t.Errorf("content not escaped:\n%s", data)
	}
}

func TestExportCommand_Stdout(t *testing.T) {
	backend := testutil.NewBackend(t)
	cfgPath := writeConfig(t, backend.URL)

	code, out, _ := run(t, cli.NewDispatcher(nil, nil), "export", "--config", cfgPath, "--date", "2026-10-19")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") || !strings.Contains(out, "暂无任务") {
		t.Errorf("unexpected export:\n%s", out)
	}
}
