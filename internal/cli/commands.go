package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"daycal/internal/agenda"
	"daycal/internal/api"
	"daycal/internal/calendar"
	"daycal/internal/exitcode"
	"daycal/internal/logging"
	"daycal/internal/task"
)

func (e *env) logOptions() logging.Options {
	return logging.Options{
		Level:  e.cfg.LogLevel,
		Format: e.cfg.LogFormat,
		Prefix: "daycal",
	}
}

// day is the --date value, or today.
func (e *env) day() time.Time {
	if e.date.IsZero() {
		return calendar.StartOfDay(time.Now())
	}
	return e.date
}

func (d *Dispatcher) service(e *env) (api.Service, bool) {
	svc, err := d.factory(e.cfg)
	if err != nil {
		fmt.Fprintf(e.errOut, "error: %v\n", err)
		return nil, false
	}
	return svc, true
}

func (d *Dispatcher) runTUI(ctx context.Context, e *env, _ []string) int {
	svc, ok := d.service(e)
	if !ok {
		return exitcode.UserError
	}

	logger, f, err := logging.OpenFile(e.cfg.LogFile, e.logOptions())
	if err != nil {
		fmt.Fprintf(e.errOut, "warning: %v; logging disabled\n", err)
		logger = logging.Discard()
	} else {
		defer f.Close()
	}
	logger.Info("starting", "server", e.cfg.ServerURL, "version", Version)

	if err := d.runUI(ctx, svc, e.cfg, logger, e.date); err != nil {
		logger.Error("ui exited", "err", err)
		fmt.Fprintf(e.errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

func (d *Dispatcher) runList(ctx context.Context, e *env, _ []string) int {
	svc, ok := d.service(e)
	if !ok {
		return exitcode.UserError
	}
	logger := logging.New(e.errOut, e.logOptions())

	date := e.day()
	tasks, ok := fetchDay(ctx, svc, logger, e, date)
	if !ok {
		return exitcode.BackendError
	}
	if err := agenda.WriteText(e.out, date, tasks); err != nil {
		fmt.Fprintf(e.errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

func (d *Dispatcher) runExport(ctx context.Context, e *env, _ []string) int {
	svc, ok := d.service(e)
	if !ok {
		return exitcode.UserError
	}
	logger := logging.New(e.errOut, e.logOptions())

	date := e.day()
	tasks, ok := fetchDay(ctx, svc, logger, e, date)
	if !ok {
		return exitcode.BackendError
	}

	var w io.Writer = e.out
	if e.opts.out != "" {
		f, err := os.Create(e.opts.out)
		if err != nil {
			fmt.Fprintf(e.errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		defer f.Close()
		w = f
	}
	if err := agenda.WriteHTML(w, date, tasks); err != nil {
		fmt.Fprintf(e.errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if e.opts.out != "" {
		logger.Info("exported agenda", "date", calendar.FormatDate(date), "tasks", len(tasks), "file", e.opts.out)
	}
	return exitcode.Success
}

func fetchDay(ctx context.Context, svc api.Service, logger *log.Logger, e *env, date time.Time) ([]task.Task, bool) {
	tasks, err := svc.ListTasks(ctx, date)
	if err != nil {
		logger.Error("list tasks failed", "date", calendar.FormatDate(date), "err", err)
		fmt.Fprintf(e.errOut, "error: backend error: %v\n", err)
		return nil, false
	}
	return tasks, true
}
