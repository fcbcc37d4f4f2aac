package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"daycal/internal/api"
	"daycal/internal/calendar"
	"daycal/internal/config"
	"daycal/internal/exitcode"
	"daycal/internal/ui"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

// ServiceFactory creates a Service from config.
type ServiceFactory func(cfg config.Config) (api.Service, error)

// UIRunner runs the interactive calendar until the user quits.
type UIRunner func(ctx context.Context, svc api.Service, cfg config.Config, logger *log.Logger, initial time.Time) error

// HTTPServiceFactory talks to the backend at cfg.ServerURL.
func HTTPServiceFactory(cfg config.Config) (api.Service, error) {
	return api.New(cfg.ServerURL, nil, time.Duration(cfg.TimeoutSeconds)*time.Second)
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	factory ServiceFactory
	runUI   UIRunner
}

// NewDispatcher creates a dispatcher. A nil factory or runner selects the
// HTTP client and the terminal UI.
func NewDispatcher(factory ServiceFactory, runUI UIRunner) *Dispatcher {
	if factory == nil {
		factory = HTTPServiceFactory
	}
	if runUI == nil {
		runUI = ui.Run
	}
	return &Dispatcher{factory: factory, runUI: runUI}
}

type command struct {
	name     string
	synopsis string
	usage    string
	flags    func(fs *flag.FlagSet, o *options)
	run      func(d *Dispatcher, ctx context.Context, e *env, args []string) int
}

// options holds every flag value; each command registers the ones it takes.
type options struct {
	configPath string
	date       string
	out        string
}

// env is what a command gets after flags and config are resolved.
type env struct {
	cfg    config.Config
	opts   options
	date   time.Time
	out    io.Writer
	errOut io.Writer
}

func commonFlags(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.configPath, "config", "", "")
	fs.StringVar(&o.date, "date", "", "")
}

var commands = []command{
	{
		name:     "tui",
		synopsis: "Open the interactive calendar (default)",
		usage:    "daycal [tui] [--config <path>] [--date YYYY-MM-DD]",
		flags:    commonFlags,
		run:      (*Dispatcher).runTUI,
	},
	{
		name:     "list",
		synopsis: "Print the tasks of a day",
		usage:    "daycal list [--config <path>] [--date YYYY-MM-DD]",
		flags:    commonFlags,
		run:      (*Dispatcher).runList,
	},
	{
		name:     "export",
		synopsis: "Write a day's tasks as an HTML page",
		usage:    "daycal export [--config <path>] [--date YYYY-MM-DD] [--out <file>]",
		flags: func(fs *flag.FlagSet, o *options) {
			commonFlags(fs, o)
			fs.StringVar(&o.out, "out", "", "")
			fs.StringVar(&o.out, "o", "", "")
		},
		run: (*Dispatcher).runExport,
	},
	{
		name:     "version",
		synopsis: "Print version",
		usage:    "daycal version",
		run: func(_ *Dispatcher, _ context.Context, e *env, _ []string) int {
			fmt.Fprintf(e.out, "daycal %s\n", Version)
			return exitcode.Success
		},
	},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No command, or flags only -> the interactive calendar
	name := "tui"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if name == "help" || (len(args) > 0 && (args[0] == "-h" || args[0] == "--help")) {
		writeUsage(out)
		return exitcode.Success
	}

	cmd, ok := findCommand(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts options
	if cmd.flags != nil {
		cmd.flags(fs, &opts)
	}
	if err := fs.Parse(args); err != nil {
		errStr := err.Error()
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", strings.TrimPrefix(errStr, "flag provided but not defined: "))
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return exitcode.UserError
	}
	if rest := fs.Args(); len(rest) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", rest[0])
		return exitcode.UserError
	}

	e := &env{opts: opts, out: out, errOut: errOut}
	if cmd.flags == nil {
		return cmd.run(d, ctx, e, nil)
	}

	if opts.date != "" {
		date, err := calendar.ParseDate(opts.date)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid date %q (want YYYY-MM-DD)\n", opts.date)
			return exitcode.UserError
		}
		e.date = date
	}

	path := opts.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	_, statErr := os.Stat(path)
	firstLaunch := errors.Is(statErr, os.ErrNotExist)
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(errOut, "error: load config %s: %v\n", path, err)
		return exitcode.UserError
	}
	if firstLaunch {
		fmt.Fprintf(errOut, "created default config at %s\n", path)
	}
	e.cfg = cfg
	return cmd.run(d, ctx, e, fs.Args())
}

func writeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-60s %s\n", c.usage, c.synopsis)
	}
	fmt.Fprintf(w, "  %-60s %s\n", "daycal help", "Show this help")
}
