package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ichi0g0y/ql-label-printer/internal/env"
	"github.com/ichi0g0y/ql-label-printer/internal/history"
	"github.com/ichi0g0y/ql-label-printer/internal/localdb"
	"github.com/ichi0g0y/ql-label-printer/internal/settings"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/logger"
	"github.com/ichi0g0y/ql-label-printer/internal/shared/paths"
	"github.com/ichi0g0y/ql-label-printer/internal/status"
	"go.uber.org/zap"
)

// errLabelsFailed is returned when at least one label of a batch did not print.
var errLabelsFailed = errors.New("some labels failed to print")

// errUsage means the arguments were wrong; the usage text was already printed.
var errUsage = errors.New("usage error")

type app struct {
	ctx     context.Context
	stdout  io.Writer
	stderr  io.Writer
	sm      *settings.SettingsManager
	history *history.Store
}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"print", "compose labels and send them to the printer", runPrint},
	{"preview", "compose a label and write it as PNG", runPreview},
	{"batch", "print up to 10 labels from a CSV file (qr,text,copies)", runBatch},
	{"templates", "list label templates", runTemplates},
	{"settings", "show or update persisted settings (KEY=VALUE ...)", runSettings},
	{"history", "show recently printed labels", runHistory},
	{"printers", "list CUPS print queues", runPrinters},
	{"version", "print version information", runVersion},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("labelprint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataDir := fs.String("data-dir", "", "data directory (default: XDG data home)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := findCommand(fs.Arg(0))
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return 2
	}

	logger.Init(*debug)
	defer logger.Sync()

	if *dataDir != "" {
		paths.SetDataDir(*dataDir)
	}

	a, cleanup, err := bootstrap(ctx, *debug, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "labelprint: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := cmd.run(a, fs.Args()[1:]); err != nil {
		switch {
		case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
			return 2
		case errors.Is(err, errLabelsFailed):
			return 1
		}
		logger.Debug("Command failed", zap.String("command", cmd.name), zap.Error(err))
		fmt.Fprintf(stderr, "labelprint %s: %v\n", cmd.name, err)
		return 1
	}
	return 0
}

// bootstrap opens the data dir, database, settings and configuration.
func bootstrap(ctx context.Context, debug bool, stdout, stderr io.Writer) (*app, func(), error) {
	if err := paths.EnsureDataDirs(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure data directories: %w", err)
	}

	db, err := localdb.SetupDB(paths.GetDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup database: %w", err)
	}
	cleanup := func() {
		status.Reset()
		_ = localdb.Close()
	}

	sm := settings.NewSettingsManager(db)

	// env.LoadEnv must run after DB initialization.
	if err := env.LoadEnv(sm); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if env.Value.DebugMode || debug || env.Value.LogFile != "" {
		logger.InitWithFile(debug || env.Value.DebugMode, logger.FileOptions{Path: env.Value.LogFile})
		logger.Debug("Debug mode enabled", zap.String("dataDir", paths.GetDataDir()))
	}

	status.RegisterPrinterStatusChangeCallback(func(connected bool) {
		logger.Debug("Printer connection changed", zap.Bool("connected", connected))
	})

	return &app{
		ctx:     ctx,
		stdout:  stdout,
		stderr:  stderr,
		sm:      sm,
		history: history.NewStore(db, paths.GetOutputDir()),
	}, cleanup, nil
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: labelprint [global flags] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	fs.PrintDefaults()
}
