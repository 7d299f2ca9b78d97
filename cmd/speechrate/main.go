// Command speechrate computes the mean speech rate of text-reading
// recordings per subject and publishes the report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	app "github.com/okian/speechrate/internal/app"
	"github.com/okian/speechrate/internal/config"
	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
	"github.com/okian/speechrate/pkg/metrics"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, so it can be tested.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("speechrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dir         = fs.String("dir", "", "Directory holding the recordings (default: data_dir from config)")
		subjects    = fs.String("subjects", "", "Comma separated subject ids (default: every subject in -dir)")
		transcripts = fs.String("transcripts", "", "Comma separated word CSVs; recomputes one subject without audio")
		out         = fs.String("out", "", "Report file name (default: report_name from config)")
		help        = fs.Bool("help", false, "Show help")
	)
	fs.Usage = func() { showHelp(fs) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *help {
		showHelp(fs)
		return exitOK
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitError
	}
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		fmt.Fprintln(stderr, "invalid log_format:", err)
		return exitError
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if *dir != "" {
		cfg.DataDir = *dir
	}
	if *out != "" {
		cfg.ReportName = *out
	}
	ids := splitList(*subjects)
	csvs := splitList(*transcripts)
	if len(csvs) > 0 && len(ids) != 1 {
		fmt.Fprintln(stderr, "-transcripts requires exactly one subject in -subjects")
		return exitUsage
	}

	svc, err := app.Build(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return exitError
	}

	if len(csvs) > 0 {
		_, err = svc.RatesFromTranscripts(ctx, ids[0], csvs)
		if errors.Is(err, model.ErrAggregationEmpty) {
			err = nil
		}
	} else {
		_, err = svc.ProcessDir(ctx, cfg.DataDir, ids...)
	}
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		return exitError
	}

	if err := svc.Publish(ctx); err != nil {
		log.Error(ctx, "failed to publish report", logger.Error(err))
		return exitError
	}

	stats := svc.GetStats(ctx)
	log.Info(ctx, "run complete",
		logger.Any("subjects", stats["subjects"]),
		logger.Any("workers", stats["workerCount"]),
		logger.Any("queue_size", stats["queueSize"]))

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn(ctx, "failed to write metrics", logger.String("path", cfg.MetricsFile), logger.Error(err))
		}
	}
	return exitOK
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func showHelp(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "Usage: speechrate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Normalizes, desilences and transcribes each recording, then writes")
	fmt.Fprintln(w, "the mean characters-per-second rate of every subject to a CSV report.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is read from $"+config.EnvFile+" (YAML) and "+config.EnvPrefix+"* variables.")
}
