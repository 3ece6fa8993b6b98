//go:build linux

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/procmon/pkg/monitor"
	"github.com/ja7ad/procmon/pkg/system/proc"
	"github.com/ja7ad/procmon/pkg/ui"
)

type opts struct {
	// sampling
	interval   time.Duration
	samples    int
	ema        float64
	hideKernel bool
	parallel   int

	// sources
	procRoot  string
	osRelease string
	passwd    string

	// output
	once     bool
	jsonOut  bool
	limit    int
	sort     string
	logLevel string
	logFile  string
}

func main() {
	var o opts
	defaults := proc.DefaultPaths()

	root := &cobra.Command{
		Use:   "procmon",
		Short: "Interactive Linux process and system monitor",
		Long: `procmon reads /proc and shows system CPU and memory utilization, uptime,
kernel and OS name, and a live table of processes with their CPU rate,
lifetime CPU average, resident memory, elapsed time, owner and command line.

Rates need two samples, so the first frame shows "-" until one interval has
passed.

Examples:
  procmon
  procmon --once --sort mem --limit 15
  procmon --json --samples 10 -i 500ms | jq .system.cpu_utilization
  procmon --proc-root /mnt/snapshot/proc --once`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().DurationVarP(&o.interval, "interval", "i", envDuration("PROCMON_INTERVAL", time.Second), "refresh interval (e.g. 1s, 500ms)")
	root.Flags().IntVarP(&o.samples, "samples", "s", 0, "number of frames to emit with --json (0 = run until Ctrl-C)")
	root.Flags().Float64Var(&o.ema, "ema", 0, "EMA alpha for system CPU smoothing (0 disables, (0,1) smooths)")
	root.Flags().BoolVar(&o.hideKernel, "hide-kernel", false, "hide kernel threads")
	root.Flags().IntVar(&o.parallel, "parallel", 0, "max processes sampled concurrently (0 = 2x CPUs)")

	root.Flags().StringVar(&o.procRoot, "proc-root", defaults.Root, "procfs mount point")
	root.Flags().StringVar(&o.osRelease, "os-release", defaults.OSRelease, "os-release file")
	root.Flags().StringVar(&o.passwd, "passwd", defaults.Passwd, "passwd file used to resolve user names")

	root.Flags().BoolVar(&o.once, "once", false, "print one table and exit")
	root.Flags().BoolVar(&o.jsonOut, "json", false, "write frames as newline-delimited JSON")
	root.Flags().IntVarP(&o.limit, "limit", "n", 0, "max process rows (0 = all)")
	root.Flags().StringVar(&o.sort, "sort", string(ui.SortCPU), "sort key: cpu, mem, pid or time")
	root.Flags().StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.Flags().StringVar(&o.logFile, "log-file", "", "write logs to this file (interactive mode discards logs otherwise)")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	if o.interval < monitor.MinRateWindow {
		return fmt.Errorf("interval must be >= %s", monitor.MinRateWindow)
	}
	if o.ema < 0 || o.ema > 1 {
		return fmt.Errorf("ema must be in [0,1]")
	}
	if o.once && o.jsonOut {
		return errors.New("--once and --json are mutually exclusive")
	}
	key, err := ui.ParseSortKey(o.sort)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(o)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	fs := proc.NewFS(proc.Paths{Root: o.procRoot, OSRelease: o.osRelease, Passwd: o.passwd})
	mon := monitor.New(fs,
		monitor.WithLogger(logger),
		monitor.WithEMA(o.ema),
		monitor.WithHideKernel(o.hideKernel),
		monitor.WithParallel(o.parallel),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case o.once:
		return runOnce(ctx, mon, o.interval, key, o.limit)
	case o.jsonOut:
		return runJSON(ctx, mon, o.interval, key, o.limit, o.samples)
	default:
		return ui.Run(ctx, mon, o.interval, ui.Config{Sort: key, Limit: o.limit})
	}
}

// runOnce takes two polls one interval apart so rates are populated, then
// prints a table.
func runOnce(ctx context.Context, mon *monitor.Monitor, interval time.Duration, key ui.SortKey, limit int) error {
	if _, err := mon.Poll(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(interval):
	}
	f, err := mon.Poll(ctx)
	if err != nil {
		return err
	}

	fmt.Println(ui.Header(f.System, 20))
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	titles := make([]string, 0, len(ui.Columns))
	for _, c := range ui.Columns {
		titles = append(titles, c.Title)
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	for _, r := range ui.Rows(f.Rows, key, limit) {
		fmt.Fprintln(tw, strings.Join(ui.FormatRow(r), "\t"))
	}
	return tw.Flush()
}

func runJSON(ctx context.Context, mon *monitor.Monitor, interval time.Duration, key ui.SortKey, limit, samples int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	n := 0
	for f := range mon.Stream(ctx, interval) {
		f.Rows = ui.Rows(f.Rows, key, limit)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
		n++
		if samples > 0 && n >= samples {
			return nil
		}
	}
	slog.Info("interrupted", "frames", n)
	return nil
}

// newLogger writes text logs to stderr, or to --log-file. The TUI owns the
// terminal, so interactive mode without a log file discards logs.
func newLogger(o opts) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log-level: %w", err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log-file: %w", err)
		}
		w, closeFn = f, func() { _ = f.Close() }
	case !o.once && !o.jsonOut:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
