package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackwatch/internal/config"
	"github.com/blackwell-systems/feedbackwatch/internal/output"
	"github.com/blackwell-systems/feedbackwatch/internal/watcher"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Alert on changes in the current week",
	Long: `Periodically recompute the current week from stored feedback and
alert when something changes that someone should act on: the negative
share crossing its threshold, new repeated complaints, a falling heat
index, new urgent action items or a new unresolved negative loop.

Examples:
  feedbackwatch watch                    # run in foreground (ctrl-c to stop)
  feedbackwatch watch --daemon           # run in background, write PID file
  feedbackwatch watch --interval 15m     # check every 15 minutes
  feedbackwatch watch --stop             # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "Check interval as duration string (default: watch.interval)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", true, "Send desktop notifications")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.close()

	interval := e.cfg.Watch.Interval
	if watchInterval != "" {
		interval, err = time.ParseDuration(watchInterval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
		}
	}
	if interval < 30*time.Second {
		return fmt.Errorf("interval must be at least 30s, got %s", interval)
	}

	svc, err := e.service()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	newWatcher := func(alertFn func(watcher.Alert)) *watcher.Watcher {
		w := watcher.New(svc, interval, alertFn)
		w.NegativeThreshold = e.cfg.Watch.NegativeThreshold
		w.HeatDrop = e.cfg.Watch.HeatDrop
		w.SetLogger(e.log)
		return w
	}

	if watchDaemon {
		return runDaemon(ctx, e.log, interval, newWatcher)
	}
	return runForeground(ctx, cmd.OutOrStdout(), interval, newWatcher)
}

// runForeground runs the watcher with live terminal output.
func runForeground(ctx context.Context, out io.Writer, interval time.Duration, newWatcher func(func(watcher.Alert)) *watcher.Watcher) error {
	if !watchQuiet {
		fmt.Fprintf(out, "feedbackwatch watching... (checking every %s)\n", interval)
	}

	w := newWatcher(func(a watcher.Alert) {
		if watchNotify {
			_ = watcher.Notify(a)
		}
		if !watchQuiet {
			printAlert(out, a)
		}
	})

	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}
	if !watchQuiet {
		fmt.Fprintf(out, "[%s] %s Week %s: %d entries, %.0f%% negative, heat %.0f\n",
			time.Now().Format("15:04:05"),
			output.StyleSuccess.Render(checkMark),
			initial.Week, initial.Total, initial.Negative, initial.HeatIndex)
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Fprintln(out, "\nStopped.")
		}
		return nil
	}
	return err
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(ctx context.Context, log *zap.Logger, interval time.Duration, newWatcher func(func(watcher.Alert)) *watcher.Watcher) error {
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file.
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	writeLog(logFile, "feedbackwatch daemon started (PID %d, interval %s)", pid, interval)
	log.Info("watch daemon started", zap.Int("pid", pid), zap.Duration("interval", interval))

	w := newWatcher(func(a watcher.Alert) {
		if watchNotify {
			_ = watcher.Notify(a)
		}
		writeLog(logFile, "[%s] %s: %s", a.Level, a.Title, a.Message)
	})

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		writeLog(logFile, "daemon stopped")
		return nil
	}
	return err
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// writeLog writes a timestamped line to the log file.
func writeLog(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s\n", timestamp, msg)
}

// printAlert formats an alert for the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	fmt.Fprintf(w, "[%s] %s %s\n", a.Time.Format("15:04:05"), alertIcon(a.Level), a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "         %s\n", a.Message)
	}
}

const checkMark = "✓"

// alertIcon returns the styled terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("●")
	case "warning":
		return output.StyleWarning.Render("⚠")
	case "info":
		return output.StyleSuccess.Render(checkMark)
	default:
		return " "
	}
}
