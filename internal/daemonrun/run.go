// Package daemonrun wires configuration, storage, and the background
// services into a running daemon process. The CLI's hidden `daemon`
// command is its only caller.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"aircheck/internal/capture"
	"aircheck/internal/config"
	"aircheck/internal/daemon"
	"aircheck/internal/housekeeping"
	"aircheck/internal/ipc"
	"aircheck/internal/logging"
	"aircheck/internal/notifications"
	"aircheck/internal/preflight"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/scheduler"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel   string
	SocketPath string
}

// Run starts the aircheck daemon runtime loop and blocks until the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("aircheck-%s.log", runID))

	logger, err := logging.New(logging.Options{
		Level:            opts.LogLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update aircheck.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "aircheck-*.log", Exclude: []string{logPath}},
	)

	if err := writePIDFile(cfg.PIDFilePath()); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PIDFilePath())

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	logPreflightSnapshot(signalCtx, logger, cfg, st)

	registry := capture.NewRegistry(cfg)
	notifier := notifications.NewService(cfg)

	runner := recorder.New(cfg, st, registry,
		recorder.WithLogger(logger),
		recorder.WithNotifier(notifier))
	tester := streamtest.New(cfg, st, registry,
		streamtest.WithLogger(logger),
		streamtest.WithNotifier(notifier))
	housekeeper := housekeeping.New(cfg, st,
		housekeeping.WithLogger(logger),
		housekeeping.WithNotifier(notifier))
	ttl := retention.New(cfg, st,
		retention.WithLogger(logger),
		retention.WithNotifier(notifier))
	sched := scheduler.New(cfg, st, runner, tester, housekeeper, ttl,
		scheduler.WithLogger(logger),
		scheduler.WithLogPruner(func(context.Context) {
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
				logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "aircheck-*.log", Exclude: []string{logPath}},
			)
		}))

	d, err := daemon.New(cfg, st, logger, logPath, daemon.Components{
		Recorder:    runner,
		Tester:      tester,
		Housekeeper: housekeeper,
		Retention:   ttl,
		Scheduler:   sched,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("aircheck daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "aircheck.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflightSnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store) {
	if logger == nil {
		return
	}
	results := preflight.RunAll(ctx, cfg, st)
	for _, result := range results {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.Bool("passed", result.Passed),
		}
		if result.Detail != "" {
			attrs = append(attrs, logging.String("detail", result.Detail))
		}
		if result.Passed {
			logger.Debug("preflight check", logging.Args(attrs...)...)
		} else {
			logger.Warn("preflight check failed", logging.Args(attrs...)...)
		}
	}
	if preflight.Healthy(results) {
		logger.Info("preflight checks passed", logging.Int("checks", len(results)))
	}
}
