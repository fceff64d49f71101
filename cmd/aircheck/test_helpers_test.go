package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aircheck/internal/capture"
	"aircheck/internal/config"
	"aircheck/internal/daemon"
	"aircheck/internal/housekeeping"
	"aircheck/internal/ipc"
	"aircheck/internal/logging"
	"aircheck/internal/recorder"
	"aircheck/internal/retention"
	"aircheck/internal/scheduler"
	"aircheck/internal/store"
	"aircheck/internal/streamtest"
	"aircheck/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	logPath    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "aircheck-test.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	registry := capture.NewRegistry(cfg)
	runner := recorder.New(cfg, st, registry, recorder.WithLogger(logger))
	tester := streamtest.New(cfg, st, registry, streamtest.WithLogger(logger))
	housekeeper := housekeeping.New(cfg, st, housekeeping.WithLogger(logger))
	ttl := retention.New(cfg, st, retention.WithLogger(logger))
	sched := scheduler.New(cfg, st, runner, tester, housekeeper, ttl, scheduler.WithLogger(logger))

	d, err := daemon.New(cfg, st, logger, logPath, daemon.Components{
		Recorder:    runner,
		Tester:      tester,
		Housekeeper: housekeeper,
		Retention:   ttl,
		Scheduler:   sched,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlibrary_dir = %q\ntest_dir = %q\nlog_dir = %q\ndatabase_dir = %q\n\n"+
			"[backends]\nstreamripper = %q\nwget = %q\nffmpeg = %q\n",
		cfg.Paths.LibraryDir,
		cfg.Paths.TestDir,
		cfg.Paths.LogDir,
		cfg.Paths.DatabaseDir,
		cfg.Backends.Streamripper,
		cfg.Backends.Wget,
		cfg.Backends.FFmpeg,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, needle string) {
	t.Helper()
	if !strings.Contains(output, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, output)
	}
}
