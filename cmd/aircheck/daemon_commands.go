package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aircheck/internal/daemonctl"
	"aircheck/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the aircheck daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{
					SocketPath: ctx.socketPath(),
					ConfigPath: ctx.configPath(),
				},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the aircheck daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time, killed (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, statusResp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Aircheck", statusOK, fmt.Sprintf("Running (pid %d)", statusResp.PID), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Aircheck", statusWarn, "Not running (run `aircheck start`)", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, statusResp.DBPath, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Capture Backends", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, dep := range statusResp.Dependencies {
				kind := statusOK
				detail := dep.Path
				if !dep.Available {
					kind = statusWarn
					detail = dep.Detail
				}
				fmt.Fprintln(stdout, renderStatusLine(dep.Name, kind, detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Catalog", colorize) {
				fmt.Fprintln(stdout, line)
			}
			summary := statusResp.Summary
			fmt.Fprintln(stdout, renderStatusLine("Stations", statusInfo, fmt.Sprintf("%d", summary.Stations), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Shows", statusInfo, fmt.Sprintf("%d (%d active)", summary.Shows, summary.ActiveShows), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Recordings", statusInfo, fmt.Sprintf("%d (%s)", summary.Recordings, formatBytes(summary.StoredBytes)), colorize))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "db-health",
		Short: "Show database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(stdout, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(stdout, "Database readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(stdout, "Tables present: %s\n", yesNo(health.TablesPresent))
				if len(health.MissingTables) > 0 {
					fmt.Fprintf(stdout, "Missing tables: %v\n", health.MissingTables)
				}
				fmt.Fprintf(stdout, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(stdout, "Total recordings: %d\n", health.TotalRecordings)
				if health.Error != "" {
					fmt.Fprintf(stdout, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}
