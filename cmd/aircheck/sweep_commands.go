package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aircheck/internal/ipc"
)

func newHousekeepingCommand(ctx *commandContext) *cobra.Command {
	housekeepingCmd := &cobra.Command{
		Use:   "housekeeping",
		Short: "Housekeeping utilities",
	}

	housekeepingCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove empty artifacts and orphaned recording rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HousekeepingSweep()
				if err != nil {
					return err
				}
				printSweepResult(cmd, "Housekeeping", resp.Result)
				return nil
			})
		},
	})

	return housekeepingCmd
}

func newRetentionCommand(ctx *commandContext) *cobra.Command {
	retentionCmd := &cobra.Command{
		Use:   "retention",
		Short: "Retention utilities",
	}

	retentionCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete recordings whose TTL has expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RetentionSweep()
				if err != nil {
					return err
				}
				printSweepResult(cmd, "Retention", resp.Result)
				return nil
			})
		},
	})

	return retentionCmd
}

func printSweepResult(cmd *cobra.Command, label string, result ipc.SweepResult) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "%s sweep removed %d files and %d rows, reclaimed %s\n",
		label, result.FilesRemoved, result.RecordsCleaned, formatBytes(result.ReclaimedBytes))
	if result.Errors > 0 {
		fmt.Fprintf(stdout, "%d items could not be processed; see the daemon log\n", result.Errors)
	}
}
