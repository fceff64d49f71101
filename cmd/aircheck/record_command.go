package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aircheck/internal/ipc"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "record <show>",
		Short: "Start an on-demand recording session",
		Long: "Start an on-demand recording session for a show in the running " +
			"daemon. The session runs in the background for the show's scheduled " +
			"duration unless --duration overrides it; a session already in flight " +
			"for the same show is rejected, not queued.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Record(strings.TrimSpace(args[0]), duration)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Started {
					fmt.Fprintf(stdout, "Recording not started: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, resp.Message)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 0, "Session length in minutes (defaults to the show's duration)")
	return cmd
}
