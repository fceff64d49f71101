package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aircheck/internal/config"
	"aircheck/internal/ipc"
)

func newRecordingsCommand(ctx *commandContext) *cobra.Command {
	recordingsCmd := &cobra.Command{
		Use:     "recordings",
		Aliases: []string{"recording"},
		Short:   "Manage stored recordings",
	}

	recordingsCmd.AddCommand(newRecordingsListCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsRemoveCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsImportCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsExtendCommand(ctx))
	recordingsCmd.AddCommand(newRecordingsSetTTLCommand(ctx))

	return recordingsCmd
}

func newRecordingsListCommand(ctx *commandContext) *cobra.Command {
	var show string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingList(strings.TrimSpace(show))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if len(resp.Recordings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recordings stored")
					return nil
				}

				rows := make([][]string, 0, len(resp.Recordings))
				for _, rec := range resp.Recordings {
					expires := "never"
					if rec.ExpiresAt != "" {
						expires = formatAPITime(rec.ExpiresAt)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", rec.ID),
						rec.Filename,
						formatAPITime(rec.RecordedAt),
						formatDurationSeconds(rec.DurationSeconds),
						formatBytes(rec.FileSizeBytes),
						rec.SourceType,
						expires,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Filename", "Recorded", "Duration", "Size", "Source", "Expires"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "Only recordings for this show (id or name)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output recordings as JSON")
	return cmd
}

func newRecordingsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a recording and its artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingRemove(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed recording %d, reclaimed %s\n",
					id, formatBytes(resp.ReclaimedBytes))
				return nil
			})
		},
	}
}

func newRecordingsImportCommand(ctx *commandContext) *cobra.Command {
	var recordedAt string
	var ttlValue int
	var ttlUnit string

	cmd := &cobra.Command{
		Use:   "import <show> <file>",
		Short: "Copy an external audio file into the library",
		Long: "Copy an external audio file into the recording library under the " +
			"given show. The copy is verified end to end before a recording row " +
			"references it; the original file is left in place.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath, err := config.ExpandPath(strings.TrimSpace(args[1]))
			if err != nil {
				return err
			}
			req := ipc.RecordingImportRequest{
				Show:       strings.TrimSpace(args[0]),
				SourcePath: sourcePath,
				RecordedAt: strings.TrimSpace(recordedAt),
			}
			if unit := strings.TrimSpace(ttlUnit); unit != "" {
				req.TTLValue = ttlValue
				req.TTLUnit = unit
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingImport(req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (id %d, %s)\n",
					resp.Recording.Filename, resp.Recording.ID, formatBytes(resp.Recording.FileSizeBytes))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recordedAt, "recorded-at", "", "Original recording time (RFC3339, defaults to the file's mtime)")
	cmd.Flags().IntVar(&ttlValue, "ttl", 0, "TTL override value")
	cmd.Flags().StringVar(&ttlUnit, "ttl-unit", "", "TTL override unit: days, weeks, months, or indefinite")
	return cmd
}

func newRecordingsExtendCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "extend <id>",
		Short: "Push a recording's expiry out by additional days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingExtend(id, days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recording %d now expires %s\n",
					id, formatAPITime(resp.ExpiresAt))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days to add to the current expiry")
	return cmd
}

func newRecordingsSetTTLCommand(ctx *commandContext) *cobra.Command {
	var value int
	var unit string
	var clear bool

	cmd := &cobra.Command{
		Use:   "set-ttl <id>",
		Short: "Pin or clear a per-recording TTL override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !clear && strings.TrimSpace(unit) == "" {
				return errors.New("provide --unit or pass --clear")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordingSetTTL(ipc.RecordingSetTTLRequest{
					ID:    id,
					Value: value,
					Unit:  strings.TrimSpace(unit),
					Clear: clear,
				})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.ExpiresAt == "" {
					fmt.Fprintf(stdout, "Recording %d never expires\n", id)
					return nil
				}
				fmt.Fprintf(stdout, "Recording %d expires %s\n", id, formatAPITime(resp.ExpiresAt))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&value, "value", 0, "TTL value")
	cmd.Flags().StringVar(&unit, "unit", "", "TTL unit: days, weeks, months, or indefinite")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the override, reverting to the show default")
	return cmd
}
