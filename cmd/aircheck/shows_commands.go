package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aircheck/internal/ipc"
)

func newShowsCommand(ctx *commandContext) *cobra.Command {
	showsCmd := &cobra.Command{
		Use:     "shows",
		Aliases: []string{"show"},
		Short:   "Manage scheduled shows",
	}

	showsCmd.AddCommand(newShowsAddCommand(ctx))
	showsCmd.AddCommand(newShowsListCommand(ctx))
	showsCmd.AddCommand(newShowsSetActiveCommand(ctx, "enable", true))
	showsCmd.AddCommand(newShowsSetActiveCommand(ctx, "disable", false))

	return showsCmd
}

func newShowsAddCommand(ctx *commandContext) *cobra.Command {
	var pattern string
	var duration int
	var retentionDays int
	var ttlUnit string

	cmd := &cobra.Command{
		Use:   "add <station> <name>",
		Short: "Register a new show under a station",
		Long: "Register a new show. The schedule pattern is a 5-field cron-like " +
			"expression (minute hour * * day-of-week); leave it empty for shows " +
			"that are only recorded on demand.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[1])
			if name == "" {
				return errors.New("show name is required")
			}
			if strings.TrimSpace(pattern) != "" && duration <= 0 {
				return errors.New("scheduled shows need --duration")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ShowAdd(ipc.ShowAddRequest{
					Station:         strings.TrimSpace(args[0]),
					Name:            name,
					SchedulePattern: strings.TrimSpace(pattern),
					DurationMinutes: duration,
					RetentionDays:   retentionDays,
					TTLUnit:         strings.TrimSpace(ttlUnit),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added show %q (id %d)\n", resp.Show.Name, resp.Show.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pattern, "schedule", "", "Cron-like schedule pattern, e.g. \"0 9 * * 1-5\"")
	cmd.Flags().IntVar(&duration, "duration", 0, "Show length in minutes")
	cmd.Flags().IntVar(&retentionDays, "retention", 30, "Default retention value for new recordings")
	cmd.Flags().StringVar(&ttlUnit, "ttl-unit", "days", "Retention unit: days, weeks, months, or indefinite")
	return cmd
}

func newShowsListCommand(ctx *commandContext) *cobra.Command {
	var station string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ShowList(strings.TrimSpace(station))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if len(resp.Shows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No shows registered")
					return nil
				}

				rows := make([][]string, 0, len(resp.Shows))
				for _, show := range resp.Shows {
					retention := fmt.Sprintf("%d %s", show.RetentionDays, show.TTLUnit)
					if show.TTLUnit == "indefinite" {
						retention = "indefinite"
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", show.ID),
						show.Name,
						dash(show.SchedulePattern),
						formatDurationMinutes(show.DurationMinutes),
						retention,
						yesNo(show.Active),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Schedule", "Duration", "Retention", "Active"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&station, "station", "", "Only shows for this station (id or call letters)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output shows as JSON")
	return cmd
}

func newShowsSetActiveCommand(ctx *commandContext, verb string, active bool) *cobra.Command {
	short := "Enable scheduled recording for a show"
	if !active {
		short = "Disable scheduled recording for a show"
	}
	return &cobra.Command{
		Use:   verb + " <show>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ShowSetActive(strings.TrimSpace(args[0]), active)
				if err != nil {
					return err
				}
				state := "enabled"
				if !resp.Show.Active {
					state = "disabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Show %q %s\n", resp.Show.Name, state)
				return nil
			})
		},
	}
}
