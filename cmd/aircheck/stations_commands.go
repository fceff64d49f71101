package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aircheck/internal/ipc"
)

func newStationsCommand(ctx *commandContext) *cobra.Command {
	stationsCmd := &cobra.Command{
		Use:     "stations",
		Aliases: []string{"station"},
		Short:   "Manage radio stations",
	}

	stationsCmd.AddCommand(newStationsAddCommand(ctx))
	stationsCmd.AddCommand(newStationsListCommand(ctx))
	stationsCmd.AddCommand(newStationsShowCommand(ctx))
	stationsCmd.AddCommand(newStationsTestCommand(ctx))

	return stationsCmd
}

func newStationsAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var timezone string

	cmd := &cobra.Command{
		Use:   "add <call-letters> <stream-url>",
		Short: "Register a new station",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callLetters := strings.TrimSpace(args[0])
			streamURL := strings.TrimSpace(args[1])
			if callLetters == "" || streamURL == "" {
				return errors.New("call letters and stream URL are required")
			}
			stationName := strings.TrimSpace(name)
			if stationName == "" {
				stationName = callLetters
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StationAdd(ipc.StationAddRequest{
					Name:        stationName,
					CallLetters: callLetters,
					StreamURL:   streamURL,
					Timezone:    strings.TrimSpace(timezone),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added station %s (id %d)\n",
					resp.Station.CallLetters, resp.Station.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the call letters)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for the station's schedule (defaults to local)")
	return cmd
}

func newStationsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered stations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StationList()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if len(resp.Stations) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stations registered")
					return nil
				}

				rows := make([][]string, 0, len(resp.Stations))
				for _, station := range resp.Stations {
					rows = append(rows, []string{
						fmt.Sprintf("%d", station.ID),
						station.CallLetters,
						station.Name,
						station.Compatibility,
						dash(station.RecommendedBackend),
						formatAPITime(station.LastTestedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Call", "Name", "Compatibility", "Backend", "Last Tested"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output stations as JSON")
	return cmd
}

func newStationsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <station>",
		Short: "Show one station and its recent test attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StationDescribe(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				station := resp.Station
				fmt.Fprintf(stdout, "Station %s (id %d)\n", station.CallLetters, station.ID)
				fmt.Fprintf(stdout, "  Name:           %s\n", station.Name)
				fmt.Fprintf(stdout, "  Stream URL:     %s\n", station.StreamURL)
				fmt.Fprintf(stdout, "  Timezone:       %s\n", dash(station.Timezone))
				fmt.Fprintf(stdout, "  Compatibility:  %s\n", station.Compatibility)
				fmt.Fprintf(stdout, "  Backend:        %s\n", dash(station.RecommendedBackend))
				fmt.Fprintf(stdout, "  User agent:     %s\n", dash(station.RecommendedUserAgent))
				fmt.Fprintf(stdout, "  Last tested:    %s\n", formatAPITime(station.LastTestedAt))

				if len(resp.RecentTests) == 0 {
					return nil
				}
				fmt.Fprintln(stdout)
				rows := make([][]string, 0, len(resp.RecentTests))
				for _, test := range resp.RecentTests {
					outcome := "fail"
					if test.Success {
						outcome = "ok"
					}
					rows = append(rows, []string{
						formatAPITime(test.TestedAt),
						test.Backend,
						dash(test.UserAgent),
						outcome,
						dash(test.Detail),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Tested", "Backend", "User Agent", "Result", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the station as JSON")
	return cmd
}

func newStationsTestCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "test [station]",
		Short: "Run the stream compatibility tester",
		Long: "Run the stream compatibility tester against one station, or with --all " +
			"against every station not currently known compatible. The tester records " +
			"a short probe with each backend and user-agent combination and persists " +
			"the working pair onto the station.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) > 0 {
				ref = strings.TrimSpace(args[0])
			}
			if ref == "" && !all {
				return errors.New("provide a station or pass --all")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Test(ref)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Verdicts) == 0 {
					fmt.Fprintln(stdout, "No stations needed testing")
					return nil
				}
				for _, verdict := range resp.Verdicts {
					if verdict.Compatible {
						agent := ""
						if verdict.UserAgent != "" {
							agent = fmt.Sprintf(" (user agent %q)", verdict.UserAgent)
						}
						fmt.Fprintf(stdout, "Station %d compatible via %s%s after %d attempts\n",
							verdict.StationID, verdict.Backend, agent, verdict.Attempts)
						continue
					}
					fmt.Fprintf(stdout, "Station %d incompatible after %d attempts: %s\n",
						verdict.StationID, verdict.Attempts, verdict.Failure)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Test every station not known compatible")
	return cmd
}
