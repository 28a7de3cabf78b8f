package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/DonovanMods/instance-launcher/internal/storage/db"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <profile>",
	Short: "Show recent launches of a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of launches to show (0 for all)")

	rootCmd.AddCommand(historyCmd)
}

type launchJSON struct {
	ID          string     `json:"id"`
	GameVersion string     `json:"game_version"`
	Java        string     `json:"java"`
	PID         int        `json:"pid"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	Killed      bool       `json:"killed"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}

	launches, err := service.History(ctx, p.Path, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		views := make([]launchJSON, 0, len(launches))
		for _, l := range launches {
			views = append(views, launchJSON{
				ID:          l.ID,
				GameVersion: l.GameVersion,
				Java:        l.JavaPath,
				PID:         l.PID,
				StartedAt:   l.StartedAt,
				EndedAt:     l.EndedAt,
				ExitCode:    l.ExitCode,
				Killed:      l.Killed,
			})
		}
		return printJSON(out, views)
	}

	if len(launches) == 0 {
		fmt.Fprintf(out, "%s has not been launched yet.\n", p.Metadata.Name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tVERSION\tDURATION\tRESULT")
	fmt.Fprintln(w, "-------\t-------\t--------\t------")
	for _, l := range launches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			l.StartedAt.Local().Format("2006-01-02 15:04:05"),
			l.GameVersion,
			launchDuration(l),
			launchResult(l),
		)
	}
	return w.Flush()
}

func launchDuration(l db.LaunchRecord) string {
	if l.EndedAt == nil {
		return "-"
	}
	return l.EndedAt.Sub(l.StartedAt).Round(time.Second).String()
}

func launchResult(l db.LaunchRecord) string {
	switch {
	case l.Killed:
		return colorYellow("killed")
	case l.ExitCode == nil:
		return "unknown"
	case *l.ExitCode == 0:
		return colorGreen("ok")
	default:
		return colorRed("exit " + strconv.Itoa(*l.ExitCode))
	}
}
