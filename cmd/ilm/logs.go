package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var logsList bool

var logsCmd = &cobra.Command{
	Use:   "logs <profile> [launch-id]",
	Short: "Show game output of a launch",
	Long: `Show the captured game output of a launch.

Without a launch id the most recent launch is shown. With --list, the stored
logs are listed instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsList, "list", "l", false, "list stored logs")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
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

	entries, err := service.Logs().List(p.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if logsList {
		if len(entries) == 0 {
			fmt.Fprintf(out, "No logs for %s.\n", p.Metadata.Name)
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LAUNCH\tMODIFIED\tSIZE")
		fmt.Fprintln(w, "------\t--------\t----")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.LaunchID, humanize.Time(e.ModTime), humanize.Bytes(uint64(e.Size)))
		}
		return w.Flush()
	}

	var path string
	if len(args) == 2 {
		if _, err := uuid.Parse(args[1]); err != nil {
			return fmt.Errorf("%w: invalid launch id %q", domain.ErrInput, args[1])
		}
		path = service.Logs().Path(p.Path, args[1])
	} else if len(entries) > 0 {
		path = entries[0].Path
	} else {
		return fmt.Errorf("no logs for %s", p.Metadata.Name)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(out, f)
	return err
}
