package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/caseatlas/caseatlas/internal/catalog"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect fetched snapshot history",
	Long:  "Commands for listing downloaded snapshots recorded in the catalog.",
}

// -- snapshots list --

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded snapshots, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck
		if err := cat.Migrate(ctx); err != nil {
			return err
		}

		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		snaps, err := cat.List(ctx, source, limit)
		if err != nil {
			return eris.Wrap(err, "snapshots list")
		}

		if len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "No snapshots recorded.")
			return nil
		}

		formatSnapshots(os.Stdout, snaps)
		return nil
	},
}

// -- snapshots latest --

var snapshotsLatestCmd = &cobra.Command{
	Use:   "latest <source>",
	Short: "Show the most recent snapshot of a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		defer cat.Close() //nolint:errcheck
		if err := cat.Migrate(ctx); err != nil {
			return err
		}

		snap, err := cat.Latest(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "snapshots latest")
		}
		if snap == nil {
			fmt.Fprintf(os.Stderr, "Source %q has never been fetched.\n", args[0])
			return nil
		}

		formatSnapshots(os.Stdout, []catalog.Snapshot{*snap})
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().String("source", "", "filter by source name")
	snapshotsListCmd.Flags().Int("limit", 50, "max number of snapshots to display")

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsLatestCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

// formatSnapshots writes a tabular list of snapshots to w.
func formatSnapshots(out io.Writer, snaps []catalog.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tFETCHED\tBYTES\tROWS\tSHA256")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t-----\t----\t------")

	for _, s := range snaps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			truncateID(s.ID),
			s.Source,
			s.FetchedAt.Format("2006-01-02 15:04"),
			s.Bytes,
			s.Rows,
			truncateID(s.SHA256),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of an identifier for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
