package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignite/phish-metrics/internal/pipeline"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Print the awareness funnel for a snapshot",
	Long:  "Filters the result rows of a snapshot and prints the five funnel stages with their counts and percentage of emails sent, largest first.",
	RunE:  runFunnel,
}

var (
	funnelSnapshotDir string
	funnelJSON        bool
	funnelFlags       criteriaFlags
)

func init() {
	funnelCmd.Flags().StringVarP(&funnelSnapshotDir, "snapshot", "s", "", "Snapshot directory (defaults to the configured snapshot store)")
	funnelCmd.Flags().BoolVar(&funnelJSON, "json", false, "Print JSON instead of a table")
	funnelFlags.register(funnelCmd)

	rootCmd.AddCommand(funnelCmd)
}

func runFunnel(cmd *cobra.Command, _ []string) error {
	c, err := funnelFlags.criteria()
	if err != nil {
		return err
	}
	ds, err := loadSnapshot(cmd.Context(), funnelSnapshotDir)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	view := pipeline.Analyze(ds, c)
	out := cmd.OutOrStdout()
	if funnelJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view.Funnel)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tCOUNT\tPERCENT")
	for _, s := range view.Funnel.Display() {
		fmt.Fprintf(tw, "%s\t%d\t%d%%\n", s.Label, s.Count, s.Percent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d results matched\n", len(view.Rows), len(ds.Results))
	return nil
}
