package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ignite/phish-metrics/internal/pipeline"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Print per-position KPIs for a snapshot",
	Long:  "Groups the filtered result rows by position and prints each group's stage counts, ordered by emails sent. With --positions, prints the position distribution instead.",
	RunE:  runGroups,
}

var (
	groupsSnapshotDir string
	groupsJSON        bool
	groupsPositions   bool
	groupsFlags       criteriaFlags
)

func init() {
	groupsCmd.Flags().StringVarP(&groupsSnapshotDir, "snapshot", "s", "", "Snapshot directory (defaults to the configured snapshot store)")
	groupsCmd.Flags().BoolVar(&groupsJSON, "json", false, "Print JSON instead of a table")
	groupsCmd.Flags().BoolVar(&groupsPositions, "positions", false, "Print the position distribution")
	groupsFlags.register(groupsCmd)

	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, _ []string) error {
	c, err := groupsFlags.criteria()
	if err != nil {
		return err
	}
	ds, err := loadSnapshot(cmd.Context(), groupsSnapshotDir)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	view := pipeline.Analyze(ds, c)
	out := cmd.OutOrStdout()
	if groupsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if groupsPositions {
			return enc.Encode(view.Positions)
		}
		return enc.Encode(view.Groups)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if groupsPositions {
		fmt.Fprintln(tw, "POSITION\tCOUNT\tSHARE")
		for _, p := range view.Positions {
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", p.Position, p.Count, p.Percent)
		}
		return tw.Flush()
	}

	header := []string{"POSITION"}
	for _, s := range view.Groups.Columns {
		header = append(header, string(s))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, g := range view.Groups.Rows {
		cells := []string{g.Group}
		for _, n := range g.Counts {
			cells = append(cells, fmt.Sprint(n))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
