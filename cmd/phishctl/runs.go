package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignite/phish-metrics/internal/repository/postgres"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived pipeline runs",
	Long:  "Lists the runs recorded in the Postgres archive, newest first. Optionally prunes old runs.",
	RunE:  runRuns,
}

var (
	runsDatabaseURL string
	runsLimit       int
	runsKeep        int
)

func init() {
	runsCmd.Flags().StringVar(&runsDatabaseURL, "db-url", "", "Database URL (defaults to DATABASE_URL)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum runs to list")
	runsCmd.Flags().IntVar(&runsKeep, "prune-keep", 0, "Delete all but the newest N runs before listing")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if runsDatabaseURL == "" {
		runsDatabaseURL = os.Getenv("DATABASE_URL")
	}
	if runsDatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or use --db-url flag)")
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, runsDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	repo := postgres.NewArchiveRepo(db)

	out := cmd.OutOrStdout()
	if runsKeep > 0 {
		n, err := repo.PruneRuns(ctx, runsKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d runs\n", n)
	}

	runs, err := repo.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSOURCE\tSTARTED\tDURATION\tCAMPAIGNS\tRESULTS\tEVENTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Source, r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration().Round(time.Millisecond),
			r.Campaigns, r.Results, r.Events)
	}
	return tw.Flush()
}
