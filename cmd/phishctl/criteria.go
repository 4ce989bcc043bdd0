package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/filter"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

// criteriaFlags are the filter flags shared by the reporting commands.
type criteriaFlags struct {
	start     string
	end       string
	groups    []string
	templates []string
	statuses  []string
	reported  string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "First send day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last send day to include (YYYY-MM-DD)")
	cmd.Flags().StringArrayVarP(&f.groups, "group", "g", nil, "Position to include (repeatable)")
	cmd.Flags().StringArrayVarP(&f.templates, "template", "t", nil, "Template name to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.statuses, "status", nil, "Status to include (repeatable)")
	cmd.Flags().StringVar(&f.reported, "reported", string(filter.ReportBoth), "Both, Reported or \"Not Reported\"")
}

func (f *criteriaFlags) criteria() (filter.Criteria, error) {
	var c filter.Criteria
	var err error
	if f.start != "" {
		if c.Start, err = filter.ParseDay(f.start); err != nil {
			return c, err
		}
	}
	if f.end != "" {
		if c.End, err = filter.ParseDay(f.end); err != nil {
			return c, err
		}
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End) {
		return c, fmt.Errorf("%w: --start is after --end", filter.ErrInvalidCriteria)
	}
	c.Groups = f.groups
	c.Templates = f.templates
	c.Statuses = f.statuses
	if c.Report, err = filter.ParseReportFilter(f.reported); err != nil {
		return c, err
	}
	return c, nil
}

// loadSnapshot reads a dataset from dir, or from the configured snapshot
// store when dir is empty.
func loadSnapshot(ctx context.Context, dir string) (*datanorm.Dataset, error) {
	if dir != "" {
		return snapshot.NewLocalStore(dir).Load(ctx)
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := snapshot.New(ctx, cfg.Snapshot)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx)
}
