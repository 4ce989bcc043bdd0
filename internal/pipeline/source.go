package pipeline

import (
	"context"
	"fmt"

	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

// Source produces a full dataset for one run.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Batch, error)
}

// Batch is what a source hands to the pipeline.
type Batch struct {
	Dataset   *datanorm.Dataset
	Campaigns int
}

// CampaignFetcher is satisfied by *gophish.Client.
type CampaignFetcher interface {
	Campaigns(ctx context.Context) ([]domain.CampaignRecord, error)
}

// GophishSource fetches campaigns live and flattens them.
type GophishSource struct {
	client    CampaignFetcher
	flattener *datanorm.Flattener
}

// NewGophishSource creates a live source.
func NewGophishSource(client CampaignFetcher, workers int) *GophishSource {
	return &GophishSource{client: client, flattener: datanorm.NewFlattener(workers)}
}

func (s *GophishSource) Name() string { return config.SourceGophish }

// Load fetches every campaign and flattens the full set.
func (s *GophishSource) Load(ctx context.Context) (*Batch, error) {
	campaigns, err := s.client.Campaigns(ctx)
	if err != nil {
		return nil, err
	}
	ds, err := s.flattener.Flatten(campaigns)
	if err != nil {
		return nil, err
	}
	return &Batch{Dataset: ds, Campaigns: len(campaigns)}, nil
}

// SnapshotSource reads an already flattened dataset.
type SnapshotSource struct {
	store snapshot.Store
}

// NewSnapshotSource creates a source over a snapshot store.
func NewSnapshotSource(store snapshot.Store) *SnapshotSource {
	return &SnapshotSource{store: store}
}

func (s *SnapshotSource) Name() string { return config.SourceSnapshot }

// Load reads the stored snapshot.
func (s *SnapshotSource) Load(ctx context.Context) (*Batch, error) {
	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Batch{Dataset: ds, Campaigns: countCampaigns(ds)}, nil
}

func countCampaigns(ds *datanorm.Dataset) int {
	seen := make(map[int64]struct{})
	for i := range ds.Results {
		seen[ds.Results[i].CampaignID] = struct{}{}
	}
	for i := range ds.Events {
		seen[ds.Events[i].CampaignID] = struct{}{}
	}
	return len(seen)
}

// NewSource builds the source cfg.Source.Type selects. store backs the
// snapshot source and may be nil for a live source.
func NewSource(cfg *config.Config, fetcher CampaignFetcher, store snapshot.Store) (Source, error) {
	switch cfg.Source.Type {
	case config.SourceGophish:
		if fetcher == nil {
			return nil, fmt.Errorf("gophish source requires a client")
		}
		return NewGophishSource(fetcher, cfg.Pipeline.Workers), nil
	case config.SourceSnapshot:
		if store == nil {
			return nil, fmt.Errorf("snapshot source requires a store")
		}
		return NewSnapshotSource(store), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", cfg.Source.Type)
	}
}
