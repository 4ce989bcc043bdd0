// Package snapshot persists normalized datasets as a pair of CSV files
// (results.csv and events.csv) on local disk or S3, optionally fronted by
// a Redis cache.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/datanorm"
)

// File names inside a snapshot location.
const (
	ResultsFile = "results.csv"
	EventsFile  = "events.csv"
)

// ErrNotFound is returned when no snapshot exists at the configured location.
var ErrNotFound = errors.New("snapshot not found")

// Store loads and saves a complete dataset. Saves replace the previous
// snapshot in full.
type Store interface {
	Load(ctx context.Context) (*datanorm.Dataset, error)
	Save(ctx context.Context, ds *datanorm.Dataset) error
}

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Type {
	case config.StorageLocal, "":
		return NewLocalStore(cfg.LocalPath), nil
	case config.StorageS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown snapshot storage type: %q", cfg.Type)
	}
}

// encode renders both CSV files into memory.
func encode(ds *datanorm.Dataset) (results, events []byte, err error) {
	var rb, eb bytes.Buffer
	if err := datanorm.WriteResults(&rb, ds.Results); err != nil {
		return nil, nil, fmt.Errorf("encoding results: %w", err)
	}
	if err := datanorm.WriteEvents(&eb, ds.Events); err != nil {
		return nil, nil, fmt.Errorf("encoding events: %w", err)
	}
	return rb.Bytes(), eb.Bytes(), nil
}

func decode(results, events []byte) (*datanorm.Dataset, error) {
	rows, err := datanorm.ReadResults(bytes.NewReader(results))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ResultsFile, err)
	}
	evs, err := datanorm.ReadEvents(bytes.NewReader(events))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EventsFile, err)
	}
	return &datanorm.Dataset{Results: rows, Events: evs}, nil
}
