// Package pipeline runs a source through normalization and holds the
// current dataset. Each refresh recomputes from a full snapshot and
// replaces the previous state wholesale; readers never see a partial run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/filter"
	"github.com/ignite/phish-metrics/internal/pkg/distlock"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

var (
	// ErrNotReady is returned before the first successful refresh.
	ErrNotReady = errors.New("dataset not loaded yet")
	// ErrRefreshInProgress is returned when another instance holds the refresh lock.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// DefaultRefreshTimeout bounds one shared refresh run.
const DefaultRefreshTimeout = 10 * time.Minute

// Archiver persists a finished run. Satisfied by *postgres.ArchiveRepo.
type Archiver interface {
	SaveRun(ctx context.Context, run domain.Run, ds *datanorm.Dataset) error
}

// State is an immutable result of one run. Handlers share it read-only.
type State struct {
	Run     domain.Run
	Dataset *datanorm.Dataset
	Options filter.Options
}

// Pipeline owns the current State.
type Pipeline struct {
	source  Source
	sink    snapshot.Store
	archive Archiver
	lock    distlock.DistLock
	now     func() time.Time
	timeout time.Duration
	notify  []func(domain.Run)

	group   singleflight.Group
	mu      sync.RWMutex
	current *State
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSnapshotSink writes every successful run's dataset to store.
func WithSnapshotSink(store snapshot.Store) Option {
	return func(p *Pipeline) { p.sink = store }
}

// WithArchive records every successful run.
func WithArchive(a Archiver) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithLock guards refreshes across instances.
func WithLock(l distlock.DistLock) Option {
	return func(p *Pipeline) { p.lock = l }
}

// WithNotifier calls fn with every run that becomes current.
func WithNotifier(fn func(domain.Run)) Option {
	return func(p *Pipeline) { p.notify = append(p.notify, fn) }
}

// WithRefreshTimeout overrides DefaultRefreshTimeout. Non-positive values
// keep the default.
func WithRefreshTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline reading from source.
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		lock:    distlock.NoopLock{},
		now:     time.Now,
		timeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SourceName reports which source feeds the pipeline.
func (p *Pipeline) SourceName() string { return p.source.Name() }

// Current returns the latest State.
func (p *Pipeline) Current() (*State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil, ErrNotReady
	}
	return p.current, nil
}

// Refresh loads a full dataset and swaps it in. Concurrent callers in the
// same process share one run. The run is detached from any single caller:
// a caller whose ctx ends gets ctx.Err() while the run carries on for the
// others, bounded by the refresh timeout.
func (p *Pipeline) Refresh(ctx context.Context) (*State, error) {
	ch := p.group.DoChan("refresh", func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		return p.refresh(runCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("[pipeline] joined in-flight refresh")
		}
		return res.Val.(*State), nil
	}
}

func (p *Pipeline) refresh(ctx context.Context) (*State, error) {
	ok, err := p.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return nil, ErrRefreshInProgress
	}
	defer func() {
		if err := p.lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("[pipeline] release refresh lock failed", "error", err.Error())
		}
	}()

	run := domain.Run{
		ID:        uuid.New(),
		Source:    p.source.Name(),
		StartedAt: p.now().UTC(),
	}
	logger.Info("[pipeline] run started", "run_id", run.ID.String(), "source", run.Source)

	batch, err := p.source.Load(ctx)
	if err != nil {
		logger.Error("[pipeline] run failed", "run_id", run.ID.String(), "error", err.Error())
		return nil, fmt.Errorf("run %s: load from %s: %w", run.ID, run.Source, err)
	}

	ds := batch.Dataset
	run.FinishedAt = p.now().UTC()
	run.Campaigns = batch.Campaigns
	run.Results = len(ds.Results)
	run.Events = len(ds.Events)

	state := &State{
		Run:     run,
		Dataset: ds,
		Options: filter.OptionsFor(ds.Results),
	}

	// Persistence is best effort; the fetched dataset is served either way.
	if p.sink != nil {
		if err := p.sink.Save(ctx, ds); err != nil {
			logger.Warn("[pipeline] snapshot save failed", "run_id", run.ID.String(), "error", err.Error())
		}
	}
	if p.archive != nil {
		if err := p.archive.SaveRun(ctx, run, ds); err != nil {
			logger.Warn("[pipeline] archive failed", "run_id", run.ID.String(), "error", err.Error())
		}
	}

	p.mu.Lock()
	p.current = state
	p.mu.Unlock()

	logger.Info("[pipeline] run finished",
		"run_id", run.ID.String(),
		"campaigns", run.Campaigns,
		"results", run.Results,
		"events", run.Events,
		"duration", run.Duration().String())

	for _, fn := range p.notify {
		fn(run)
	}
	return state, nil
}
