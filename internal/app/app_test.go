package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/config"
	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pipeline"
	"github.com/ignite/phish-metrics/internal/repository/postgres"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func seedSnapshot(t *testing.T, dir string) {
	t.Helper()
	sent := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	ds := &datanorm.Dataset{
		Results: []domain.ResultRow{
			{CampaignID: 1, CampaignName: "Q1", Status: domain.StatusClicked, SendDate: &sent, Email: "a@x.com", Position: "Sales"},
			{CampaignID: 2, CampaignName: "Q2", Status: domain.StatusSent, SendDate: &sent, Email: "b@x.com", Position: "IT"},
		},
		Events: []domain.EventRow{
			{CampaignID: 1, CampaignName: "Q1", Email: "a@x.com", Time: sent, Message: domain.StatusSent},
		},
	}
	require.NoError(t, snapshot.NewLocalStore(dir).Save(context.Background(), ds))
}

func TestBuild_SnapshotSourceWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	seedSnapshot(t, dir)

	cfg := loadConfig(t, fmt.Sprintf(`
source:
  type: snapshot
snapshot:
  type: local
  local_path: %q
cache:
  redis_url: "redis://%s"
  ttl_seconds: 60
`, dir, mr.Addr()))

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Redis)
	assert.Nil(t, a.Archive)
	assert.Equal(t, config.SourceSnapshot, a.Pipeline.SourceName())

	_, err = a.Pipeline.Current()
	assert.ErrorIs(t, err, pipeline.ErrNotReady)

	state, err := a.Pipeline.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, state.Run.Campaigns)
	assert.Equal(t, 2, state.Run.Results)
	assert.Equal(t, 1, state.Run.Events)

	assert.True(t, mr.Exists("phish:snapshot:current"))
	ttl := mr.TTL("phish:snapshot:current")
	assert.Equal(t, 60*time.Second, ttl)
}

func TestBuild_GophishSourceSavesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/campaigns/", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 7, "name": "Live",
			"results": [{"email": "a@x.com", "status": "Email Sent", "position": "HR"}],
			"timeline": [{"email": "a@x.com", "time": "2024-03-04T09:00:00Z", "message": "Email Sent"}]}]`))
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := loadConfig(t, fmt.Sprintf(`
gophish:
  base_url: %q
  api_key: k
snapshot:
  type: local
  local_path: %q
  save_on_refresh: true
`, server.URL, dir))

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	state, err := a.Pipeline.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, state.Dataset.Results, 1)
	assert.Equal(t, "HR", state.Dataset.Results[0].Position)
	require.NotNil(t, state.Dataset.Results[0].SendDate)

	saved, err := snapshot.NewLocalStore(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, saved.Results, 1)
	assert.Len(t, saved.Events, 1)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := loadConfig(t, `
source:
  type: gophish
`)
	cfg.Gophish.APIKey = ""
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuild_RedisUnavailableContinues(t *testing.T) {
	dir := t.TempDir()
	seedSnapshot(t, dir)
	cfg := loadConfig(t, fmt.Sprintf(`
source:
  type: snapshot
snapshot:
  local_path: %q
cache:
  redis_url: "redis://127.0.0.1:1"
`, dir))

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Redis)
	_, err = a.Pipeline.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestRunRefresher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	seedSnapshot(t, dir)
	cfg := loadConfig(t, fmt.Sprintf(`
source:
  type: snapshot
snapshot:
  local_path: %q
`, dir))
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunRefresher(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := a.Pipeline.Current()
		return err == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestPruneArchive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := &App{
		Config:  &config.Config{Pipeline: config.PipelineConfig{ArchiveKeep: 5}},
		Archive: postgres.NewArchiveRepo(db),
	}
	mock.ExpectExec("DELETE FROM phish_runs").WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 2))
	a.PruneArchive(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())

	// keep of 0 disables pruning entirely
	a.Config.Pipeline.ArchiveKeep = 0
	a.PruneArchive(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
