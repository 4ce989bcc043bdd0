// Package postgres archives normalized runs in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
)

// ErrNoRuns is returned when the archive is empty.
var ErrNoRuns = errors.New("no archived runs")

// RunsChannel is the NOTIFY channel that carries each archived run as JSON.
// Postgres delivers it on commit, so listeners never see a rolled-back run.
const RunsChannel = "phish_runs"

var resultColumns = []string{
	"run_id", "campaign_id", "campaign_name", "template_id", "template_name", "status", "ip",
	"latitude", "longitude", "send_date", "reported", "modified_date",
	"email", "first_name", "last_name", "position",
}

var eventColumns = []string{
	"run_id", "campaign_id", "campaign_name", "template_id", "template_name",
	"email", "time", "message", "details",
}

const schema = `
CREATE TABLE IF NOT EXISTS phish_runs (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL,
	campaigns    INTEGER NOT NULL,
	results      INTEGER NOT NULL,
	events       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS phish_result_rows (
	run_id        UUID NOT NULL REFERENCES phish_runs(id) ON DELETE CASCADE,
	campaign_id   BIGINT NOT NULL,
	campaign_name TEXT NOT NULL,
	template_id   BIGINT,
	template_name TEXT,
	status        TEXT NOT NULL,
	ip            TEXT NOT NULL,
	latitude      DOUBLE PRECISION,
	longitude     DOUBLE PRECISION,
	send_date     TIMESTAMPTZ,
	reported      BOOLEAN NOT NULL,
	modified_date TIMESTAMPTZ,
	email         TEXT NOT NULL,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	position      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS phish_event_rows (
	run_id        UUID NOT NULL REFERENCES phish_runs(id) ON DELETE CASCADE,
	campaign_id   BIGINT NOT NULL,
	campaign_name TEXT NOT NULL,
	template_id   BIGINT,
	template_name TEXT,
	email         TEXT NOT NULL,
	time          TIMESTAMPTZ NOT NULL,
	message       TEXT NOT NULL,
	details       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_phish_runs_started ON phish_runs (started_at DESC);
CREATE INDEX IF NOT EXISTS idx_phish_result_rows_run ON phish_result_rows (run_id);
CREATE INDEX IF NOT EXISTS idx_phish_event_rows_run ON phish_event_rows (run_id);
`

// ArchiveRepo stores each run's rows under its run id.
type ArchiveRepo struct{ db *sql.DB }

// NewArchiveRepo creates a Postgres-backed run archive.
func NewArchiveRepo(db *sql.DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the archive tables if missing.
func (r *ArchiveRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// SaveRun writes the run header and all rows in one transaction, bulk
// loading rows with COPY.
func (r *ArchiveRepo) SaveRun(ctx context.Context, run domain.Run, ds *datanorm.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO phish_runs (id, source, started_at, finished_at, campaigns, results, events)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Source, run.StartedAt, run.FinishedAt, run.Campaigns, run.Results, run.Events)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	err = copyRows(ctx, tx, "phish_result_rows", resultColumns, len(ds.Results), func(i int) []interface{} {
		row := &ds.Results[i]
		return []interface{}{
			run.ID, row.CampaignID, row.CampaignName, row.TemplateID, row.TemplateName,
			string(row.Status), row.IP, row.Latitude, row.Longitude, row.SendDate,
			row.Reported, row.ModifiedDate, row.Email, row.FirstName, row.LastName, row.Position,
		}
	})
	if err != nil {
		return err
	}

	err = copyRows(ctx, tx, "phish_event_rows", eventColumns, len(ds.Events), func(i int) []interface{} {
		ev := &ds.Events[i]
		return []interface{}{
			run.ID, ev.CampaignID, ev.CampaignName, ev.TemplateID, ev.TemplateName,
			ev.Email, ev.Time, string(ev.Message), ev.Details,
		}
	})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, RunsChannel, string(payload)); err != nil {
		return fmt.Errorf("notify run %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	logger.Info("[archive] run saved", "run_id", run.ID.String(), "results", len(ds.Results), "events", len(ds.Events))
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, cols []string, n int, values func(i int) []interface{}) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, cols...))
	if err != nil {
		return fmt.Errorf("prepare copy %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, values(i)...); err != nil {
			return fmt.Errorf("copy %s row %d: %w", table, i, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy %s: %w", table, err)
	}
	return nil
}

const runColumns = `id, source, started_at, finished_at, campaigns, results, events`

// LatestRun returns the most recent archived run.
func (r *ArchiveRepo) LatestRun(ctx context.Context) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM phish_runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns archived runs, newest first.
func (r *ArchiveRepo) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM phish_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// PruneRuns deletes all but the newest keep runs; rows cascade.
func (r *ArchiveRepo) PruneRuns(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM phish_runs
		WHERE id NOT IN (SELECT id FROM phish_runs ORDER BY started_at DESC LIMIT $1)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*domain.Run, error) {
	var run domain.Run
	var id string
	if err := s.Scan(&id, &run.Source, &run.StartedAt, &run.FinishedAt,
		&run.Campaigns, &run.Results, &run.Events); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, err)
	}
	run.ID = parsed
	return &run, nil
}
