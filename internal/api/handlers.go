package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/kpi"
	"github.com/ignite/phish-metrics/internal/pipeline"
	"github.com/ignite/phish-metrics/internal/pkg/httputil"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
)

// DatasetProvider is satisfied by *pipeline.Pipeline.
type DatasetProvider interface {
	Current() (*pipeline.State, error)
	Refresh(ctx context.Context) (*pipeline.State, error)
	SourceName() string
}

// RunLister is satisfied by *postgres.ArchiveRepo.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	data DatasetProvider
	runs RunLister
	hub  *RunHub

	refreshLimiter *rate.Limiter
}

// NewHandlers creates handlers. runs may be nil when the archive is off.
func NewHandlers(data DatasetProvider, runs RunLister) *Handlers {
	return &Handlers{data: data, runs: runs}
}

// SetRefreshLimit allows perMinute manual refreshes per minute, one at a
// time. Zero or less removes the limit.
func (h *Handlers) SetRefreshLimit(perMinute int) {
	if perMinute <= 0 {
		h.refreshLimiter = nil
		return
	}
	h.refreshLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// SetRunHub enables GET /api/stream. Call before building routes.
func (h *Handlers) SetRunHub(hub *RunHub) {
	h.hub = hub
}

// state returns the current dataset or writes 503.
func (h *Handlers) state(w http.ResponseWriter) (*pipeline.State, bool) {
	st, err := h.data.Current()
	if errors.Is(err, pipeline.ErrNotReady) {
		httputil.ErrorWithCode(w, http.StatusServiceUnavailable, "not_ready", "dataset not loaded yet")
		return nil, false
	}
	if err != nil {
		httputil.InternalError(w, err)
		return nil, false
	}
	return st, true
}

// view filters the current dataset by the request's query.
func (h *Handlers) view(w http.ResponseWriter, r *http.Request) (*pipeline.View, bool) {
	st, ok := h.state(w)
	if !ok {
		return nil, false
	}
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, "invalid_criteria", err.Error())
		return nil, false
	}
	return pipeline.Analyze(st.Dataset, c), true
}

// GetDataset returns the current run's metadata.
//
//	GET /api/dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	httputil.OK(w, map[string]interface{}{
		"run":     st.Run,
		"source":  h.data.SourceName(),
		"results": len(st.Dataset.Results),
		"events":  len(st.Dataset.Events),
	})
}

// GetOptions returns the filter choices and their defaults.
//
//	GET /api/options
func (h *Handlers) GetOptions(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	httputil.OK(w, map[string]interface{}{
		"options":  st.Options,
		"defaults": toCriteriaJSON(st.Options.Defaults()),
	})
}

// GetResults returns the filtered result rows. count is the number of
// matching rows; page and limit select a slice of them.
//
//	GET /api/results?start=&end=&group=&template=&status=&reported=&page=&limit=
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	body := map[string]interface{}{
		"criteria": toCriteriaJSON(v.Criteria),
		"count":    len(v.Rows),
	}
	body["rows"] = pageOf(r, v.Rows, body)
	httputil.OK(w, body)
}

// GetEvents returns timeline rows, optionally for one campaign.
//
//	GET /api/events?campaign_id=&page=&limit=
func (h *Handlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	rows := st.Dataset.Events
	if v := r.URL.Query().Get("campaign_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.BadRequest(w, "campaign_id must be an integer")
			return
		}
		rows = make([]domain.EventRow, 0)
		for _, e := range st.Dataset.Events {
			if e.CampaignID == id {
				rows = append(rows, e)
			}
		}
	}
	if rows == nil {
		rows = []domain.EventRow{}
	}
	body := map[string]interface{}{"count": len(rows)}
	body["rows"] = pageOf(r, rows, body)
	httputil.OK(w, body)
}

// GetFunnel returns the funnel over the filtered rows, by stage and in
// chart order.
//
//	GET /api/funnel
func (h *Handlers) GetFunnel(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	httputil.OK(w, map[string]interface{}{
		"criteria": toCriteriaJSON(v.Criteria),
		"total":    len(v.Rows),
		"stages":   v.Funnel.Stages,
		"display":  v.Funnel.Display(),
	})
}

// GetGroups returns the per-position KPI table over the filtered rows.
//
//	GET /api/groups
func (h *Handlers) GetGroups(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	rows := v.Groups.Rows
	if rows == nil {
		rows = []kpi.GroupKPIs{}
	}
	httputil.OK(w, map[string]interface{}{
		"criteria": toCriteriaJSON(v.Criteria),
		"columns":  v.Groups.Columns,
		"rows":     rows,
	})
}

// GetPositions returns the recipient distribution by position.
//
//	GET /api/positions
func (h *Handlers) GetPositions(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	positions := v.Positions
	if positions == nil {
		positions = []kpi.PositionShare{}
	}
	httputil.OK(w, map[string]interface{}{
		"criteria":  toCriteriaJSON(v.Criteria),
		"positions": positions,
	})
}

// GetRuns lists archived runs.
//
//	GET /api/runs?limit=
func (h *Handlers) GetRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httputil.NotFound(w, "run archive not enabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	httputil.OK(w, map[string]interface{}{"runs": runs})
}

// Refresh recomputes the dataset from the source and replaces it.
//
//	POST /api/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refreshLimiter != nil && !h.refreshLimiter.Allow() {
		httputil.ErrorWithCode(w, http.StatusTooManyRequests, "rate_limited", "refresh requested too often")
		return
	}
	st, err := h.data.Refresh(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRefreshInProgress):
		httputil.Conflict(w, "refresh already in progress")
		return
	case errors.Is(err, domain.ErrMalformedInput):
		logger.Error("[api] refresh rejected malformed input", "error", err.Error())
		httputil.ErrorWithCode(w, http.StatusBadGateway, "malformed_input", err.Error())
		return
	case err != nil:
		logger.Error("[api] refresh failed", "error", err.Error())
		httputil.ErrorWithCode(w, http.StatusBadGateway, "refresh_failed", refreshErrorMessage(err))
		return
	}
	httputil.OK(w, map[string]interface{}{"run": st.Run})
}

// ExportResults downloads every result row.
//
//	GET /api/export/results.csv
func (h *Handlers) ExportResults(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	httputil.CSV(w, "results.csv", func(w http.ResponseWriter) error {
		return datanorm.WriteResults(w, st.Dataset.Results)
	})
}

// ExportEvents downloads every event row.
//
//	GET /api/export/events.csv
func (h *Handlers) ExportEvents(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w)
	if !ok {
		return
	}
	httputil.CSV(w, "events.csv", func(w http.ResponseWriter) error {
		return datanorm.WriteEvents(w, st.Dataset.Events)
	})
}

// ExportFilteredResults downloads the details view of the filtered rows.
//
//	GET /api/export/filtered_results.csv
func (h *Handlers) ExportFilteredResults(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	httputil.CSV(w, "filtered_results.csv", func(w http.ResponseWriter) error {
		return datanorm.WriteDetails(w, v.Rows)
	})
}
