package datanorm

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/pkg/logger"
)

// Flattener turns campaign records into the two flat row sets. With more
// than one worker, campaigns are flattened concurrently; the output is
// identical to the sequential path.
type Flattener struct {
	workers int
}

// NewFlattener returns a Flattener using up to workers goroutines.
// workers <= 1 flattens sequentially.
func NewFlattener(workers int) *Flattener {
	if workers < 1 {
		workers = 1
	}
	return &Flattener{workers: workers}
}

// campaignRows is the flattened output of a single campaign.
type campaignRows struct {
	results []domain.ResultRow
	events  []domain.EventRow
	err     error
}

// Flatten converts campaigns into a Dataset. A campaign missing its id or a
// recipient email fails the whole call; no partial dataset is returned.
func (f *Flattener) Flatten(campaigns []domain.CampaignRecord) (*Dataset, error) {
	parts := make([]campaignRows, len(campaigns))

	if f.workers == 1 || len(campaigns) < 2 {
		for i := range campaigns {
			parts[i] = flattenCampaign(&campaigns[i])
			if parts[i].err != nil {
				return nil, parts[i].err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(f.workers)
		for i := range campaigns {
			g.Go(func() error {
				parts[i] = flattenCampaign(&campaigns[i])
				return nil
			})
		}
		_ = g.Wait()
		// Report the first failure in input order, not completion order.
		for i := range parts {
			if parts[i].err != nil {
				return nil, parts[i].err
			}
		}
	}

	nResults, nEvents := 0, 0
	for i := range parts {
		nResults += len(parts[i].results)
		nEvents += len(parts[i].events)
	}

	ds := &Dataset{
		Results: make([]domain.ResultRow, 0, nResults),
		Events:  make([]domain.EventRow, 0, nEvents),
	}
	for i := range parts {
		ds.Results = append(ds.Results, parts[i].results...)
		ds.Events = append(ds.Events, parts[i].events...)
	}

	logger.Debug("[datanorm] flattened campaigns",
		"campaigns", len(campaigns), "results", nResults, "events", nEvents)
	return ds, nil
}

func flattenCampaign(c *domain.CampaignRecord) campaignRows {
	if err := c.Validate(); err != nil {
		return campaignRows{err: fmt.Errorf("flatten: %w", err)}
	}

	corr := NewTimelineCorrelator(c.Timeline)
	templateID := c.TemplateID()
	templateName := c.TemplateName()

	out := campaignRows{
		results: make([]domain.ResultRow, 0, len(c.Results)),
		events:  make([]domain.EventRow, 0, len(c.Timeline)),
	}

	for _, r := range c.Results {
		derived := corr.Lookup(r.Email)
		out.results = append(out.results, domain.ResultRow{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			TemplateID:   templateID,
			TemplateName: templateName,
			Status:       r.Status,
			IP:           r.IP,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			SendDate:     derived.SendDate,
			Reported:     derived.Reported,
			ModifiedDate: derived.ModifiedDate,
			Email:        r.Email,
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Position:     r.Position,
		})
	}

	for _, e := range c.Timeline {
		out.events = append(out.events, domain.EventRow{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			TemplateID:   templateID,
			TemplateName: templateName,
			Email:        e.Email,
			Time:         e.Time,
			Message:      e.Message,
			Details:      e.Details,
		})
	}
	return out
}
