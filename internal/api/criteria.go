package api

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ignite/phish-metrics/internal/filter"
)

// parseCriteria reads the filter query parameters. Membership parameters
// repeat (?group=Sales&group=IT) since position labels may contain commas.
func parseCriteria(q url.Values) (filter.Criteria, error) {
	var c filter.Criteria
	var err error

	if v := q.Get("start"); v != "" {
		if c.Start, err = filter.ParseDay(v); err != nil {
			return c, err
		}
	}
	if v := q.Get("end"); v != "" {
		if c.End, err = filter.ParseDay(v); err != nil {
			return c, err
		}
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.Start.After(c.End) {
		return c, fmt.Errorf("%w: start is after end", filter.ErrInvalidCriteria)
	}

	c.Groups = q["group"]
	c.Templates = q["template"]
	c.Statuses = q["status"]

	if c.Report, err = filter.ParseReportFilter(q.Get("reported")); err != nil {
		return c, err
	}
	return c, nil
}

// criteriaJSON echoes the applied criteria back to the client.
type criteriaJSON struct {
	Start     string              `json:"start,omitempty"`
	End       string              `json:"end,omitempty"`
	Groups    []string            `json:"groups,omitempty"`
	Templates []string            `json:"templates,omitempty"`
	Statuses  []string            `json:"statuses,omitempty"`
	Reported  filter.ReportFilter `json:"reported"`
}

func toCriteriaJSON(c filter.Criteria) criteriaJSON {
	out := criteriaJSON{
		Start:     formatDay(c.Start),
		End:       formatDay(c.End),
		Groups:    c.Groups,
		Templates: c.Templates,
		Statuses:  c.Statuses,
		Reported:  c.Report,
	}
	if out.Reported == "" {
		out.Reported = filter.ReportBoth
	}
	return out
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(filter.DayLayout)
}
