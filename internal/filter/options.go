package filter

import (
	"sort"
	"time"

	"github.com/ignite/phish-metrics/internal/domain"
)

// Options are the selectable values for the filter controls, derived from
// an unfiltered result set.
type Options struct {
	// FirstSendDay and LastSendDay bound the observed send dates (UTC days).
	// Both are nil when no row was ever sent.
	FirstSendDay *time.Time     `json:"first_send_day"`
	LastSendDay  *time.Time     `json:"last_send_day"`
	Positions    []string       `json:"positions"`
	Templates    []string       `json:"templates"`
	Statuses     []string       `json:"statuses"`
	ReportModes  []ReportFilter `json:"report_modes"`
}

// OptionsFor collects the filter choices for rows. Positions are sorted;
// templates and statuses keep first-seen order.
func OptionsFor(rows []domain.ResultRow) Options {
	opts := Options{
		Positions:   []string{},
		Templates:   []string{},
		Statuses:    []string{},
		ReportModes: ReportModes,
	}

	seenPos := make(map[string]bool)
	seenTpl := make(map[string]bool)
	seenStatus := make(map[string]bool)

	for i := range rows {
		r := &rows[i]
		if r.SendDate != nil {
			day := dayStart(r.SendDate.UTC())
			if opts.FirstSendDay == nil || day.Before(*opts.FirstSendDay) {
				d := day
				opts.FirstSendDay = &d
			}
			if opts.LastSendDay == nil || day.After(*opts.LastSendDay) {
				d := day
				opts.LastSendDay = &d
			}
		}
		if p := r.PositionGroup(); !seenPos[p] {
			seenPos[p] = true
			opts.Positions = append(opts.Positions, p)
		}
		if r.TemplateName != nil && !seenTpl[*r.TemplateName] {
			seenTpl[*r.TemplateName] = true
			opts.Templates = append(opts.Templates, *r.TemplateName)
		}
		if s := string(r.Status); !seenStatus[s] {
			seenStatus[s] = true
			opts.Statuses = append(opts.Statuses, s)
		}
	}

	sort.Strings(opts.Positions)
	return opts
}

// Defaults returns the initial criteria for opts: the full observed date
// range, every position selected, no template/status restriction.
func (o Options) Defaults() Criteria {
	c := Criteria{Report: ReportBoth}
	if o.FirstSendDay != nil {
		c.Start = *o.FirstSendDay
	}
	if o.LastSendDay != nil {
		c.End = *o.LastSendDay
	}
	c.Groups = append([]string(nil), o.Positions...)
	return c
}
