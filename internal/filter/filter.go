// Package filter narrows a flattened result set by the dashboard's criteria:
// send-date range, position group, template, status and report state.
//
// Every criterion is optional and they combine with AND. Filtering is a
// pure, stable operation: the input slice and its rows are never modified
// and surviving rows keep their relative order.
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/ignite/phish-metrics/internal/domain"
)

// ReportFilter selects rows by their reported flag.
type ReportFilter string

const (
	ReportBoth        ReportFilter = "Both"
	ReportReported    ReportFilter = "Reported"
	ReportNotReported ReportFilter = "Not Reported"
)

// ReportModes lists the report filter choices in display order.
var ReportModes = []ReportFilter{ReportBoth, ReportReported, ReportNotReported}

// ErrInvalidCriteria is returned when a criterion value cannot be parsed.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// ParseReportFilter maps a user-supplied mode to a ReportFilter. The empty
// string means Both.
func ParseReportFilter(s string) (ReportFilter, error) {
	if s == "" {
		return ReportBoth, nil
	}
	for _, m := range ReportModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: report filter %q", ErrInvalidCriteria, s)
}

// DayLayout is the calendar-day format accepted for date bounds.
const DayLayout = "2006-01-02"

// ParseDay parses a calendar day in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidCriteria, s)
	}
	return t, nil
}

// Criteria is the set of filters applied to a result set. Zero values are
// no-ops: a zero Start or End leaves that side of the range open, empty
// sets accept every value, and an empty Report behaves like ReportBoth.
type Criteria struct {
	// Start and End are calendar days; only their date part is used. End is
	// inclusive of the whole day.
	Start time.Time
	End   time.Time

	Groups    []string
	Templates []string
	Statuses  []string
	Report    ReportFilter
}

// HasDateRange reports whether either date bound is set. When it is, rows
// that were never sent are excluded.
func (c Criteria) HasDateRange() bool {
	return !c.Start.IsZero() || !c.End.IsZero()
}

// Apply returns the rows of in that satisfy every criterion, in input order.
func Apply(in []domain.ResultRow, c Criteria) []domain.ResultRow {
	m := newMatcher(c)
	out := make([]domain.ResultRow, 0, len(in))
	for i := range in {
		if m.match(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

type matcher struct {
	dated     bool
	from      time.Time
	until     time.Time
	hasFrom   bool
	hasUntil  bool
	groups    map[string]bool
	templates map[string]bool
	statuses  map[string]bool
	report    ReportFilter
}

func newMatcher(c Criteria) *matcher {
	m := &matcher{
		dated:     c.HasDateRange(),
		groups:    toSet(c.Groups),
		templates: toSet(c.Templates),
		statuses:  toSet(c.Statuses),
		report:    c.Report,
	}
	if !c.Start.IsZero() {
		m.from = dayStart(c.Start)
		m.hasFrom = true
	}
	if !c.End.IsZero() {
		m.until = dayStart(c.End).AddDate(0, 0, 1)
		m.hasUntil = true
	}
	return m
}

func (m *matcher) match(r *domain.ResultRow) bool {
	if m.dated {
		if r.SendDate == nil {
			return false
		}
		if m.hasFrom && r.SendDate.Before(m.from) {
			return false
		}
		if m.hasUntil && !r.SendDate.Before(m.until) {
			return false
		}
	}
	if m.groups != nil && !m.groups[r.PositionGroup()] {
		return false
	}
	if m.templates != nil && (r.TemplateName == nil || !m.templates[*r.TemplateName]) {
		return false
	}
	if m.statuses != nil && !m.statuses[string(r.Status)] {
		return false
	}
	switch m.report {
	case ReportReported:
		return r.Reported
	case ReportNotReported:
		return !r.Reported
	}
	return true
}

// toSet returns nil for an empty slice so that "no criterion" is cheap to test.
func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	s := make(map[string]bool, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}

func dayStart(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
