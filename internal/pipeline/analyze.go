package pipeline

import (
	"github.com/ignite/phish-metrics/internal/datanorm"
	"github.com/ignite/phish-metrics/internal/domain"
	"github.com/ignite/phish-metrics/internal/filter"
	"github.com/ignite/phish-metrics/internal/kpi"
)

// View is everything derived from one filter selection.
type View struct {
	Criteria  filter.Criteria
	Rows      []domain.ResultRow
	Funnel    kpi.Funnel
	Groups    kpi.GroupTable
	Positions []kpi.PositionShare
}

// Analyze filters the result rows and aggregates the subset.
func Analyze(ds *datanorm.Dataset, c filter.Criteria) *View {
	rows := filter.Apply(ds.Results, c)
	return &View{
		Criteria:  c,
		Rows:      rows,
		Funnel:    kpi.ComputeFunnel(rows),
		Groups:    kpi.ComputeGroupTable(rows),
		Positions: kpi.PositionCounts(rows),
	}
}
