package kpi

import (
	"sort"

	"github.com/ignite/phish-metrics/internal/domain"
)

// GroupKPIs holds the cumulative stage counts of one position group.
// Counts is indexed like Stages.
type GroupKPIs struct {
	Group  string `json:"group"`
	Counts []int  `json:"counts"`
}

// Count returns the group's count for stage s.
func (g GroupKPIs) Count(s Stage) int {
	for i, st := range Stages {
		if st == s {
			return g.Counts[i]
		}
	}
	return 0
}

// GroupTable is the per-position KPI table. Rows are ordered by the Email
// Sent column descending, then by group name; only observed groups appear.
type GroupTable struct {
	Columns []Stage     `json:"columns"`
	Rows    []GroupKPIs `json:"rows"`
}

// Lookup returns the row for group.
func (t GroupTable) Lookup(group string) (GroupKPIs, bool) {
	for _, r := range t.Rows {
		if r.Group == group {
			return r, true
		}
	}
	return GroupKPIs{}, false
}

// ComputeGroupTable groups rows by their position, verbatim, and counts
// every stage within each group.
func ComputeGroupTable(rows []domain.ResultRow) GroupTable {
	byGroup := make(map[string][]int)
	var order []string

	for i := range rows {
		g := rows[i].PositionGroup()
		counts, ok := byGroup[g]
		if !ok {
			counts = make([]int, len(Stages))
			byGroup[g] = counts
			order = append(order, g)
		}
		for si, s := range Stages {
			if s.Reached(&rows[i]) {
				counts[si]++
			}
		}
	}

	table := GroupTable{
		Columns: append([]Stage(nil), Stages...),
		Rows:    make([]GroupKPIs, 0, len(order)),
	}
	for _, g := range order {
		table.Rows = append(table.Rows, GroupKPIs{Group: g, Counts: byGroup[g]})
	}
	sort.SliceStable(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if a.Counts[0] != b.Counts[0] {
			return a.Counts[0] > b.Counts[0]
		}
		return a.Group < b.Group
	})
	return table
}

// PositionShare is one slice of the position distribution.
type PositionShare struct {
	Position string  `json:"position"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// PositionCounts returns how many rows fall in each position group, largest
// first (ties by name), with each group's share of the total rounded to one
// decimal place.
func PositionCounts(rows []domain.ResultRow) []PositionShare {
	counts := make(map[string]int)
	for i := range rows {
		counts[rows[i].PositionGroup()]++
	}

	out := make([]PositionShare, 0, len(counts))
	for p, n := range counts {
		out = append(out, PositionShare{
			Position: p,
			Count:    n,
			Percent:  float64((2000*n+len(rows))/(2*len(rows))) / 10,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Position < out[j].Position
	})
	return out
}
