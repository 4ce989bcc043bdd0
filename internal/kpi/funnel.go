// Package kpi derives the security-awareness metrics shown on the
// dashboard: the five-stage engagement funnel and the per-position KPI table.
//
// Stages are cumulative. A recipient who submitted data also counts as
// having opened the email and clicked the link, so for any input
// Sent >= Opened >= Clicked >= Submitted. Reported is independent of status
// and is driven by the row's reported flag.
package kpi

import (
	"sort"

	"github.com/ignite/phish-metrics/internal/domain"
)

// Stage identifies a funnel stage. Its value is the status-vocabulary name
// used as the KPI table column header.
type Stage string

const (
	StageSent      Stage = "Email Sent"
	StageOpened    Stage = "Email Opened"
	StageClicked   Stage = "Clicked Link"
	StageSubmitted Stage = "Submitted Data"
	StageReported  Stage = "Email Reported"
)

// Stages lists the funnel stages in funnel order. It is also the fixed
// column order of the KPI table.
var Stages = []Stage{StageSent, StageOpened, StageClicked, StageSubmitted, StageReported}

// stageLabels are the presentation names of the stages.
var stageLabels = map[Stage]string{
	StageSent:      "Sent Emails",
	StageOpened:    "Opened Emails",
	StageClicked:   "Clicked Links",
	StageSubmitted: "Submitted Data",
	StageReported:  "Reported Emails",
}

// Label returns the presentation name of s.
func (s Stage) Label() string {
	return stageLabels[s]
}

// stageStatuses are the statuses that count toward each engagement stage.
// Sent is decided by Status.IsSent.
var stageStatuses = map[Stage]map[domain.Status]bool{
	StageOpened: {
		domain.StatusOpened: true, domain.StatusClicked: true, domain.StatusSubmitted: true,
	},
	StageClicked: {
		domain.StatusClicked: true, domain.StatusSubmitted: true,
	},
	StageSubmitted: {
		domain.StatusSubmitted: true,
	},
}

// Reached reports whether row r counts toward stage s.
func (s Stage) Reached(r *domain.ResultRow) bool {
	switch s {
	case StageReported:
		return r.Reported
	case StageSent:
		return r.Status.IsSent()
	}
	return stageStatuses[s][r.Status]
}

// StageResult is one funnel stage: its absolute count and its count
// relative to the Sent stage, as a whole percentage.
type StageResult struct {
	Stage   Stage  `json:"stage"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Funnel is the five-stage engagement funnel in stage order.
type Funnel struct {
	Stages []StageResult `json:"stages"`
}

// ComputeFunnel counts every stage over rows. An empty input yields zero
// counts and zero percentages.
func ComputeFunnel(rows []domain.ResultRow) Funnel {
	counts := countStages(rows)

	f := Funnel{Stages: make([]StageResult, len(Stages))}
	base := counts[0]
	for i, s := range Stages {
		f.Stages[i] = StageResult{
			Stage:   s,
			Label:   s.Label(),
			Count:   counts[i],
			Percent: relativePercent(counts[i], base),
		}
	}
	return f
}

// Stage returns the result for stage s.
func (f Funnel) Stage(s Stage) StageResult {
	for _, r := range f.Stages {
		if r.Stage == s {
			return r
		}
	}
	return StageResult{Stage: s, Label: s.Label()}
}

// Counts returns the absolute counts in stage order.
func (f Funnel) Counts() []int {
	out := make([]int, len(f.Stages))
	for i, r := range f.Stages {
		out[i] = r.Count
	}
	return out
}

// Display returns the stages ordered for the funnel chart: descending
// percentage, ties kept in stage order.
func (f Funnel) Display() []StageResult {
	out := append([]StageResult(nil), f.Stages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percent > out[j].Percent
	})
	return out
}

// countStages returns one count per entry of Stages.
func countStages(rows []domain.ResultRow) []int {
	counts := make([]int, len(Stages))
	for i := range rows {
		for si, s := range Stages {
			if s.Reached(&rows[i]) {
				counts[si]++
			}
		}
	}
	return counts
}

// relativePercent returns round(100*count/base) with halves rounded up,
// or 0 when base is 0.
func relativePercent(count, base int) int {
	if base <= 0 {
		return 0
	}
	return (200*count + base) / (2 * base)
}
