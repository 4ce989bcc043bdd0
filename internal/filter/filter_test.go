package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/domain"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func str(s string) *string { return &s }

func sampleRows() []domain.ResultRow {
	return []domain.ResultRow{
		{Email: "a@x.com", Status: domain.StatusSubmitted, Position: "Sales", TemplateName: str("Invoice"), SendDate: ts("2024-03-01T10:00:00Z"), Reported: false},
		{Email: "b@x.com", Status: domain.StatusOpened, Position: "Sales", TemplateName: str("Password Reset"), SendDate: ts("2024-03-02T23:59:59Z"), Reported: true},
		{Email: "c@x.com", Status: domain.StatusSendingError, Position: "IT", TemplateName: str("Invoice")},
		{Email: "d@x.com", Status: domain.StatusClicked, Position: "IT", SendDate: ts("2024-03-03T00:00:00Z"), Reported: true},
		{Email: "e@x.com", Status: domain.StatusSent, Position: "sales", TemplateName: str("Invoice"), SendDate: ts("2024-02-29T08:00:00Z")},
	}
}

func emails(rows []domain.ResultRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Email)
	}
	return out
}

func TestApply(t *testing.T) {
	day := func(s string) time.Time {
		d, err := ParseDay(s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria keeps everything", Criteria{}, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}},
		{"date range excludes never-sent", Criteria{Start: day("2024-02-01"), End: day("2024-12-31")}, []string{"a@x.com", "b@x.com", "d@x.com", "e@x.com"}},
		{"end day is inclusive to 23:59:59", Criteria{Start: day("2024-03-01"), End: day("2024-03-02")}, []string{"a@x.com", "b@x.com"}},
		{"start bound only", Criteria{Start: day("2024-03-02")}, []string{"b@x.com", "d@x.com"}},
		{"group membership is verbatim", Criteria{Groups: []string{"Sales"}}, []string{"a@x.com", "b@x.com"}},
		{"template membership skips rows without template", Criteria{Templates: []string{"Invoice"}}, []string{"a@x.com", "c@x.com", "e@x.com"}},
		{"status membership", Criteria{Statuses: []string{"Clicked Link", "Email Opened"}}, []string{"b@x.com", "d@x.com"}},
		{"reported only", Criteria{Report: ReportReported}, []string{"b@x.com", "d@x.com"}},
		{"not reported", Criteria{Report: ReportNotReported}, []string{"a@x.com", "c@x.com", "e@x.com"}},
		{"combined with AND", Criteria{Groups: []string{"IT"}, Report: ReportReported, Start: day("2024-03-01"), End: day("2024-03-03")}, []string{"d@x.com"}},
		{"nothing matches", Criteria{Groups: []string{"Legal"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, emails(Apply(sampleRows(), tt.criteria)))
		})
	}
}

func TestApplyEndDayBoundary(t *testing.T) {
	rows := []domain.ResultRow{
		{Email: "in@x.com", SendDate: ts("2024-06-30T23:59:59Z")},
		{Email: "out@x.com", SendDate: ts("2024-07-01T00:00:00Z")},
	}
	end, err := ParseDay("2024-06-30")
	require.NoError(t, err)

	got := Apply(rows, Criteria{Start: end, End: end})
	assert.Equal(t, []string{"in@x.com"}, emails(got))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := sampleRows()
	before := sampleRows()

	out := Apply(rows, Criteria{Groups: []string{"IT"}})
	require.Len(t, out, 2)
	out[0].Email = "changed@x.com"

	assert.Equal(t, before, rows)
}

func TestParseReportFilter(t *testing.T) {
	for _, s := range []string{"", "Both", "Reported", "Not Reported"} {
		_, err := ParseReportFilter(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseReportFilter("maybe")
	assert.True(t, errors.Is(err, ErrInvalidCriteria))

	_, err = ParseDay("03/01/2024")
	assert.True(t, errors.Is(err, ErrInvalidCriteria))
}

func TestProperty_FilterStableAndIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	positions := []string{"Sales", "IT", "HR"}
	statuses := []domain.Status{domain.StatusSent, domain.StatusOpened, domain.StatusClicked, domain.StatusSubmitted}

	buildRows := func(seeds []int) []domain.ResultRow {
		rows := make([]domain.ResultRow, len(seeds))
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, s := range seeds {
			rows[i] = domain.ResultRow{
				CampaignID: int64(i),
				Email:      "u@x.com",
				Position:   positions[s%len(positions)],
				Status:     statuses[s%len(statuses)],
				Reported:   s%2 == 0,
			}
			if s%5 != 0 {
				d := base.Add(time.Duration(s) * time.Hour)
				rows[i].SendDate = &d
			}
		}
		return rows
	}

	criteria := Criteria{
		Start:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Groups: []string{"Sales", "HR"},
		Report: ReportReported,
	}

	properties.Property("survivors keep their relative order", prop.ForAll(
		func(seeds []int) bool {
			out := Apply(buildRows(seeds), criteria)
			for i := 1; i < len(out); i++ {
				if out[i-1].CampaignID >= out[i].CampaignID {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("filtering twice equals filtering once", prop.ForAll(
		func(seeds []int) bool {
			once := Apply(buildRows(seeds), criteria)
			twice := Apply(once, criteria)
			return assert.ObjectsAreEqual(once, twice)
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
