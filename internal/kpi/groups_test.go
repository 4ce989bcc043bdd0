package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/domain"
)

func TestComputeGroupTableSalesExample(t *testing.T) {
	table := ComputeGroupTable(salesRows())

	assert.Equal(t, Stages, table.Columns)
	require.Len(t, table.Rows, 1)

	sales, ok := table.Lookup("Sales")
	require.True(t, ok)
	assert.Equal(t, []int{2, 2, 1, 1, 0}, sales.Counts)
	assert.Equal(t, 1, sales.Count(StageSubmitted))
}

func TestComputeGroupTableOrdering(t *testing.T) {
	rows := []domain.ResultRow{
		{Status: domain.StatusSent, Position: "IT"},
		{Status: domain.StatusSent, Position: "HR"},
		{Status: domain.StatusSent, Position: "Sales"},
		{Status: domain.StatusClicked, Position: "Sales", Reported: true},
		{Status: domain.StatusSendingError, Position: "Legal"},
		{Status: domain.StatusOpened, Position: "sales "},
	}
	table := ComputeGroupTable(rows)

	var groups []string
	for _, r := range table.Rows {
		groups = append(groups, r.Group)
	}
	// Sent desc, ties by name; "sales " is its own group.
	assert.Equal(t, []string{"Sales", "HR", "IT", "sales ", "Legal"}, groups)

	legal, ok := table.Lookup("Legal")
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, legal.Counts)

	sales, _ := table.Lookup("Sales")
	assert.Equal(t, 1, sales.Count(StageReported))
	assert.Equal(t, 1, sales.Count(StageClicked))

	_, ok = table.Lookup("Finance")
	assert.False(t, ok, "unobserved groups are absent")
}

func TestComputeGroupTableEmpty(t *testing.T) {
	table := ComputeGroupTable(nil)
	assert.Empty(t, table.Rows)
	assert.Equal(t, Stages, table.Columns)
}

func TestPositionCounts(t *testing.T) {
	rows := []domain.ResultRow{
		{Position: "IT"}, {Position: "Sales"}, {Position: "IT"},
	}
	got := PositionCounts(rows)

	require.Len(t, got, 2)
	assert.Equal(t, PositionShare{Position: "IT", Count: 2, Percent: 66.7}, got[0])
	assert.Equal(t, PositionShare{Position: "Sales", Count: 1, Percent: 33.3}, got[1])
	assert.Empty(t, PositionCounts(nil))
}
