package datanorm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/domain"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return t0.Add(time.Duration(minutes) * time.Minute) }

func TestCorrelatorSentOpenedReported(t *testing.T) {
	c := NewTimelineCorrelator([]domain.TimelineEvent{
		{Email: "", Time: at(-5), Message: domain.StatusCampaignCreated},
		{Email: "a@x.com", Time: at(0), Message: domain.StatusSent},
		{Email: "a@x.com", Time: at(10), Message: domain.StatusOpened},
		{Email: "a@x.com", Time: at(20), Message: domain.StatusReported},
	})

	got := c.Lookup("a@x.com")
	require.NotNil(t, got.SendDate)
	require.NotNil(t, got.ModifiedDate)
	assert.Equal(t, at(0), *got.SendDate)
	assert.True(t, got.Reported)
	assert.Equal(t, at(20), *got.ModifiedDate)
}

func TestCorrelatorUnknownEmail(t *testing.T) {
	c := NewTimelineCorrelator([]domain.TimelineEvent{
		{Email: "a@x.com", Time: at(0), Message: domain.StatusSent},
	})

	got := c.Lookup("nobody@x.com")
	assert.Nil(t, got.SendDate)
	assert.Nil(t, got.ModifiedDate)
	assert.False(t, got.Reported)
}

func TestCorrelatorDuplicateSentLastWriteWins(t *testing.T) {
	// Out-of-order duplicates: the later-iterated event wins even though
	// its timestamp is earlier.
	c := NewTimelineCorrelator([]domain.TimelineEvent{
		{Email: "a@x.com", Time: at(30), Message: domain.StatusSent},
		{Email: "a@x.com", Time: at(5), Message: domain.StatusSent},
	})

	got := c.Lookup("a@x.com")
	require.NotNil(t, got.SendDate)
	assert.Equal(t, at(5), *got.SendDate)
	assert.Equal(t, at(30), *got.ModifiedDate)
}

func TestCorrelatorModifiedIsMaxNotLast(t *testing.T) {
	c := NewTimelineCorrelator([]domain.TimelineEvent{
		{Email: "a@x.com", Time: at(50), Message: domain.StatusClicked},
		{Email: "a@x.com", Time: at(0), Message: domain.StatusSent},
		{Email: "b@x.com", Time: at(90), Message: domain.StatusSent},
	})

	got := c.Lookup("a@x.com")
	assert.Equal(t, at(50), *got.ModifiedDate)
	assert.False(t, got.Reported)
}

func TestCorrelatorReportedWithoutSent(t *testing.T) {
	c := NewTimelineCorrelator([]domain.TimelineEvent{
		{Email: "a@x.com", Time: at(7), Message: domain.StatusReported},
	})

	got := c.Lookup("a@x.com")
	assert.Nil(t, got.SendDate)
	assert.True(t, got.Reported)
	assert.Equal(t, at(7), *got.ModifiedDate)
}
