package datanorm

import (
	"time"

	"github.com/ignite/phish-metrics/internal/domain"
)

// TimelineCorrelator indexes one campaign's timeline by recipient email.
// It must never be shared across campaigns: the same email in two campaigns
// is two different recipients.
type TimelineCorrelator struct {
	sendTime map[string]time.Time
	reported map[string]bool
	modified map[string]time.Time
}

// NewTimelineCorrelator builds the per-email lookups for a campaign timeline.
//
// When an email has several "Email Sent" events the last one in iteration
// order wins, whatever its timestamp. The modified time is the maximum
// timestamp over every event for the email.
func NewTimelineCorrelator(timeline []domain.TimelineEvent) *TimelineCorrelator {
	c := &TimelineCorrelator{
		sendTime: make(map[string]time.Time),
		reported: make(map[string]bool),
		modified: make(map[string]time.Time, len(timeline)),
	}

	for _, e := range timeline {
		switch e.Message {
		case domain.StatusSent:
			c.sendTime[e.Email] = e.Time
		case domain.StatusReported:
			c.reported[e.Email] = true
		}
		if cur, ok := c.modified[e.Email]; !ok || e.Time.After(cur) {
			c.modified[e.Email] = e.Time
		}
	}
	return c
}

// Lookup returns the derived fields for email. An email that never appears
// in the timeline yields nil dates and Reported=false.
func (c *TimelineCorrelator) Lookup(email string) Correlation {
	var out Correlation
	if t, ok := c.sendTime[email]; ok {
		out.SendDate = &t
	}
	out.Reported = c.reported[email]
	if t, ok := c.modified[email]; ok {
		out.ModifiedDate = &t
	}
	return out
}
