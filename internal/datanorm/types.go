package datanorm

import (
	"time"

	"github.com/ignite/phish-metrics/internal/domain"
)

// Dataset is the flattened output of one pipeline run: one ResultRow per
// (campaign, recipient) and one EventRow per timeline event, both in
// campaign input order.
type Dataset struct {
	Results []domain.ResultRow
	Events  []domain.EventRow
}

// Correlation holds the timeline-derived fields for one recipient.
type Correlation struct {
	SendDate     *time.Time
	Reported     bool
	ModifiedDate *time.Time
}
