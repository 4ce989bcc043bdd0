package domain

import "time"

// ResultRow is the flat, denormalized view of one recipient within one
// campaign. SendDate, ModifiedDate, template and geo fields are nil when the
// source had no value for them.
type ResultRow struct {
	CampaignID   int64      `json:"campaign_id"`
	CampaignName string     `json:"campaign_name"`
	TemplateID   *int64     `json:"template_id"`
	TemplateName *string    `json:"template_name"`
	Status       Status     `json:"status"`
	IP           string     `json:"ip"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	SendDate     *time.Time `json:"send_date"`
	Reported     bool       `json:"reported"`
	ModifiedDate *time.Time `json:"modified_date"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Position     string     `json:"position"`
}

// PositionGroup is the grouping key for per-department reporting: the
// position label used verbatim.
func (r ResultRow) PositionGroup() string {
	return r.Position
}

// EventRow is the flat view of one timeline event.
type EventRow struct {
	CampaignID   int64     `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	TemplateID   *int64    `json:"template_id"`
	TemplateName *string   `json:"template_name"`
	Email        string    `json:"email"`
	Time         time.Time `json:"time"`
	Message      Status    `json:"message"`
	Details      string    `json:"details"`
}

// ResultColumns is the flat-file header for ResultRow, in column order.
var ResultColumns = []string{
	"campaign_id", "campaign_name", "template_id", "template_name", "status", "ip",
	"latitude", "longitude", "send_date", "reported", "modified_date", "email",
	"first_name", "last_name", "position",
}

// EventColumns is the flat-file header for EventRow, in column order.
var EventColumns = []string{
	"campaign_id", "campaign_name", "template_id", "template_name", "email",
	"time", "message", "details",
}
