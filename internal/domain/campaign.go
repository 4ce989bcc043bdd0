package domain

import (
	"time"
)

// Template identifies the email template a campaign was sent with.
type Template struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CampaignRecord is a single phishing simulation as delivered by the
// campaign backend: its recipients' current outcome and the event timeline.
// Template is nil when the backend did not attach one.
type CampaignRecord struct {
	ID       int64           `json:"id" validate:"required,gt=0"`
	Name     string          `json:"name"`
	Template *Template       `json:"template,omitempty"`
	Results  []ResultEntry   `json:"results"`
	Timeline []TimelineEvent `json:"timeline"`
}

// ResultEntry is the per-recipient outcome of a campaign. Email is the
// identity key within the campaign.
type ResultEntry struct {
	Email     string   `json:"email" validate:"required"`
	Status    Status   `json:"status"`
	IP        string   `json:"ip"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Position  string   `json:"position"`
}

// TimelineEvent is a timestamped occurrence recorded against a recipient.
// Backend-level events (e.g. "Campaign Created") carry an empty Email.
type TimelineEvent struct {
	Email   string    `json:"email"`
	Time    time.Time `json:"time"`
	Message Status    `json:"message"`
	Details string    `json:"details"`
}

// TemplateID returns the template id, or nil when no template is attached.
func (c *CampaignRecord) TemplateID() *int64 {
	if c.Template == nil {
		return nil
	}
	id := c.Template.ID
	return &id
}

// TemplateName returns the template name, or nil when no template is attached.
func (c *CampaignRecord) TemplateName() *string {
	if c.Template == nil {
		return nil
	}
	name := c.Template.Name
	return &name
}
