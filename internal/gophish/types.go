package gophish

import (
	"time"

	"github.com/ignite/phish-metrics/internal/domain"
)

// apiCampaign mirrors the campaign object returned by /api/campaigns/.
type apiCampaign struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	CreatedDate   time.Time     `json:"created_date"`
	LaunchDate    time.Time     `json:"launch_date"`
	CompletedDate time.Time     `json:"completed_date"`
	Status        string        `json:"status"`
	Template      *apiTemplate  `json:"template"`
	Results       []apiResult   `json:"results"`
	Timeline      []apiTimeline `json:"timeline"`
}

type apiTemplate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiResult struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Position  string   `json:"position"`
	Status    string   `json:"status"`
	IP        string   `json:"ip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type apiTimeline struct {
	Email   string    `json:"email"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Details string    `json:"details"`
}

// apiError is the body Gophish sends with non-2xx responses.
type apiError struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// toDomain converts the wire campaign. A template with neither id nor name
// is what Gophish serializes for a deleted template and maps to nil.
func (c apiCampaign) toDomain() domain.CampaignRecord {
	rec := domain.CampaignRecord{
		ID:   c.ID,
		Name: c.Name,
	}
	if c.Template != nil && (c.Template.ID != 0 || c.Template.Name != "") {
		rec.Template = &domain.Template{ID: c.Template.ID, Name: c.Template.Name}
	}

	rec.Results = make([]domain.ResultEntry, len(c.Results))
	for i, r := range c.Results {
		rec.Results[i] = domain.ResultEntry{
			Email:     r.Email,
			Status:    domain.Status(r.Status),
			IP:        r.IP,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Position:  r.Position,
		}
	}

	rec.Timeline = make([]domain.TimelineEvent, len(c.Timeline))
	for i, e := range c.Timeline {
		rec.Timeline[i] = domain.TimelineEvent{
			Email:   e.Email,
			Time:    e.Time,
			Message: domain.Status(e.Message),
			Details: e.Details,
		}
	}
	return rec
}
