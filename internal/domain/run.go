package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run describes one normalization pass over a full snapshot.
type Run struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Campaigns  int       `json:"campaigns"`
	Results    int       `json:"results"`
	Events     int       `json:"events"`
}

// Duration is the wall time the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
