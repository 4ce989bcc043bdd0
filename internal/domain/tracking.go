package domain

// Status is a value of the campaign backend's status vocabulary. It is used
// both as a recipient's current status and as a timeline event message.
type Status string

const (
	StatusCampaignCreated Status = "Campaign Created"
	StatusSent            Status = "Email Sent"
	StatusOpened          Status = "Email Opened"
	StatusClicked         Status = "Clicked Link"
	StatusSubmitted       Status = "Submitted Data"
	StatusReported        Status = "Email Reported"
	StatusSending         Status = "Sending"
	StatusScheduled       Status = "Scheduled"
	StatusError           Status = "Error"
	StatusSendingError    Status = "Error Sending Email"
)

// sentStatuses are the statuses that imply the email was delivered.
var sentStatuses = map[Status]bool{
	StatusSent:      true,
	StatusOpened:    true,
	StatusClicked:   true,
	StatusSubmitted: true,
	StatusReported:  true,
}

// IsSent returns true if a recipient with this status was sent the email.
func (s Status) IsSent() bool {
	return sentStatuses[s]
}
