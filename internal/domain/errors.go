package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks a campaign record that is missing an identity
// field and cannot be flattened.
var ErrMalformedInput = errors.New("malformed campaign record")

// MalformedInputError describes which record and field failed validation.
// Index is the position of the offending result within the campaign, or -1
// when the campaign itself is at fault.
type MalformedInputError struct {
	CampaignID int64
	Index      int
	Field      string
}

func (e *MalformedInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: campaign %d: missing %s", ErrMalformedInput, e.CampaignID, e.Field)
	}
	return fmt.Sprintf("%v: campaign %d: result %d: missing %s", ErrMalformedInput, e.CampaignID, e.Index, e.Field)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}
