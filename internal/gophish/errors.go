package gophish

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when Gophish rejects the API key.
	ErrUnauthorized = errors.New("gophish: invalid api key")
	// ErrNotFound is returned for an unknown campaign id.
	ErrNotFound = errors.New("gophish: not found")
)

// APIError carries an unexpected status from the Gophish API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gophish API error (status %d): %s", e.StatusCode, e.Message)
}
