package api

import (
	"context"
	"errors"
	"strings"

	"github.com/ignite/phish-metrics/internal/gophish"
	"github.com/ignite/phish-metrics/internal/snapshot"
)

// refreshErrorMessage maps a failed refresh to a message that is safe to
// return to API consumers. Hostnames, bucket names, file paths and SQL never
// reach the response; the full error is logged by the caller.
func refreshErrorMessage(err error) string {
	switch {
	case errors.Is(err, gophish.ErrUnauthorized):
		return "Gophish rejected the API key"
	case errors.Is(err, gophish.ErrNotFound):
		return "Gophish API endpoint not found"
	case errors.Is(err, snapshot.ErrNotFound):
		return "Snapshot files not found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "Request timed out"
	}

	var apiErr *gophish.APIError
	if errors.As(err, &apiErr) {
		return "Gophish returned an error"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Data source temporarily unavailable"

	case strings.Contains(errStr, "timeout"):
		return "Request timed out"

	case strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "tls"):
		return "TLS handshake with the data source failed"

	case strings.Contains(errStr, "snapshot"):
		return "Snapshot could not be read"

	default:
		return "Could not load campaign data"
	}
}
