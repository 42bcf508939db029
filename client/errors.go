// Package client provides a Go client for the pairrank HTTP API.
package client

import "fmt"

// Error represents an error from the pairrank API: the HTTP status
// code, the error kind pairrank reports (e.g. "INVALID_ARGUMENT"), and
// the server's message.
type Error struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pairrank: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	e, ok := err.(*Error)
	return ok && e.StatusCode == 404
}

// IsConflict returns true if the error is a 409.
func IsConflict(err error) bool {
	e, ok := err.(*Error)
	return ok && e.StatusCode == 409
}

// IsRateLimited returns true if the error is a 429 (Too Many Requests).
func IsRateLimited(err error) bool {
	e, ok := err.(*Error)
	return ok && e.StatusCode == 429
}

// IsUnavailable returns true if the error is a 503, meaning the server
// or its persistence adapter is unavailable.
func IsUnavailable(err error) bool {
	e, ok := err.(*Error)
	return ok && e.StatusCode == 503
}
