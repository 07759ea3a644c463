package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderError signals a search provider failure (non-success status or transport error).
	ErrProviderError = errors.New("search provider error")
	// ErrInvalidQuery signals a search query rejected at the edge.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRecordNotFound signals a missing saved record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrNotConfigured signals missing provider credentials.
	ErrNotConfigured = errors.New("search provider not configured")
)

// ProviderError wraps ErrProviderError with the upstream status code and response body.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrProviderError.Error(), e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return ErrProviderError }

// NewProviderError creates a provider error for a non-success response.
func NewProviderError(statusCode int, body string) error {
	return &ProviderError{StatusCode: statusCode, Body: body}
}
