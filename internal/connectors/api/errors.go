package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RateLimitError reports a 429 response and when the limit resets.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	URL       string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("api: rate limit exceeded for %s, resets at %s", e.URL, e.ResetAt.Format(time.RFC3339))
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
