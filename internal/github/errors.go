package github

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// RateLimitError reports an exhausted API quota and when it resets.
type RateLimitError struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsRateLimited reports whether err indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateErr *RateLimitError
	return errors.As(err, &rateErr)
}

// IsUnauthorized reports whether err indicates an authentication failure.
// Authentication failures are fatal for a whole run: no page can succeed.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// isTransient reports whether err is worth retrying: timeouts, 5xx, and
// rate-limit responses. Other 4xx responses are permanent.
func isTransient(err error) bool {
	if IsRateLimited(err) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// retryAfterHint extracts a server-supplied wait from err, or 0.
func retryAfterHint(err error) time.Duration {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		if d := time.Until(rateErr.ResetAt); d > 0 {
			return d
		}
	}
	return 0
}
