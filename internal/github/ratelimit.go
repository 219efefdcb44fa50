package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// fullQuota is the authenticated hourly limit, assumed until headers say otherwise.
	fullQuota = 5000

	// proactiveRate throttles below the hourly quota (~1.2 req/sec = 4320/hr)
	// so a long ingest never trips the reactive limit in the first place.
	proactiveRate = 1.2

	// minBuffer is the remaining-quota floor; below it we wait for the reset
	// instead of issuing requests that would certainly fail.
	minBuffer = 10
)

// RateLimiter combines a proactive token bucket with reactive tracking of
// the API's quota headers.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	bucket    *rate.Limiter
}

// NewRateLimiter creates a limiter assuming a full quota.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		remaining: fullQuota,
		limit:     fullQuota,
		bucket:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
}

// Wait blocks until a request may be issued: first the proactive bucket,
// then, if the quota is effectively exhausted, until the advertised reset.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetAt := r.resetAt
	r.mu.Unlock()

	if remaining < minBuffer && time.Now().Before(resetAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetAt)):
		}
	}

	return nil
}

// UpdateFromResponse refreshes quota state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.limit = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.resetAt = time.Unix(unix, 0)
		}
	}
}

// Remaining returns the last-seen remaining quota.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the last-seen quota limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// Status returns the current quota view for reporting.
func (r *RateLimiter) Status() (remaining, limit int, resetAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.limit, r.resetAt
}
