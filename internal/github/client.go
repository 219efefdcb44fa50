// Package github retrieves raw issue and timeline pages from the GitHub API.
// The client is pure transport: it handles authentication, pagination,
// retries, and rate limits, and hands payloads back exactly as received.
// Caching is the caller's concern.
package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/issuelens/issuelens/internal/log"
)

const (
	// DefaultPerPage is the page size requested from the API.
	DefaultPerPage = 100

	// DefaultMaxRetries bounds retry attempts for transient failures.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial backoff; it doubles per attempt.
	DefaultRetryDelay = time.Second
)

// Client fetches raw pages for one repository.
type Client struct {
	gh      *gh.Client
	limiter *RateLimiter

	owner string
	repo  string

	perPage    int
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (used in tests).
// The URL must end with a slash.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.gh.BaseURL = u
		}
	}
}

// WithPerPage overrides the requested page size.
func WithPerPage(n int) Option {
	return func(c *Client) { c.perPage = n }
}

// WithMaxRetries overrides the transient-failure retry bound.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay overrides the initial backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithProactiveRate overrides the proactive throttle, in requests per second.
func WithProactiveRate(rps float64) Option {
	return func(c *Client) { c.limiter.bucket.SetLimit(rate.Limit(rps)) }
}

// NewClient creates a client for owner/repo using a personal access token.
// An empty token falls back to the GITHUB_TOKEN environment variable.
func NewClient(token, owner, repo string, opts ...Option) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, errors.New("GitHub token not provided. Set GITHUB_TOKEN or configure one")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = 30 * time.Second

	c := &Client{
		gh:         gh.NewClient(tc),
		limiter:    NewRateLimiter(),
		owner:      owner,
		repo:       repo,
		perPage:    DefaultPerPage,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RateLimiter returns the client's rate limiter for status reporting.
func (c *Client) RateLimiter() *RateLimiter { return c.limiter }

// RateLimits queries the API's current quota directly.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return nil, c.wrapError(err)
	}
	return limits, nil
}

// ListIssuesPage fetches one page of the repository's issue listing. The
// cursor is "" for the first page; the returned next cursor is "" on the
// final page.
func (c *Client) ListIssuesPage(ctx context.Context, cursor string) (payload []byte, next string, err error) {
	u := fmt.Sprintf("repos/%s/%s/issues?state=all&per_page=%d", c.owner, c.repo, c.perPage)
	if cursor != "" {
		u += "&page=" + url.QueryEscape(cursor)
	}
	return c.fetch(ctx, u)
}

// FetchTimelinePage fetches one page of an issue's timeline resource.
// The timeline URL comes from the issue listing payload.
func (c *Client) FetchTimelinePage(ctx context.Context, timelineURL, cursor string) (payload []byte, next string, err error) {
	u, err := url.Parse(timelineURL)
	if err != nil {
		return nil, "", &APIError{StatusCode: 0, Message: fmt.Sprintf("invalid timeline URL %q", timelineURL)}
	}

	q := u.Query()
	q.Set("per_page", strconv.Itoa(c.perPage))
	if cursor != "" {
		q.Set("page", cursor)
	}
	u.RawQuery = q.Encode()

	return c.fetch(ctx, u.String())
}

// fetch performs one logical page request with retries. Transient failures
// (timeouts, 5xx, rate limits) back off exponentially, honoring any
// server-supplied retry-after hint; other failures return immediately.
func (c *Client) fetch(ctx context.Context, urlStr string) ([]byte, string, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := delay
			if hint := retryAfterHint(lastErr); hint > wait {
				wait = hint
			}
			log.Debug("retrying fetch", "url", urlStr, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(wait):
			}
			delay *= 2
		}

		// Suspends while the remaining quota is exhausted.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}

		payload, next, err := c.doOnce(ctx, urlStr)
		if err == nil {
			return payload, next, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		if !isTransient(err) {
			return nil, "", err
		}
	}

	return nil, "", fmt.Errorf("fetch %s: retries exhausted: %w", urlStr, lastErr)
}

func (c *Client) doOnce(ctx context.Context, urlStr string) ([]byte, string, error) {
	req, err := c.gh.NewRequest("GET", urlStr, nil)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &buf)
	if resp != nil {
		c.limiter.UpdateFromResponse(resp.Response)
	}
	if err != nil {
		return nil, "", c.wrapError(err)
	}

	next := ""
	if resp.NextPage > 0 {
		next = strconv.Itoa(resp.NextPage)
	}
	return buf.Bytes(), next, nil
}

// wrapError converts go-github errors to this package's error types.
func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &RateLimitError{
			ResetAt:   rateErr.Rate.Reset.Time,
			Remaining: rateErr.Rate.Remaining,
			Limit:     rateErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetAt: resetAt, Remaining: 0, Limit: c.limiter.Limit()}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return err
}
