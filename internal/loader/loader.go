// Package loader materializes the issue corpus: it walks the paginated issue
// listing and every issue's timeline, cache-first, and constructs the
// immutable model objects analyses consume.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/issuelens/issuelens/internal/cache"
	"github.com/issuelens/issuelens/internal/github"
	"github.com/issuelens/issuelens/internal/log"
	"github.com/issuelens/issuelens/internal/model"
)

// DefaultWorkers bounds concurrent timeline fetches. Timelines dominate
// ingest latency (one fetch per issue), so they run in parallel.
const DefaultWorkers = 10

// FetchClient is the transport the loader drives. Implemented by
// github.Client; faked in tests.
type FetchClient interface {
	ListIssuesPage(ctx context.Context, cursor string) (payload []byte, next string, err error)
	FetchTimelinePage(ctx context.Context, timelineURL, cursor string) (payload []byte, next string, err error)
}

var _ FetchClient = (*github.Client)(nil)

// Report summarizes one Issues call.
type Report struct {
	Issues       int
	Dropped      int
	PagesFetched int
	CacheHits    int
	Warnings     []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers sets the timeline worker pool size.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithForceRefresh bypasses cached pages and refetches everything.
func WithForceRefresh(force bool) Option {
	return func(l *Loader) { l.forceRefresh = force }
}

// WithFailFast promotes any per-issue timeline failure to a run error
// instead of dropping the issue with a warning.
func WithFailFast(failFast bool) Option {
	return func(l *Loader) { l.failFast = failFast }
}

// Loader is the single entry point for obtaining the issue corpus.
type Loader struct {
	client FetchClient
	store  *cache.Store
	repoID string

	workers      int
	forceRefresh bool
	failFast     bool

	group singleflight.Group

	mu     sync.Mutex
	report Report
}

// New creates a loader for one repository. repoID identifies the listing in
// cache keys (e.g. "owner-repo").
func New(client FetchClient, store *cache.Store, repoID string, opts ...Option) *Loader {
	l := &Loader{
		client:  client,
		store:   store,
		repoID:  repoID,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issues returns every issue in the repository with its full timeline, in
// source listing order. Issues whose timeline cannot be resolved after
// retries are dropped with a warning rather than failing the batch. On
// cancellation the issues already fully resolved are returned together with
// the context error; a partially resolved issue is never included.
func (l *Loader) Issues(ctx context.Context) ([]*model.Issue, error) {
	l.mu.Lock()
	l.report = Report{}
	l.mu.Unlock()

	rawIssues, err := l.collectListing(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*model.Issue, len(rawIssues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, raw := range rawIssues {
		i, raw := i, raw
		g.Go(func() error {
			iss, err := l.resolveIssue(gctx, raw)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if l.failFast || github.IsUnauthorized(err) {
					return err
				}
				l.drop(fmt.Sprintf("dropping issue %v: %v", raw["number"], err))
				return nil
			}
			results[i] = iss
			return nil
		})
	}

	waitErr := g.Wait()

	// Completion order must not leak into result order: slots are
	// index-addressed, dropped or unresolved ones are skipped here.
	issues := make([]*model.Issue, 0, len(results))
	for _, iss := range results {
		if iss != nil {
			issues = append(issues, iss)
		}
	}

	l.mu.Lock()
	l.report.Issues = len(issues)
	report := l.report
	l.mu.Unlock()

	log.Info("corpus loaded",
		"issues", report.Issues,
		"dropped", report.Dropped,
		"pagesFetched", report.PagesFetched,
		"cacheHits", report.CacheHits)

	if waitErr != nil {
		return issues, waitErr
	}
	return issues, nil
}

// LastReport returns the summary of the most recent Issues call.
func (l *Loader) LastReport() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.report
}

// collectListing walks the issue listing pages in order.
func (l *Loader) collectListing(ctx context.Context) ([]map[string]any, error) {
	var rawIssues []map[string]any

	cursor := ""
	for {
		key := cache.Key("issues", l.repoID, cursor)
		entry, err := l.page(ctx, key, func(ctx context.Context) ([]byte, string, error) {
			return l.client.ListIssuesPage(ctx, cursor)
		})
		if err != nil {
			// A listing page that cannot be fetched means the corpus
			// cannot be enumerated at all.
			return nil, fmt.Errorf("list issues (cursor %q): %w", cursor, err)
		}

		var items []map[string]any
		if err := json.Unmarshal(entry.Payload, &items); err != nil {
			return nil, fmt.Errorf("decode issues page (cursor %q): %w", cursor, err)
		}

		for _, item := range items {
			// The issues listing includes pull requests; this corpus is
			// issues only.
			if _, isPR := item["pull_request"]; isPR {
				continue
			}
			rawIssues = append(rawIssues, item)
		}

		if entry.Next == "" {
			return rawIssues, nil
		}
		cursor = entry.Next
	}
}

// resolveIssue fetches the issue's timeline and constructs the model object.
func (l *Loader) resolveIssue(ctx context.Context, raw map[string]any) (*model.Issue, error) {
	timelineURL, _ := raw["timeline_url"].(string)
	if timelineURL != "" {
		events, err := l.collectTimeline(ctx, timelineURL)
		if err != nil {
			return nil, fmt.Errorf("timeline: %w", err)
		}
		raw["events"] = events
	}

	iss, err := model.NewIssue(raw)
	if err != nil {
		return nil, fmt.Errorf("construct issue: %w", err)
	}
	return iss, nil
}

// collectTimeline walks an issue's timeline pages and returns the raw event
// entries in source order.
func (l *Loader) collectTimeline(ctx context.Context, timelineURL string) ([]any, error) {
	events := []any{}

	cursor := ""
	for {
		key := cache.Key("timeline", timelineURL, cursor)
		entry, err := l.page(ctx, key, func(ctx context.Context) ([]byte, string, error) {
			return l.client.FetchTimelinePage(ctx, timelineURL, cursor)
		})
		if err != nil {
			return nil, err
		}

		var items []any
		if err := json.Unmarshal(entry.Payload, &items); err != nil {
			return nil, fmt.Errorf("decode timeline page (cursor %q): %w", cursor, err)
		}
		events = append(events, items...)

		if entry.Next == "" {
			return events, nil
		}
		cursor = entry.Next
	}
}

// page returns the entry for one fetchable unit, cache-first. Concurrent
// requests for the same key share a single network call via singleflight;
// the second caller waits for the first's result.
func (l *Loader) page(ctx context.Context, key string, fetch func(context.Context) ([]byte, string, error)) (*cache.Entry, error) {
	if !l.forceRefresh {
		if entry, ok := l.store.Get(key); ok {
			if json.Valid(entry.Payload) {
				l.hit()
				return entry, nil
			}
			// Envelope parsed but the payload is junk: drop the entry and
			// treat it as a miss, so the refetch shares the flight below
			// with any concurrent request for the same key.
			log.Debug("cached payload invalid, refetching", "key", key)
			if err := l.store.Invalidate(key); err != nil {
				log.Debug("cache invalidate failed", "key", key, "error", err)
			}
		}
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		// Another flight may have written the entry while we queued.
		if !l.forceRefresh {
			if entry, ok := l.store.Get(key); ok && json.Valid(entry.Payload) {
				l.hit()
				return entry, nil
			}
		}

		payload, next, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		if err := l.store.Put(key, payload, next); err != nil {
			// A cache write failure costs a refetch next run, nothing more.
			log.Debug("cache write failed", "key", key, "error", err)
		}
		l.fetched()

		return &cache.Entry{
			Payload:   payload,
			Next:      next,
			FetchedAt: time.Now(),
			Version:   cache.Version,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Entry), nil
}

func (l *Loader) hit() {
	l.mu.Lock()
	l.report.CacheHits++
	l.mu.Unlock()
}

func (l *Loader) fetched() {
	l.mu.Lock()
	l.report.PagesFetched++
	l.mu.Unlock()
}

func (l *Loader) drop(warning string) {
	log.Warn(warning)
	l.mu.Lock()
	l.report.Dropped++
	l.report.Warnings = append(l.report.Warnings, warning)
	l.mu.Unlock()
}
