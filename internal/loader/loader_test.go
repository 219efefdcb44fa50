package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/issuelens/issuelens/internal/cache"
	"github.com/issuelens/issuelens/internal/github"
)

// fakePage is one canned page response.
type fakePage struct {
	payload string
	next    string
}

// fakeClient serves canned listing and timeline pages and counts calls per
// logical fetch unit.
type fakeClient struct {
	mu        sync.Mutex
	listing   map[string]fakePage            // cursor -> page
	timelines map[string]map[string]fakePage // url -> cursor -> page
	failures  map[string]error               // url -> permanent error
	delay     time.Duration
	calls     map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		listing:   map[string]fakePage{},
		timelines: map[string]map[string]fakePage{},
		failures:  map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeClient) count(key string) {
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
}

func (f *fakeClient) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeClient) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeClient) ListIssuesPage(ctx context.Context, cursor string) ([]byte, string, error) {
	f.count("issues:" + cursor)
	page, ok := f.listing[cursor]
	if !ok {
		return nil, "", fmt.Errorf("no listing page for cursor %q", cursor)
	}
	return []byte(page.payload), page.next, nil
}

func (f *fakeClient) FetchTimelinePage(ctx context.Context, timelineURL, cursor string) ([]byte, string, error) {
	f.count("timeline:" + timelineURL + ":" + cursor)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if err, ok := f.failures[timelineURL]; ok {
		return nil, "", err
	}
	pages, ok := f.timelines[timelineURL]
	if !ok {
		return nil, "", fmt.Errorf("no timeline for %q", timelineURL)
	}
	page, ok := pages[cursor]
	if !ok {
		return nil, "", fmt.Errorf("no timeline page for cursor %q", cursor)
	}
	return []byte(page.payload), page.next, nil
}

func issueJSON(number int, timelineURL string) string {
	return fmt.Sprintf(`{"number": %d, "creator": "user%d", "state": "open", "timeline_url": %q, "created_date": "2024-01-0%dT00:00:00Z"}`,
		number, number, timelineURL, number)
}

func newTestLoader(t *testing.T, client FetchClient, opts ...Option) *Loader {
	t.Helper()
	store, err := cache.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(client, store, "owner-repo", opts...)
}

func TestIssuesOrderAndContent(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{
		payload: "[" + issueJSON(1, "tl://1") + "," + issueJSON(2, "tl://2") + "]",
		next:    "2",
	}
	f.listing["2"] = fakePage{payload: "[" + issueJSON(3, "tl://3") + "]"}
	f.timelines["tl://1"] = map[string]fakePage{"": {payload: `[{"event_type": "labeled", "author": "a"}]`}}
	f.timelines["tl://2"] = map[string]fakePage{
		"":  {payload: `[{"event_type": "assigned", "author": "b"}]`, next: "2"},
		"2": {payload: `[{"event_type": "commented", "author": "c"}]`},
	}
	f.timelines["tl://3"] = map[string]fakePage{"": {payload: `[]`}}

	l := newTestLoader(t, f)
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	for i, want := range []int{1, 2, 3} {
		if issues[i].Number() != want {
			t.Errorf("position %d: expected issue %d, got %d", i, want, issues[i].Number())
		}
	}

	// Issue 2's timeline spans two pages, in order.
	events := issues[1].Events()
	if len(events) != 2 || events[0].Type() != "assigned" || events[1].Type() != "commented" {
		t.Errorf("unexpected issue 2 timeline: %+v", events)
	}
	if len(issues[2].Events()) != 0 {
		t.Errorf("expected empty timeline for issue 3, got %d events", len(issues[2].Events()))
	}

	report := l.LastReport()
	if report.Issues != 3 || report.Dropped != 0 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestWarmCacheIsIdempotentAndFetchFree(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://1") + "]"}
	f.timelines["tl://1"] = map[string]fakePage{"": {payload: `[{"event_type": "labeled", "author": "a", "event_date": "2024-02-01T00:00:00Z"}]`}}

	l := newTestLoader(t, f)

	first, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := f.totalCalls()

	second, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if f.totalCalls() != callsAfterFirst {
		t.Errorf("warm cache still hit the network: %d -> %d calls", callsAfterFirst, f.totalCalls())
	}
	if len(first) != len(second) {
		t.Fatalf("expected equal corpora, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Number() != b.Number() || a.Creator() != b.Creator() || a.State() != b.State() {
			t.Errorf("issue %d differs between runs", i)
		}
		if len(a.Events()) != len(b.Events()) {
			t.Errorf("issue %d event count differs", i)
			continue
		}
		for j := range a.Events() {
			if !a.Events()[j].Equal(b.Events()[j]) {
				t.Errorf("issue %d event %d differs", i, j)
			}
		}
	}
}

func TestTimelineFailureDropsIssueWithWarning(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://1") + "," + issueJSON(2, "tl://broken") + "]"}
	f.timelines["tl://1"] = map[string]fakePage{"": {payload: `[]`}}
	f.failures["tl://broken"] = errors.New("retries exhausted: boom")

	l := newTestLoader(t, f)
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatalf("per-issue failure must not fail the batch: %v", err)
	}

	if len(issues) != 1 || issues[0].Number() != 1 {
		t.Fatalf("expected only issue 1, got %d issues", len(issues))
	}
	report := l.LastReport()
	if report.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", report.Dropped)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("expected a recorded warning, got %v", report.Warnings)
	}
}

func TestFailFastPromotesTimelineFailure(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://broken") + "]"}
	f.failures["tl://broken"] = errors.New("boom")

	l := newTestLoader(t, f, WithFailFast(true))
	if _, err := l.Issues(context.Background()); err == nil {
		t.Fatal("expected fail-fast error")
	}
}

func TestUnauthorizedIsAlwaysFatal(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://auth") + "]"}
	f.failures["tl://auth"] = &github.APIError{StatusCode: 401, Message: "Bad credentials"}

	l := newTestLoader(t, f)
	_, err := l.Issues(context.Background())
	if !github.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestListingFailureIsFatal(t *testing.T) {
	f := newFakeClient() // no listing pages configured
	l := newTestLoader(t, f)
	if _, err := l.Issues(context.Background()); err == nil {
		t.Fatal("expected error when the listing cannot be fetched")
	}
}

func TestAtMostOneFetchPerKey(t *testing.T) {
	f := newFakeClient()
	f.delay = 50 * time.Millisecond
	// Two issues sharing one timeline resource: concurrent workers must not
	// race two network calls for the same key.
	shared := "tl://shared"
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, shared) + "," + issueJSON(2, shared) + "]"}
	f.timelines[shared] = map[string]fakePage{"": {payload: `[]`}}

	l := newTestLoader(t, f, WithWorkers(4))
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if n := f.callCount("timeline:" + shared + ":"); n != 1 {
		t.Errorf("expected exactly 1 fetch for the shared key, got %d", n)
	}
}

func TestInvalidCachedPayloadRefetchesOnce(t *testing.T) {
	f := newFakeClient()
	f.delay = 50 * time.Millisecond
	shared := "tl://shared"
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, shared) + "," + issueJSON(2, shared) + "]"}
	f.timelines[shared] = map[string]fakePage{"": {payload: `[]`}}

	dir := t.TempDir()
	store, err := cache.NewStoreWithDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Seed an entry whose envelope parses but carries no usable payload.
	// Concurrent workers hitting it must share a single refetch.
	key := cache.Key("timeline", shared, "")
	envelope := `{"next": "", "fetchedAt": "2024-01-01T00:00:00Z", "version": 1}`
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte(envelope), 0600); err != nil {
		t.Fatal(err)
	}

	l := New(f, store, "owner-repo", WithWorkers(4))
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if n := f.callCount("timeline:" + shared + ":"); n != 1 {
		t.Errorf("expected exactly 1 refetch for the shared key, got %d", n)
	}
	if entry, ok := store.Get(key); !ok || !json.Valid(entry.Payload) {
		t.Error("expected the refetched payload to replace the bad entry")
	}
}

func TestCancellationReturnsOnlyResolvedIssues(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://fast") + "," + issueJSON(2, "tl://slow") + "]"}
	f.timelines["tl://fast"] = map[string]fakePage{"": {payload: `[]`}}
	f.timelines["tl://slow"] = map[string]fakePage{"": {payload: `[]`}}

	// The slow timeline blocks well past the deadline.
	blocking := &blockingClient{inner: f, blockURL: "tl://slow"}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	l := newTestLoader(t, blocking, WithWorkers(2))
	issues, err := l.Issues(ctx)
	if err == nil {
		t.Fatal("expected a context error")
	}
	for _, iss := range issues {
		if iss.Number() == 2 {
			t.Error("issue with unresolved timeline must not be included")
		}
	}
}

// blockingClient delegates to inner but blocks timeline fetches for blockURL
// until the context is done.
type blockingClient struct {
	inner    *fakeClient
	blockURL string
}

func (b *blockingClient) ListIssuesPage(ctx context.Context, cursor string) ([]byte, string, error) {
	return b.inner.ListIssuesPage(ctx, cursor)
}

func (b *blockingClient) FetchTimelinePage(ctx context.Context, timelineURL, cursor string) ([]byte, string, error) {
	if timelineURL == b.blockURL {
		<-ctx.Done()
		return nil, "", ctx.Err()
	}
	return b.inner.FetchTimelinePage(ctx, timelineURL, cursor)
}

func TestPullRequestsAreExcluded(t *testing.T) {
	f := newFakeClient()
	f.listing[""] = fakePage{payload: `[` +
		issueJSON(1, "tl://1") + `,` +
		`{"number": 2, "pull_request": {"url": "pr://2"}, "timeline_url": "tl://2"}` +
		`]`}
	f.timelines["tl://1"] = map[string]fakePage{"": {payload: `[]`}}

	l := newTestLoader(t, f)
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || issues[0].Number() != 1 {
		t.Fatalf("expected PRs filtered out, got %d issues", len(issues))
	}
}

func TestMalformedIssueIsDroppedNotFatal(t *testing.T) {
	f := newFakeClient()
	// Second entry has no number: construction fails for that entity only.
	f.listing[""] = fakePage{payload: "[" + issueJSON(1, "tl://1") + `,{"title": "no identity"}]`}
	f.timelines["tl://1"] = map[string]fakePage{"": {payload: `[]`}}

	l := newTestLoader(t, f)
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if l.LastReport().Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", l.LastReport().Dropped)
	}
}

// TestRetryThenEmptyTimeline runs the loader against a real transport: one
// issue with two events, one whose timeline 500s twice before succeeding
// empty. Both issues come back, no error.
func TestRetryThenEmptyTimeline(t *testing.T) {
	var flakyHits int
	var mu sync.Mutex

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/owner/repo/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"number": 1, "creator": "alice", "state": "open", "timeline_url": "%s/timelines/1"},
			{"number": 2, "creator": "bob", "state": "closed", "timeline_url": "%s/timelines/2"}
		]`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/timelines/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"event_type": "labeled", "author": "alice"}, {"event_type": "assigned", "author": "bob"}]`)
	})
	mux.HandleFunc("/timelines/2", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		flakyHits++
		n := flakyHits
		mu.Unlock()
		if n <= 2 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	client, err := github.NewClient("test-token", "owner", "repo",
		github.WithBaseURL(srv.URL+"/"),
		github.WithRetryDelay(time.Millisecond),
		github.WithProactiveRate(10000),
	)
	if err != nil {
		t.Fatal(err)
	}

	l := newTestLoader(t, client)
	issues, err := l.Issues(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if len(issues[0].Events()) != 2 {
		t.Errorf("expected 2 events on issue 1, got %d", len(issues[0].Events()))
	}
	if len(issues[1].Events()) != 0 {
		t.Errorf("expected empty timeline on issue 2, got %d events", len(issues[1].Events()))
	}
	if l.LastReport().Dropped != 0 {
		t.Errorf("expected no drops, got %d", l.LastReport().Dropped)
	}
}
