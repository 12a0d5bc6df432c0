package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/site-crawler/pkg/fetch"
	"github.com/Sriram-PR/site-crawler/pkg/models"
	"github.com/Sriram-PR/site-crawler/pkg/parse"
	"github.com/Sriram-PR/site-crawler/pkg/process"
	"github.com/Sriram-PR/site-crawler/pkg/robots"
	"github.com/Sriram-PR/site-crawler/pkg/utils"
	"github.com/Sriram-PR/site-crawler/pkg/visited"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type fakePage struct {
	status   int    // 0 means 200
	body     string // HTML
	finalURL string // Set to simulate a redirect
	err      error  // Transport failure
}

// fakeSite serves pages from memory, keyed by canonical URL, and instruments concurrent fetches
type fakeSite struct {
	pages   map[string]fakePage
	delay   time.Duration
	panicOn string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu      sync.Mutex
	fetched []string
}

func (f *fakeSite) Fetch(ctx context.Context, target *url.URL) (*fetch.Page, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxInFlight.Load()
		if cur <= seen || f.maxInFlight.CompareAndSwap(seen, cur) {
			break
		}
	}

	key := parse.Canonicalize(target)
	f.mu.Lock()
	f.fetched = append(f.fetched, key)
	f.mu.Unlock()

	if key == f.panicOn {
		panic("fetcher exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p, ok := f.pages[key]
	if !ok {
		return &fetch.Page{RequestURL: target, FinalURL: target, StatusCode: 404},
			fmt.Errorf("%w: status 404 Not Found", utils.ErrClientHTTPError)
	}
	if p.err != nil {
		return nil, p.err
	}
	final := target
	if p.finalURL != "" {
		final, _ = url.Parse(p.finalURL)
	}
	if p.status >= 300 {
		return &fetch.Page{RequestURL: target, FinalURL: final, StatusCode: p.status},
			fmt.Errorf("%w: status %d", utils.ErrServerHTTPError, p.status)
	}
	return &fetch.Page{RequestURL: target, FinalURL: final, StatusCode: 200, Body: []byte(p.body)}, nil
}

func (f *fakeSite) fetchedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.fetched...)
	sort.Strings(out)
	return out
}

func links(paths ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paths {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, p)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// outcomeRecorder collects OnPage results
type outcomeRecorder struct {
	mu      sync.Mutex
	results []models.PageResult
}

func (r *outcomeRecorder) record(res models.PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *outcomeRecorder) outcomeOf(rawURL string) models.PageOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.URL == rawURL {
			return res.Outcome
		}
	}
	return models.OutcomeUnset
}

type harness struct {
	site      *fakeSite
	set       *visited.MemorySet
	recorder  *outcomeRecorder
	scheduler *Scheduler
}

func newHarness(site *fakeSite, robotsDoc string, opts Options) *harness {
	h := &harness{site: site, set: visited.NewMemorySet(), recorder: &outcomeRecorder{}}
	if opts.UserAgent == "" {
		opts.UserAgent = "site-crawler/1.0"
	}
	opts.OnPage = h.recorder.record
	h.scheduler = NewScheduler(site, process.NewLinkExtractor(false, testLogger()), robots.Parse(robotsDoc), h.set, opts, testLogger())
	return h
}

func TestRun_EndToEndScenario(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/":  {body: links("/a", "/admin/x", "https://other.com/y")},
		"https://example.com/a": {body: links()},
	}}
	h := newHarness(site, "User-agent: *\nDisallow: /admin", Options{MaxDepth: 3, MaxConcurrency: 10})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))

	assert.ElementsMatch(t, []string{"https://example.com/", "https://example.com/a"}, h.set.Keys())
	assert.Equal(t, []string{"https://example.com/", "https://example.com/a"}, site.fetchedURLs())
	assert.Equal(t, models.OutcomeSkippedPolicy, h.recorder.outcomeOf("https://example.com/admin/x"))
	assert.Equal(t, models.OutcomeUnset, h.recorder.outcomeOf("https://other.com/y"), "other domains are never submitted")

	progress := h.scheduler.Progress()
	assert.Equal(t, int64(2), progress.Visited)
	assert.Equal(t, int64(2), progress.Fetched)
	assert.Equal(t, int64(1), progress.SkippedPolicy)
	assert.Equal(t, int64(0), progress.InFlight)
}

// countingSet counts successful claims per key
type countingSet struct {
	*visited.MemorySet
	mu     sync.Mutex
	claims map[string]int
}

func (c *countingSet) TryVisit(key string) (bool, error) {
	ok, err := c.MemorySet.TryVisit(key)
	if ok {
		c.mu.Lock()
		c.claims[key]++
		c.mu.Unlock()
	}
	return ok, err
}

func TestRun_DuplicateLinksClaimedOnce(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/":  {body: links("/a", "/b", "/c", "/c#frag", "/")},
		"https://example.com/a": {body: links("/c", "/b", "/")},
		"https://example.com/b": {body: links("/c", "/a", "https://EXAMPLE.com:443/c")},
		"https://example.com/c": {body: links("/a", "/b", "/")},
	}}
	set := &countingSet{MemorySet: visited.NewMemorySet(), claims: map[string]int{}}
	s := NewScheduler(site, process.NewLinkExtractor(false, testLogger()), robots.Parse(""), set,
		Options{MaxDepth: 5, MaxConcurrency: 4}, testLogger())

	require.NoError(t, s.Run(context.Background(), "https://example.com/"))

	assert.Len(t, set.claims, 4)
	for key, n := range set.claims {
		assert.Equal(t, 1, n, "key %s", key)
	}
	assert.Equal(t, []string{
		"https://example.com/", "https://example.com/a", "https://example.com/b", "https://example.com/c",
	}, site.fetchedURLs())
	assert.Greater(t, s.Progress().SkippedVisited, int64(0))
}

func TestRun_DepthLimit(t *testing.T) {
	chain := map[string]fakePage{
		"https://example.com/":  {body: links("/1")},
		"https://example.com/1": {body: links("/2")},
		"https://example.com/2": {body: links("/3")},
		"https://example.com/3": {body: links("/4")},
	}

	tests := []struct {
		maxDepth int
		want     []string
	}{
		{0, []string{"https://example.com/"}},
		{1, []string{"https://example.com/", "https://example.com/1"}},
		{2, []string{"https://example.com/", "https://example.com/1", "https://example.com/2"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("max_depth_%d", tt.maxDepth), func(t *testing.T) {
			site := &fakeSite{pages: chain}
			h := newHarness(site, "", Options{MaxDepth: tt.maxDepth, MaxConcurrency: 2})

			require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))
			assert.Equal(t, tt.want, site.fetchedURLs())
			assert.Equal(t, int64(1), h.scheduler.Progress().SkippedDepth)
		})
	}
}

func TestCrawl_BeyondMaxDepthDoesNothing(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{"https://example.com/": {body: links("/a")}}}
	h := newHarness(site, "", Options{MaxDepth: 2, MaxConcurrency: 1})

	seed, _ := url.Parse("https://example.com/")
	h.scheduler.Crawl(context.Background(), seed, 3)

	assert.Empty(t, site.fetchedURLs())
	assert.Empty(t, h.set.Keys())
	assert.Equal(t, models.OutcomeSkippedDepth, h.recorder.outcomeOf("https://example.com/"))
}

func TestRun_ConcurrencyCap(t *testing.T) {
	for _, limit := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("limit_%d", limit), func(t *testing.T) {
			pages := map[string]fakePage{}
			var children []string
			for i := 0; i < 30; i++ {
				p := fmt.Sprintf("/p%d", i)
				children = append(children, p)
				pages["https://example.com"+p] = fakePage{body: links(fmt.Sprintf("/p%d/leaf", i))}
				pages["https://example.com"+p+"/leaf"] = fakePage{body: links()}
			}
			pages["https://example.com/"] = fakePage{body: links(children...)}

			site := &fakeSite{pages: pages, delay: 5 * time.Millisecond}
			h := newHarness(site, "", Options{MaxDepth: 3, MaxConcurrency: limit})

			require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))

			assert.Len(t, site.fetchedURLs(), 61)
			assert.LessOrEqual(t, site.maxInFlight.Load(), int32(limit))
			assert.Equal(t, int64(0), h.scheduler.Progress().InFlight)
		})
	}
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/":     {body: links("/bad", "/missing", "/down", "/ok")},
		"https://example.com/bad":  {status: 500},
		"https://example.com/down": {err: fmt.Errorf("%w: dial tcp: connection refused", utils.ErrTransport)},
		"https://example.com/ok":   {body: links("/ok2")},
		"https://example.com/ok2":  {body: links()},
	}}
	h := newHarness(site, "", Options{MaxDepth: 3, MaxConcurrency: 2})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))

	assert.Equal(t, models.OutcomeNonSuccess, h.recorder.outcomeOf("https://example.com/bad"))
	assert.Equal(t, models.OutcomeNonSuccess, h.recorder.outcomeOf("https://example.com/missing"))
	assert.Equal(t, models.OutcomeTransportError, h.recorder.outcomeOf("https://example.com/down"))
	assert.Equal(t, models.OutcomeFetched, h.recorder.outcomeOf("https://example.com/ok2"))

	progress := h.scheduler.Progress()
	assert.Equal(t, int64(3), progress.Failed)
	assert.Equal(t, int64(3), progress.Fetched)

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	for _, res := range h.recorder.results {
		switch res.URL {
		case "https://example.com/missing":
			assert.Equal(t, 404, res.StatusCode)
			assert.Equal(t, "HTTP_404", res.ErrorType)
		case "https://example.com/down":
			assert.Equal(t, "Network_ConnectionRefused", res.ErrorType)
		case "https://example.com/":
			assert.Equal(t, 4, res.LinksFound)
			assert.Equal(t, 4, res.ChildrenSent)
		}
	}
}

func TestRun_PanicReleasesPermit(t *testing.T) {
	site := &fakeSite{
		pages: map[string]fakePage{
			"https://example.com/":  {body: links("/panic", "/x", "/y")},
			"https://example.com/x": {body: links()},
			"https://example.com/y": {body: links()},
		},
		panicOn: "https://example.com/panic",
	}
	h := newHarness(site, "", Options{MaxDepth: 2, MaxConcurrency: 1})

	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(context.Background(), "https://example.com/") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("crawl deadlocked: permit leaked by panicking unit")
	}

	assert.Equal(t, models.OutcomeInternalError, h.recorder.outcomeOf("https://example.com/panic"))
	assert.Equal(t, models.OutcomeFetched, h.recorder.outcomeOf("https://example.com/x"))
	assert.Equal(t, models.OutcomeFetched, h.recorder.outcomeOf("https://example.com/y"))
	assert.Equal(t, int64(0), h.scheduler.Progress().InFlight)
}

func TestRun_MalformedSeed(t *testing.T) {
	site := &fakeSite{}
	h := newHarness(site, "", Options{MaxDepth: 3, MaxConcurrency: 1})

	for _, seed := range []string{"", "not a url", "ftp://example.com/", "/relative"} {
		err := h.scheduler.Run(context.Background(), seed)
		require.Error(t, err, seed)
		assert.ErrorIs(t, err, utils.ErrMalformedURL)
	}
	assert.Empty(t, site.fetchedURLs())
	assert.Empty(t, h.recorder.results)
}

func TestRun_SubdomainsAreOtherDomains(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/":     {body: links("https://docs.example.com/", "https://www.example.com/", "http://example.com/plain")},
		"http://example.com/plain": {body: links()},
	}}
	h := newHarness(site, "", Options{MaxDepth: 2, MaxConcurrency: 2})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))
	assert.Equal(t, []string{"http://example.com/plain", "https://example.com/"}, site.fetchedURLs())
}

func TestRun_RedirectResolvesChildrenAgainstFinalURL(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/old":               {finalURL: "https://example.com/new/section/", body: links("child")},
		"https://example.com/new/section/child": {body: links()},
	}}
	h := newHarness(site, "", Options{MaxDepth: 2, MaxConcurrency: 2})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/old"))
	assert.Equal(t, []string{"https://example.com/new/section/child", "https://example.com/old"}, site.fetchedURLs())
}

func TestRun_Cancellation(t *testing.T) {
	pages := map[string]fakePage{}
	var children []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("/p%d", i)
		children = append(children, p)
		pages["https://example.com"+p] = fakePage{body: links()}
	}
	pages["https://example.com/"] = fakePage{body: links(children...)}

	site := &fakeSite{pages: pages, delay: 50 * time.Millisecond}
	h := newHarness(site, "", Options{MaxDepth: 2, MaxConcurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(120 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := h.scheduler.Run(ctx, "https://example.com/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Less(t, len(site.fetchedURLs()), 51)
	assert.Greater(t, h.scheduler.Progress().Cancelled, int64(0))
	assert.Equal(t, int64(0), h.scheduler.Progress().InFlight)
}

func TestRun_GlobalTimeout(t *testing.T) {
	site := &fakeSite{
		pages: map[string]fakePage{"https://example.com/": {body: links()}},
		delay: time.Second,
	}
	h := newHarness(site, "", Options{MaxDepth: 1, MaxConcurrency: 1, GlobalTimeout: 50 * time.Millisecond})

	err := h.scheduler.Run(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.OutcomeCancelled, h.recorder.outcomeOf("https://example.com/"))
}

func TestRun_PerPageTimeoutIsAFetchFailure(t *testing.T) {
	site := &fakeSite{
		pages: map[string]fakePage{"https://example.com/": {body: links()}},
		delay: time.Second,
	}
	h := newHarness(site, "", Options{MaxDepth: 1, MaxConcurrency: 1, PerPageTimeout: 30 * time.Millisecond})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))
	assert.Equal(t, models.OutcomeTransportError, h.recorder.outcomeOf("https://example.com/"))

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	require.Len(t, h.recorder.results, 1)
	assert.Equal(t, "System_ContextDeadlineExceeded", h.recorder.results[0].ErrorType)
}

// brokenSet fails every claim
type brokenSet struct{}

func (brokenSet) TryVisit(string) (bool, error) {
	return false, fmt.Errorf("%w: disk full", utils.ErrDatabase)
}
func (brokenSet) Len() int     { return 0 }
func (brokenSet) Close() error { return errors.New("already closed") }

func TestRun_VisitedSetFailureSkipsURL(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{"https://example.com/": {body: links("/a")}}}
	recorder := &outcomeRecorder{}
	s := NewScheduler(site, process.NewLinkExtractor(false, testLogger()), robots.Parse(""), brokenSet{},
		Options{MaxDepth: 2, MaxConcurrency: 1, OnPage: recorder.record}, testLogger())

	require.NoError(t, s.Run(context.Background(), "https://example.com/"))
	assert.Empty(t, site.fetchedURLs())
	assert.Equal(t, models.OutcomeInternalError, recorder.outcomeOf("https://example.com/"))
	assert.Equal(t, "Database_Other", recorder.results[0].ErrorType)
	assert.Error(t, s.Close())
}

func TestRun_PolicyUsesConfiguredAgent(t *testing.T) {
	site := &fakeSite{pages: map[string]fakePage{
		"https://example.com/":        {body: links("/private", "/public")},
		"https://example.com/private": {body: links()},
		"https://example.com/public":  {body: links()},
	}}
	h := newHarness(site, "User-agent: MyBot\nDisallow: /private\n", Options{UserAgent: "mybot", MaxDepth: 2, MaxConcurrency: 2})

	require.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))
	assert.Equal(t, []string{"https://example.com/", "https://example.com/public"}, site.fetchedURLs())
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(&fakeSite{}, process.NewLinkExtractor(false, testLogger()), robots.Parse(""), visited.NewMemorySet(), Options{}, testLogger())
	assert.Equal(t, 10, s.opts.MaxConcurrency)
	assert.NotEmpty(t, s.RunID())

	s = NewScheduler(&fakeSite{}, process.NewLinkExtractor(false, testLogger()), robots.Parse(""), visited.NewMemorySet(), Options{RunID: "fixed"}, testLogger())
	assert.Equal(t, "fixed", s.RunID())
	assert.NoError(t, s.Close())
}

func TestProgressReporter(t *testing.T) {
	site := &fakeSite{
		pages: map[string]fakePage{"https://example.com/": {body: links()}},
		delay: 40 * time.Millisecond,
	}
	h := newHarness(site, "", Options{MaxDepth: 0, MaxConcurrency: 1, ProgressInterval: 5 * time.Millisecond})
	assert.NoError(t, h.scheduler.Run(context.Background(), "https://example.com/"))
}
