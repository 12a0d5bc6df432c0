package crawler

import (
	"context"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/site-crawler/pkg/fetch"
	"github.com/Sriram-PR/site-crawler/pkg/models"
	"github.com/Sriram-PR/site-crawler/pkg/parse"
	"github.com/Sriram-PR/site-crawler/pkg/robots"
	"github.com/Sriram-PR/site-crawler/pkg/utils"
	"github.com/Sriram-PR/site-crawler/pkg/visited"
)

// PageFetcher retrieves one page. See fetch.Fetcher.Fetch for the result contract.
type PageFetcher interface {
	Fetch(ctx context.Context, target *url.URL) (*fetch.Page, error)
}

// LinkExtractor returns the absolute links of an HTML body. It must never fail.
type LinkExtractor interface {
	Extract(base *url.URL, body []byte) []*url.URL
}

// Options configures a Scheduler
type Options struct {
	UserAgent        string        // Agent token for policy checks
	MaxDepth         int           // Units deeper than this are skipped; the seed is depth 0
	MaxConcurrency   int           // Permit pool size
	PerPageTimeout   time.Duration // 0 = none
	GlobalTimeout    time.Duration // 0 = none
	ProgressInterval time.Duration // 0 disables periodic progress logs
	RunID            string        // Generated when empty

	// OnPage, when set, is called once per traversal unit with its outcome.
	// It is called from many goroutines at once.
	OnPage func(models.PageResult)
}

// Scheduler drives one crawl: a tree of concurrent traversal units sharing one
// visited set and one permit pool.
type Scheduler struct {
	fetcher   PageFetcher
	extractor LinkExtractor
	policy    robots.Policy
	visited   visited.Set
	opts      Options

	permits  *semaphore.Weighted
	progress Progress
	runID    string
	log      *logrus.Entry
}

// NewScheduler creates a scheduler. A non-positive MaxConcurrency falls back to 10.
func NewScheduler(fetcher PageFetcher, extractor LinkExtractor, policy robots.Policy, set visited.Set, opts Options, log *logrus.Entry) *Scheduler {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 10
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Scheduler{
		fetcher:   fetcher,
		extractor: extractor,
		policy:    policy,
		visited:   set,
		opts:      opts,
		permits:   semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		runID:     runID,
		log:       log.WithFields(logrus.Fields{"component": "scheduler", "run_id": runID}),
	}
}

// RunID identifies this crawl in logs
func (s *Scheduler) RunID() string { return s.runID }

// Progress returns the current outcome counters
func (s *Scheduler) Progress() ProgressSnapshot { return s.progress.Snapshot() }

// Close releases the visited set
func (s *Scheduler) Close() error { return s.visited.Close() }

// Run validates seed and crawls from it at depth 0, blocking until every traversal
// unit has finished. Page failures never surface here: the only errors are a malformed
// seed (before any work starts) and the context error when the run was cancelled.
func (s *Scheduler) Run(ctx context.Context, seed string) error {
	seedURL, err := parse.ParseSeed(seed)
	if err != nil {
		s.log.WithField("url", seed).Errorf("Invalid seed: %v", err)
		return err
	}

	if s.opts.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GlobalTimeout)
		defer cancel()
	}

	runLog := s.log.WithFields(logrus.Fields{"seed": seedURL.String(), "max_depth": s.opts.MaxDepth})
	runLog.Infof("Crawl starting with %d permit(s)", s.opts.MaxConcurrency)
	start := time.Now()

	stopReporter := s.startProgressReporter(ctx)
	s.Crawl(ctx, seedURL, 0)
	stopReporter()

	summary := s.progress.Snapshot()
	summaryLog := runLog.WithFields(summary.Fields()).WithField("duration", time.Since(start).String())
	if err := ctx.Err(); err != nil {
		summaryLog.Warnf("Crawl stopped early: %v", err)
		return err
	}
	summaryLog.Info("Crawl finished")
	return nil
}

// startProgressReporter logs a progress line every ProgressInterval until the returned func is called
func (s *Scheduler) startProgressReporter(ctx context.Context) (stop func()) {
	if s.opts.ProgressInterval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(s.opts.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.log.WithFields(s.progress.Snapshot().Fields()).Info("Crawl progress")
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// Crawl processes target at depth and then crawls its same-domain children at depth+1,
// each in its own goroutine. It returns once the whole subtree has returned.
// Safe to call concurrently.
func (s *Scheduler) Crawl(ctx context.Context, target *url.URL, depth int) {
	s.crawlNode(ctx, models.VisitNode{URL: target, Depth: depth})
}

func (s *Scheduler) crawlNode(ctx context.Context, node models.VisitNode) {
	children := s.visit(ctx, node)
	if len(children) == 0 {
		return
	}

	var g errgroup.Group
	for _, child := range children {
		g.Go(func() error {
			s.crawlNode(ctx, child)
			return nil
		})
	}
	_ = g.Wait()
}

// visit runs one traversal unit through its checks and the fetch, returning the
// child nodes to schedule. Every exit records exactly one outcome.
func (s *Scheduler) visit(ctx context.Context, node models.VisitNode) (children []models.VisitNode) {
	target, depth := node.URL, node.Depth
	start := time.Now()
	result := models.PageResult{URL: target.String(), Depth: depth}
	taskLog := s.log.WithFields(logrus.Fields{"url": result.URL, "depth": depth})

	defer func() {
		if r := recover(); r != nil {
			children = nil
			result.Outcome = models.OutcomeInternalError
			result.ErrorType = "Internal_Panic"
			taskLog.WithFields(logrus.Fields{
				"panic_info":  r,
				"stack_trace": string(debug.Stack()),
			}).Error("PANIC recovered in traversal unit")
		}
		result.Duration = time.Since(start)
		result.ChildrenSent = len(children)
		s.progress.record(result.Outcome)
		if s.opts.OnPage != nil {
			s.opts.OnPage(result)
		}
	}()

	if ctx.Err() != nil {
		result.Outcome = models.OutcomeCancelled
		return nil
	}

	// Depth
	if depth > s.opts.MaxDepth {
		taskLog.Debugf("%v (max %d)", utils.ErrMaxDepthExceeded, s.opts.MaxDepth)
		result.Outcome = models.OutcomeSkippedDepth
		return nil
	}

	// Policy
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if !s.policy.IsAllowed(s.opts.UserAgent, path) {
		taskLog.WithField("path", path).Info(utils.ErrPolicyDenied.Error())
		result.Outcome = models.OutcomeSkippedPolicy
		return nil
	}

	// Dedup
	key := parse.Canonicalize(target)
	result.CanonicalURL = key
	claimed, err := s.visited.TryVisit(key)
	if err != nil {
		result.Outcome = models.OutcomeInternalError
		result.ErrorType = utils.CategorizeError(err)
		taskLog.WithField("category", result.ErrorType).Errorf("Visited set failure, skipping: %v", err)
		return nil
	}
	if !claimed {
		taskLog.Debug(utils.ErrAlreadyVisited.Error())
		result.Outcome = models.OutcomeSkippedVisited
		return nil
	}
	s.progress.visited.Add(1)

	links := s.fetchWithPermit(ctx, target, &result, taskLog)
	if result.Outcome != models.OutcomeFetched {
		return nil
	}
	result.LinksFound = len(links)

	for _, link := range links {
		if parse.SameDomain(target, link) {
			children = append(children, models.VisitNode{URL: link, Depth: depth + 1})
		}
	}
	taskLog.WithFields(logrus.Fields{
		"status_code": result.StatusCode,
		"links":       result.LinksFound,
		"children":    len(children),
		"duration":    time.Since(start).String(),
	}).Info("Page fetched")
	return children
}

// fetchWithPermit holds one permit across the fetch and link extraction. The permit is
// released on every path out, panics included.
func (s *Scheduler) fetchWithPermit(ctx context.Context, target *url.URL, result *models.PageResult, taskLog *logrus.Entry) []*url.URL {
	if err := s.permits.Acquire(ctx, 1); err != nil {
		taskLog.Debugf("Permit not acquired: %v", err)
		result.Outcome = models.OutcomeCancelled
		return nil
	}
	s.progress.inFlight.Add(1)
	defer func() {
		s.progress.inFlight.Add(-1)
		s.permits.Release(1)
	}()

	pageCtx := ctx
	if s.opts.PerPageTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, s.opts.PerPageTimeout)
		defer cancel()
	}

	page, err := s.fetcher.Fetch(pageCtx, target)
	if page != nil {
		result.StatusCode = page.StatusCode
	}
	if err != nil {
		s.classifyFetchError(ctx, err, result, taskLog)
		return nil
	}

	base := page.FinalURL
	if base == nil {
		base = target
	}
	result.Outcome = models.OutcomeFetched
	return s.extractor.Extract(base, page.Body)
}

func (s *Scheduler) classifyFetchError(ctx context.Context, err error, result *models.PageResult, taskLog *logrus.Entry) {
	if ctx.Err() != nil {
		// The crawl itself was stopped; the in-flight fetch drained
		result.Outcome = models.OutcomeCancelled
		taskLog.Debugf("Fetch interrupted by cancellation: %v", err)
		return
	}

	if utils.IsNonSuccessStatus(err) {
		result.Outcome = models.OutcomeNonSuccess
	} else {
		result.Outcome = models.OutcomeTransportError
	}
	result.ErrorType = utils.CategorizeError(err)

	fields := logrus.Fields{"category": result.ErrorType}
	if result.StatusCode != 0 {
		fields["status_code"] = result.StatusCode
	}
	taskLog.WithFields(fields).Warnf("Fetch failed: %v", err)
}
