package crawler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/fetch"
	"github.com/Sriram-PR/site-crawler/pkg/models"
	"github.com/Sriram-PR/site-crawler/pkg/parse"
	"github.com/Sriram-PR/site-crawler/pkg/process"
	"github.com/Sriram-PR/site-crawler/pkg/robots"
	"github.com/Sriram-PR/site-crawler/pkg/visited"
)

// Setup wires the production collaborators for one crawl of seed: HTTP client, fetcher,
// the site's robots policy, the visited set and the link extractor.
// cfg must already be validated. The caller runs the returned scheduler and closes it.
func Setup(ctx context.Context, cfg *config.AppConfig, seed string, client *http.Client, onPage func(models.PageResult), log *logrus.Entry) (*Scheduler, error) {
	seedURL, err := parse.ParseSeed(seed)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = fetch.NewClient(cfg.HTTPClientSettings, log)
	}

	fetcher := fetch.NewFetcher(client, cfg, log)
	document := fetch.NewRobotsFetcher(fetcher, log).FetchRobotsDocument(ctx, seedURL)

	policy, err := robots.NewPolicy(document, cfg.RobotsPrecedence)
	if err != nil {
		// Unparsable document: permit everything, as when no document exists
		log.WithField("url", seedURL.String()).Warnf("Robots document unusable, all paths permitted: %v", err)
		policy = robots.Parse("")
	}

	runID := uuid.NewString()
	set, err := visited.Open(cfg.VisitedBackend, cfg.StateDir, runID, log)
	if err != nil {
		return nil, fmt.Errorf("opening visited set: %w", err)
	}

	opts := Options{
		UserAgent:        cfg.UserAgent,
		MaxDepth:         cfg.MaxDepth,
		MaxConcurrency:   cfg.MaxConcurrency,
		PerPageTimeout:   cfg.PerPageTimeout,
		GlobalTimeout:    cfg.GlobalCrawlTimeout,
		ProgressInterval: cfg.ProgressInterval,
		RunID:            runID,
		OnPage:           onPage,
	}
	extractor := process.NewLinkExtractor(cfg.RespectNofollow, log)
	return NewScheduler(fetcher, extractor, policy, set, opts, log), nil
}
