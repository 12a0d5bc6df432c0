package crawler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	"github.com/Sriram-PR/site-crawler/pkg/fetch"
	"github.com/Sriram-PR/site-crawler/pkg/parse"
	"github.com/Sriram-PR/site-crawler/pkg/robots"
)

// RobotsReport describes the robots rules a crawl of one site would obey
type RobotsReport struct {
	RobotsURL  string   `json:"robots_url"`
	UserAgent  string   `json:"user_agent"`
	Precedence string   `json:"precedence"`
	Agents     []string `json:"agents"`
	Rules      string   `json:"rules"`
	Path       string   `json:"path,omitempty"`
	Allowed    *bool    `json:"allowed,omitempty"`
}

// InspectRobots fetches the robots document for siteURL's host and parses it.
// When path is non-empty the report carries the verdict for cfg.UserAgent on that path,
// decided with the configured precedence.
func InspectRobots(ctx context.Context, cfg *config.AppConfig, siteURL, path string, client *http.Client, log *logrus.Entry) (*RobotsReport, error) {
	base, err := parse.ParseSeed(siteURL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = fetch.NewClient(cfg.HTTPClientSettings, log)
	}

	fetcher := fetch.NewFetcher(client, cfg, log)
	document := fetch.NewRobotsFetcher(fetcher, log).FetchRobotsDocument(ctx, base)
	ruleSet := robots.Parse(document)

	report := &RobotsReport{
		RobotsURL:  fetch.RobotsURL(base).String(),
		UserAgent:  cfg.UserAgent,
		Precedence: cfg.RobotsPrecedence,
		Agents:     ruleSet.Agents(),
		Rules:      ruleSet.Serialize(),
	}
	if path == "" {
		return report, nil
	}

	policy, err := robots.NewPolicy(document, cfg.RobotsPrecedence)
	if err != nil {
		log.WithField("robots_url", report.RobotsURL).Warnf("Robots document unusable, all paths permitted: %v", err)
		policy = robots.Parse("")
	}
	allowed := policy.IsAllowed(cfg.UserAgent, path)
	report.Path = path
	report.Allowed = &allowed
	return report, nil
}
