package fetch

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"
)

// RobotsFetcher retrieves a site's robots document. Failures never surface as errors:
// any transport error or non-2xx status yields an empty document, which permits everything.
type RobotsFetcher struct {
	fetcher *Fetcher
	log     *logrus.Entry
}

// NewRobotsFetcher creates a robots document fetcher on top of fetcher
func NewRobotsFetcher(fetcher *Fetcher, log *logrus.Entry) *RobotsFetcher {
	return &RobotsFetcher{fetcher: fetcher, log: log.WithField("component", "robots_fetcher")}
}

// RobotsURL returns {scheme}://{host}/robots.txt for base
func RobotsURL(base *url.URL) *url.URL {
	return &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}
}

// FetchRobotsDocument returns the robots document text for base's host, or "" on failure
func (rf *RobotsFetcher) FetchRobotsDocument(ctx context.Context, base *url.URL) string {
	robotsURL := RobotsURL(base)
	robotsLog := rf.log.WithField("robots_url", robotsURL.String())

	page, err := rf.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		fields := logrus.Fields{"error": err}
		if page != nil {
			fields["status_code"] = page.StatusCode
		}
		robotsLog.WithFields(fields).Info("No usable robots document, all paths permitted")
		return ""
	}

	robotsLog.WithField("bytes", len(page.Body)).Debug("Fetched robots document")
	return string(page.Body)
}
