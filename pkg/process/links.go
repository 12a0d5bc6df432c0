package process

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// LinkExtractor finds hyperlinks in an HTML document
type LinkExtractor struct {
	respectNofollow bool
	log             *logrus.Entry
}

// NewLinkExtractor creates a LinkExtractor. With respectNofollow set, anchors
// carrying rel="nofollow" are skipped.
func NewLinkExtractor(respectNofollow bool, log *logrus.Entry) *LinkExtractor {
	return &LinkExtractor{
		respectNofollow: respectNofollow,
		log:             log.WithField("component", "link_extractor"),
	}
}

// Extract returns the absolute http(s) URLs referenced by a[href] elements of body,
// resolved against base, in document order and without duplicates.
// Malformed markup or hrefs never fail the call; they only shrink the result.
func (le *LinkExtractor) Extract(base *url.URL, body []byte) []*url.URL {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		le.log.WithField("url", base.String()).Debugf("Cannot parse document: %v", err)
		return nil
	}

	var links []*url.URL
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		if le.respectNofollow {
			if rel, _ := el.Attr("rel"); containsToken(rel, "nofollow") {
				le.log.Debugf("Skipping nofollow link: %s", href)
				return
			}
		}

		linkURL, err := base.Parse(href)
		if err != nil {
			le.log.Debugf("Dropping malformed href '%s': %v", href, err)
			return
		}
		if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
			return // mailto:, javascript:, tel: ...
		}

		key := linkURL.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, linkURL)
	})

	return links
}

func containsToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}
