package models

import (
	"net/url"
	"time"
)

// VisitNode is one unit of traversal work: a URL discovered at a given depth.
// It is created on discovery, consumed once by the scheduler and never mutated.
type VisitNode struct {
	URL   *url.URL
	Depth int // Seed is 0
}

// PageResult describes how a single traversal unit ended
type PageResult struct {
	URL          string        `json:"url"`
	CanonicalURL string        `json:"canonical_url,omitempty"`
	Depth        int           `json:"depth"`
	Outcome      PageOutcome   `json:"outcome"`
	StatusCode   int           `json:"status_code,omitempty"` // Set once a response was received
	LinksFound   int           `json:"links_found,omitempty"` // Candidate links returned by the extractor
	ChildrenSent int           `json:"children_sent,omitempty"`
	ErrorType    string        `json:"error_type,omitempty"` // utils.CategorizeError output on failure
	Duration     time.Duration `json:"duration"`
}
