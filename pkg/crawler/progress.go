package crawler

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/site-crawler/pkg/models"
)

// Progress counts traversal outcomes for one run. Safe for concurrent use.
type Progress struct {
	visited        atomic.Int64 // URLs claimed in the visited set
	fetched        atomic.Int64
	failed         atomic.Int64
	skippedPolicy  atomic.Int64
	skippedVisited atomic.Int64
	skippedDepth   atomic.Int64
	cancelled      atomic.Int64
	inFlight       atomic.Int64 // Permits currently held
}

// ProgressSnapshot is a point-in-time copy of Progress
type ProgressSnapshot struct {
	Visited        int64 `json:"visited"`
	Fetched        int64 `json:"fetched"`
	Failed         int64 `json:"failed"`
	SkippedPolicy  int64 `json:"skipped_policy"`
	SkippedVisited int64 `json:"skipped_visited"`
	SkippedDepth   int64 `json:"skipped_depth"`
	Cancelled      int64 `json:"cancelled"`
	InFlight       int64 `json:"in_flight"`
}

func (p *Progress) record(outcome models.PageOutcome) {
	switch outcome {
	case models.OutcomeFetched:
		p.fetched.Add(1)
	case models.OutcomeSkippedPolicy:
		p.skippedPolicy.Add(1)
	case models.OutcomeSkippedVisited:
		p.skippedVisited.Add(1)
	case models.OutcomeSkippedDepth:
		p.skippedDepth.Add(1)
	case models.OutcomeCancelled:
		p.cancelled.Add(1)
	default:
		if outcome.IsFailure() {
			p.failed.Add(1)
		}
	}
}

// Snapshot returns the current counter values
func (p *Progress) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Visited:        p.visited.Load(),
		Fetched:        p.fetched.Load(),
		Failed:         p.failed.Load(),
		SkippedPolicy:  p.skippedPolicy.Load(),
		SkippedVisited: p.skippedVisited.Load(),
		SkippedDepth:   p.skippedDepth.Load(),
		Cancelled:      p.cancelled.Load(),
		InFlight:       p.inFlight.Load(),
	}
}

// Fields renders the snapshot as log fields
func (s ProgressSnapshot) Fields() logrus.Fields {
	return logrus.Fields{
		"visited":         s.Visited,
		"fetched":         s.Fetched,
		"failed":          s.Failed,
		"skipped_policy":  s.SkippedPolicy,
		"skipped_visited": s.SkippedVisited,
		"skipped_depth":   s.SkippedDepth,
		"cancelled":       s.Cancelled,
		"in_flight":       s.InFlight,
	}
}
