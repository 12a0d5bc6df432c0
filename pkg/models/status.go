package models

// PageOutcome is the terminal state a traversal unit reached. Every outcome is
// a normal end of the unit's life; none of them aborts the crawl.
type PageOutcome string

const (
	OutcomeUnset          PageOutcome = ""                // Zero value = unit still in progress
	OutcomeFetched        PageOutcome = "fetched"         // 2xx response, links extracted
	OutcomeSkippedDepth   PageOutcome = "skipped_depth"   // depth > max depth
	OutcomeSkippedVisited PageOutcome = "skipped_visited" // canonical URL already claimed
	OutcomeSkippedPolicy  PageOutcome = "skipped_policy"  // robots policy denied the path
	OutcomeNonSuccess     PageOutcome = "non_success"     // response received with a non-2xx status
	OutcomeTransportError PageOutcome = "transport_error" // fetch could not complete
	OutcomeCancelled      PageOutcome = "cancelled"       // crawl context done before the fetch
	OutcomeInternalError  PageOutcome = "internal_error"  // visited-set failure or recovered panic
)

// String implements fmt.Stringer for logging
func (o PageOutcome) String() string {
	if o == "" {
		return "unset"
	}
	return string(o)
}

// IsSkip reports whether the unit ended at a check before any fetch was attempted
func (o PageOutcome) IsSkip() bool {
	switch o {
	case OutcomeSkippedDepth, OutcomeSkippedVisited, OutcomeSkippedPolicy:
		return true
	}
	return false
}

// IsFailure reports whether the unit attempted work and failed
func (o PageOutcome) IsFailure() bool {
	switch o {
	case OutcomeNonSuccess, OutcomeTransportError, OutcomeInternalError:
		return true
	}
	return false
}
