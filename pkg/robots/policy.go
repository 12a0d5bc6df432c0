package robots

import (
	"fmt"

	"github.com/temoto/robotstxt"
)

// Policy answers whether an agent may fetch a path
type Policy interface {
	IsAllowed(agent, path string) bool
}

// Precedence modes accepted by NewPolicy
const (
	AllowFirst   = "allow_first"
	LongestMatch = "longest_match"
)

// StandardPolicy evaluates a document with longest-match precedence and group-based
// agent matching, as implemented by temoto/robotstxt.
type StandardPolicy struct {
	data *robotstxt.RobotsData
}

// NewStandardPolicy parses document with robotstxt
func NewStandardPolicy(document string) (*StandardPolicy, error) {
	data, err := robotstxt.FromString(document)
	if err != nil {
		return nil, fmt.Errorf("parsing robots document: %w", err)
	}
	return &StandardPolicy{data: data}, nil
}

// IsAllowed reports whether path may be fetched by agent
func (p *StandardPolicy) IsAllowed(agent, path string) bool {
	if p == nil || p.data == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return p.data.TestAgent(path, agent)
}

// NewPolicy builds the policy for the given precedence mode.
// An unparsable document under longest_match falls back to allow-all.
func NewPolicy(document, precedence string) (Policy, error) {
	switch precedence {
	case "", AllowFirst:
		return Parse(document), nil
	case LongestMatch:
		p, err := NewStandardPolicy(document)
		if err != nil {
			return &StandardPolicy{}, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown robots precedence '%s'", precedence)
	}
}
