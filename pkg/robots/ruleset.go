package robots

import (
	"sort"
	"strings"
)

// WildcardAgent is the fallback group consulted when no exact agent entry exists
const WildcardAgent = "*"

// Rules holds one agent's path prefixes in document order
type Rules struct {
	Allow    []string
	Disallow []string
}

// Directive is one effective line of a parsed document
type Directive struct {
	Field string // "user-agent", "allow" or "disallow"
	Value string
}

// RuleSet maps lower-cased user-agent tokens to their rules.
// It is immutable once Parse returns and safe for concurrent reads.
type RuleSet struct {
	agents     map[string]*Rules
	directives []Directive
}

// Parse builds a RuleSet from a robots document. It never fails: lines without a colon
// and unknown fields are skipped, and an empty document yields a set with no agents.
//
// User-agent lines accumulate into the active agent list, which is never reset. Every
// allow/disallow line therefore applies to all agents named so far in the document,
// not only to the most recent group.
func Parse(document string) *RuleSet {
	rs := &RuleSet{agents: make(map[string]*Rules)}
	var active []string

	for _, line := range strings.Split(document, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			agent := strings.ToLower(value)
			active = append(active, agent)
			if _, exists := rs.agents[agent]; !exists {
				rs.agents[agent] = &Rules{}
			}
			rs.directives = append(rs.directives, Directive{Field: field, Value: agent})
		case "disallow":
			if len(active) == 0 {
				continue
			}
			for _, agent := range active {
				rs.agents[agent].Disallow = append(rs.agents[agent].Disallow, value)
			}
			rs.directives = append(rs.directives, Directive{Field: field, Value: value})
		case "allow":
			if len(active) == 0 {
				continue
			}
			for _, agent := range active {
				rs.agents[agent].Allow = append(rs.agents[agent].Allow, value)
			}
			rs.directives = append(rs.directives, Directive{Field: field, Value: value})
		}
	}
	return rs
}

// IsAllowed reports whether path may be fetched by agent.
//
// The exact lower-cased agent entry is used, else the "*" entry; with neither the path
// is allowed. Within an entry any matching allow prefix wins over every disallow prefix,
// regardless of length or position. Prefixes match literally, so an empty value
// matches every path.
func (rs *RuleSet) IsAllowed(agent, path string) bool {
	rules := rs.lookup(agent)
	if rules == nil {
		return true
	}
	for _, prefix := range rules.Allow {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, prefix := range rules.Disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func (rs *RuleSet) lookup(agent string) *Rules {
	if rs == nil {
		return nil
	}
	if rules, ok := rs.agents[strings.ToLower(agent)]; ok {
		return rules
	}
	return rs.agents[WildcardAgent]
}

// Agents returns the known agent tokens, sorted
func (rs *RuleSet) Agents() []string {
	if rs == nil {
		return nil
	}
	agents := make([]string, 0, len(rs.agents))
	for agent := range rs.agents {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	return agents
}

// Rules returns a copy of the rules stored for agent (no wildcard fallback)
func (rs *RuleSet) Rules(agent string) (Rules, bool) {
	if rs == nil {
		return Rules{}, false
	}
	rules, ok := rs.agents[strings.ToLower(agent)]
	if !ok {
		return Rules{}, false
	}
	return Rules{
		Allow:    append([]string(nil), rules.Allow...),
		Disallow: append([]string(nil), rules.Disallow...),
	}, true
}

// Directives returns the effective directives in document order
func (rs *RuleSet) Directives() []Directive {
	if rs == nil {
		return nil
	}
	return append([]Directive(nil), rs.directives...)
}

// Serialize renders the rule set as a robots document. Parsing the output yields the
// same agents with the same allow and disallow lists.
func (rs *RuleSet) Serialize() string {
	var b strings.Builder
	for _, d := range rs.Directives() {
		switch d.Field {
		case "user-agent":
			b.WriteString("User-agent: ")
		case "allow":
			b.WriteString("Allow: ")
		case "disallow":
			b.WriteString("Disallow: ")
		}
		b.WriteString(d.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
