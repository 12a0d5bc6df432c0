package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

// Canonicalize returns the deduplication key for u.
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https),
// turns an empty path into "/" and drops the fragment. The query string is kept.
// Does not modify the input *url.URL
func Canonicalize(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u

	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)

	if host, port, err := net.SplitHostPort(c.Host); err == nil {
		if (c.Scheme == "http" && port == "80") || (c.Scheme == "https" && port == "443") {
			c.Host = host
		}
	}

	if c.Path == "" && c.Opaque == "" {
		c.Path = "/"
		c.RawPath = ""
	}

	c.Fragment = ""
	c.RawFragment = ""

	return c.String()
}

// ParseSeed validates a seed URL: it must be absolute, use http or https and name a host.
// Any failure wraps ErrMalformedURL.
func ParseSeed(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty URL", utils.ErrMalformedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrMalformedURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, fmt.Errorf("%w: '%s' is not absolute", utils.ErrMalformedURL, raw)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme '%s'", utils.ErrMalformedURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: '%s' has no host", utils.ErrMalformedURL, raw)
	}
	return u, nil
}

// SameDomain reports whether a and b name exactly the same host.
// Ports are ignored and subdomains count as different domains.
func SameDomain(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Hostname() != "" && strings.EqualFold(a.Hostname(), b.Hostname())
}
