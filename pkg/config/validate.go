package config

import (
	"fmt"
	"time"

	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

const (
	DefaultUserAgent        = "site-crawler/1.0"
	DefaultMaxDepth         = 3
	DefaultMaxConcurrency   = 10
	DefaultMaxPageSizeBytes = 10 * 1024 * 1024
	DefaultStateDir         = "./crawler_state"
)

// Validate checks AppConfig fields and applies defaults in place.
// Out-of-range values produce warnings; only an unknown enum value is fatal.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	// MaxDepth
	if c.MaxDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("max_depth cannot be negative, defaulting to %d", DefaultMaxDepth))
		c.MaxDepth = DefaultMaxDepth
	} else if c.MaxDepth == 0 && !c.maxDepthSet {
		c.MaxDepth = DefaultMaxDepth
	}
	c.maxDepthSet = true

	// MaxConcurrency
	if c.MaxConcurrency < 0 {
		warnings = append(warnings, fmt.Sprintf("max_concurrency should be > 0, defaulting to %d", DefaultMaxConcurrency))
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}

	// Timeouts
	if c.PerPageTimeout < 0 {
		warnings = append(warnings, "per_page_timeout cannot be negative, disabling timeout")
		c.PerPageTimeout = 0
	}
	if c.GlobalCrawlTimeout < 0 {
		warnings = append(warnings, "global_crawl_timeout cannot be negative, disabling timeout")
		c.GlobalCrawlTimeout = 0
	}

	// Retries are off unless configured
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = 500 * time.Millisecond
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 5 * time.Second
	}
	if c.InitialRetryDelay > c.MaxRetryDelay {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes < 0 {
		warnings = append(warnings, "max_page_size_bytes cannot be negative, using default")
	}
	if c.MaxPageSizeBytes <= 0 {
		c.MaxPageSizeBytes = DefaultMaxPageSizeBytes
	}

	if c.ProgressInterval < 0 {
		warnings = append(warnings, "progress_interval cannot be negative, disabling progress reports")
		c.ProgressInterval = 0
	}

	// Enums
	switch c.RobotsPrecedence {
	case "":
		c.RobotsPrecedence = PrecedenceAllowFirst
	case PrecedenceAllowFirst, PrecedenceLongestMatch:
	default:
		return warnings, fmt.Errorf("%w: robots_precedence '%s' must be '%s' or '%s'",
			utils.ErrConfigValidation, c.RobotsPrecedence, PrecedenceAllowFirst, PrecedenceLongestMatch)
	}

	switch c.VisitedBackend {
	case "":
		c.VisitedBackend = BackendMemory
	case BackendMemory, BackendBadger:
	default:
		return warnings, fmt.Errorf("%w: visited_backend '%s' must be '%s' or '%s'",
			utils.ErrConfigValidation, c.VisitedBackend, BackendMemory, BackendBadger)
	}

	if c.StateDir == "" {
		if c.VisitedBackend == BackendBadger {
			warnings = append(warnings, fmt.Sprintf("state_dir is empty, defaulting to '%s'", DefaultStateDir))
		}
		c.StateDir = DefaultStateDir
	}

	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		// A crawl touches one host, so idle conns are sized to the permit pool
		h.MaxIdleConnsPerHost = c.MaxConcurrency
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
