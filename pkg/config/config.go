package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/site-crawler/pkg/utils"
)

// Robots precedence modes
const (
	PrecedenceAllowFirst   = "allow_first"
	PrecedenceLongestMatch = "longest_match"
)

// Visited-set backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// AppConfig holds the configuration of one crawl run
type AppConfig struct {
	UserAgent          string           `yaml:"user_agent"`
	MaxDepth           int              `yaml:"max_depth"`
	MaxConcurrency     int              `yaml:"max_concurrency"`
	PerPageTimeout     time.Duration    `yaml:"per_page_timeout,omitempty"`     // 0 = no timeout
	GlobalCrawlTimeout time.Duration    `yaml:"global_crawl_timeout,omitempty"` // 0 = no timeout
	MaxRetries         int              `yaml:"max_retries,omitempty"`
	InitialRetryDelay  time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration    `yaml:"max_retry_delay,omitempty"`
	MaxPageSizeBytes   int64            `yaml:"max_page_size_bytes,omitempty"`
	RespectNofollow    bool             `yaml:"respect_nofollow,omitempty"`
	RobotsPrecedence   string           `yaml:"robots_precedence,omitempty"`
	VisitedBackend     string           `yaml:"visited_backend,omitempty"`
	StateDir           string           `yaml:"state_dir,omitempty"`
	ProgressInterval   time.Duration    `yaml:"progress_interval,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`

	// maxDepthSet distinguishes an explicit max_depth: 0 (seed only) from an absent key
	maxDepthSet bool
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"`
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"` // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`
}

// Default returns a config with every default applied
func Default() *AppConfig {
	cfg := &AppConfig{}
	_, _ = cfg.Validate()
	return cfg
}

// Load reads a YAML config file. Defaults are not applied; call Validate.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file '%s': %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes
func Parse(data []byte) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing YAML: %w", utils.ErrConfigValidation, err)
	}

	// Record whether max_depth was present so an explicit 0 survives Validate
	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err == nil {
		_, cfg.maxDepthSet = keys["max_depth"]
	}
	return cfg, nil
}

// SetMaxDepth sets an explicit depth limit, including 0
func (c *AppConfig) SetMaxDepth(depth int) {
	c.MaxDepth = depth
	c.maxDepthSet = true
}
