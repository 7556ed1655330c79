package webcrawl

import "time"

// Default configuration values.
const (
	DefaultMaxDepth           = 3
	DefaultMaxPagesPerDomain  = 100
	DefaultConcurrency        = 10
	DefaultMinRequestInterval = 100 * time.Millisecond
	DefaultUserAgent          = "webcrawl/0.1"
	DefaultRequestTimeout     = 10 * time.Second
)

// Config is the configuration for one crawl run.
// It is read-only once the crawl has started.
//
// The crawl limits are read by crawl.Crawler. The request settings are
// read by the fetcher; see http.WithConfig.
type Config struct {
	MaxDepth          int
	MaxPagesPerDomain int
	Concurrency       int

	MinRequestInterval time.Duration
	UserAgent          string
	RequestTimeout     time.Duration
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		MaxDepth:           DefaultMaxDepth,
		MaxPagesPerDomain:  DefaultMaxPagesPerDomain,
		Concurrency:        DefaultConcurrency,
		MinRequestInterval: DefaultMinRequestInterval,
		UserAgent:          DefaultUserAgent,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxPagesPerDomain < 1 {
		return Errorf(EINVALID, "max pages per domain must be >= 1, got %d", c.MaxPagesPerDomain)
	}
	if c.Concurrency < 1 {
		return Errorf(EINVALID, "concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.MinRequestInterval < 0 {
		return Errorf(EINVALID, "min request interval must be >= 0, got %s", c.MinRequestInterval)
	}
	if c.RequestTimeout < 0 {
		return Errorf(EINVALID, "request timeout must be >= 0, got %s", c.RequestTimeout)
	}
	return nil
}
