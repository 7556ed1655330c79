// Package http provides an HTTP-based implementation of webcrawl.Fetcher.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/fwojciec/webcrawl"
	"github.com/fwojciec/webcrawl/crawl"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodySize is the default limit on bytes read from a response body.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements webcrawl.Fetcher at compile time.
var _ webcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves page content using HTTP GET requests.
// Requests to the same host are spaced by the configured DomainLimiter.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	limiter     webcrawl.DomainLimiter
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
// Defaults to webcrawl.DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithLimiter sets the limiter consulted before each request.
// Without one, requests are never delayed.
func WithLimiter(l webcrawl.DomainLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithConfig applies the request settings of a crawl configuration: the
// timeout, the User-Agent, and a per-host limiter spacing requests by
// MinRequestInterval. Zero fields keep the current settings.
func WithConfig(cfg webcrawl.Config) Option {
	return func(f *Fetcher) {
		if cfg.RequestTimeout > 0 {
			f.timeout = cfg.RequestTimeout
		}
		if cfg.UserAgent != "" {
			f.userAgent = cfg.UserAgent
		}
		if cfg.MinRequestInterval > 0 {
			f.limiter = crawl.NewDomainLimiter(cfg.MinRequestInterval)
		}
	}
}

// WithMaxBodySize caps the number of bytes read from a response body.
// Longer bodies are truncated. Defaults to DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultFetchTimeout,
		userAgent:   webcrawl.DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	// Cookies set by a site are sent back to it for the rest of the crawl.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	f.client = &http.Client{
		Timeout: f.timeout,
		Jar:     jar,
	}

	return f
}

// Fetch retrieves the content of the given URL decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", webcrawl.Errorf(webcrawl.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", webcrawl.Errorf(webcrawl.EMISSINGHOST, "missing host in %q", rawURL)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, host); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", webcrawl.Errorf(webcrawl.EINVALID, "failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", webcrawl.Errorf(webcrawl.EHTTPSTATUS, "HTTP %d for %s", resp.StatusCode, rawURL)
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		body = io.LimitReader(body, f.maxBodySize)
	}

	r, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", webcrawl.Errorf(webcrawl.ENETWORK, "failed to decode body of %s: %v", rawURL, err)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return "", classify(ctx, rawURL, err)
	}

	return string(content), nil
}

// classify maps a transport error to a webcrawl error code.
// Cancellation of ctx is returned unchanged.
func classify(ctx context.Context, rawURL string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return webcrawl.Errorf(webcrawl.ETIMEOUT, "request to %s timed out: %v", rawURL, err)
	}
	return webcrawl.Errorf(webcrawl.ENETWORK, "request to %s failed: %v", rawURL, err)
}
