package marketapi

import (
	"net/http"
	"sync"
	"time"

	"wfmarket-sync/internal/pacing"
)

// Default request headers.
const (
	DefaultLanguage  = "en"
	DefaultPlatform  = "pc"
	DefaultUserAgent = "wfmarket-sync/1.0"
)

// Client provides access to the marketplace REST API.
type Client struct {
	httpClient *http.Client
	language   string
	platform   string
	userAgent  string

	retry RetryPolicy
	gate  *pacing.Gate

	mu     sync.Mutex
	probed *probedCatalog
}

// probedCatalog is the catalog body decoded while resolving a base.
type probedCatalog struct {
	url  string
	resp *ItemsResponse
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		language:  DefaultLanguage,
		platform:  DefaultPlatform,
		userAgent: DefaultUserAgent,
		retry:     NoRetry(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHeaders sets the language, platform and client identification headers.
// Empty values keep the defaults.
func WithHeaders(language, platform, userAgent string) ClientOption {
	return func(c *Client) {
		if language != "" {
			c.language = language
		}
		if platform != "" {
			c.platform = platform
		}
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryPolicy sets the retry strategy applied to every request.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithGate spaces every outbound request, retries included, through g.
func WithGate(g *pacing.Gate) ClientOption {
	return func(c *Client) {
		c.gate = g
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
