package dynamix

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/aydabd/http-dynamix/internal/backoff"
)

// Client holds the shared, immutable configuration for every chain derived
// from it: base URL, naming convention, default headers, auth provider,
// transport and the retry/backoff policy. A single Client is safe for
// concurrent use; chains built from it never mutate it.
type Client struct {
	baseURL        string
	format         SegmentFormat
	knownPaths     map[string]string
	defaultHeaders http.Header
	auth           AuthProvider

	gateway    Transport
	middleware []Middleware
	timeout    time.Duration

	maxAttempts       int
	backoffBase       time.Duration
	backoffCap        time.Duration
	backoffMultiplier float64
	jitter            float64
	strategy          backoff.Strategy
	retryPolicy       RetryPolicy

	limiter *rate.Limiter
	breaker *CircuitBreaker
	metrics *MetricsCollector
	logger  Logger
	cidGen  func() string

	validationError error
}

// New constructs a Client for the given base URL using functional options.
// Validation is best effort; call IsValid / ValidationError for errors.
// Dispatching with an invalid configuration fails with a Validation error.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:           baseURL,
		format:            FormatUnchanged,
		knownPaths:        map[string]string{},
		defaultHeaders:    http.Header{},
		timeout:           30 * time.Second,
		maxAttempts:       3,
		backoffBase:       100 * time.Millisecond,
		backoffCap:        10 * time.Second,
		backoffMultiplier: 2.0,
		jitter:            0.1,
		strategy:          backoff.ExponentialJitter{},
	}

	for _, option := range options {
		option(c)
	}

	if c.gateway == nil {
		c.gateway = NewHTTPGateway(&http.Client{Timeout: c.timeout})
	}
	if c.retryPolicy == nil {
		c.retryPolicy = &DefaultRetryPolicy{
			MaxAttempts: c.maxAttempts,
			BackoffBase: c.backoffBase,
			BackoffCap:  c.backoffCap,
			Multiplier:  c.backoffMultiplier,
			Jitter:      c.jitter,
			Strategy:    c.strategy,
		}
	}

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}
	return c
}

// Root returns an empty chain sharing this client's configuration.
func (c *Client) Root() *Path {
	return &Path{client: c}
}

// Child starts a chain with literal segments.
func (c *Client) Child(names ...string) *Path {
	return c.Root().Child(names...)
}

// Resolve applies the capability-dispatch protocol starting at the root.
func (c *Client) Resolve(name string, args ...any) (Step, error) {
	return c.Root().Resolve(name, args...)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// correlationID produces the id attached to every log record and error of
// one dispatch.
func (c *Client) correlationID() string {
	if c.cidGen != nil {
		return c.cidGen()
	}
	return uuid.NewString()
}
