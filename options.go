package dynamix

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/aydabd/http-dynamix/internal/backoff"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithSegmentFormat sets the naming convention applied to literal segments.
func WithSegmentFormat(format SegmentFormat) Option {
	return func(c *Client) { c.format = format }
}

// WithKnownPath pins the rendering of one segment name, bypassing the
// convention entirely.
func WithKnownPath(name, rendered string) Option {
	return func(c *Client) { c.knownPaths[name] = rendered }
}

// WithKnownPaths merges a set of pinned segment renderings.
func WithKnownPaths(paths map[string]string) Option {
	return func(c *Client) {
		for name, rendered := range paths {
			c.knownPaths[name] = rendered
		}
	}
}

// WithDefaultHeader sets a header applied to every request. Per-call headers
// take precedence.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.defaultHeaders.Set(key, value) }
}

// WithDefaultHeaders merges a set of default headers.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.defaultHeaders.Set(key, value)
		}
	}
}

// WithAuth sets the auth provider consulted on every dispatch. Auth never
// displaces a header or query parameter that is already present.
func WithAuth(provider AuthProvider) Option {
	return func(c *Client) { c.auth = provider }
}

// WithTransport replaces the transport gateway.
func WithTransport(transport Transport) Option {
	return func(c *Client) { c.gateway = transport }
}

// WithHTTPClient uses the supplied http.Client for the gateway.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.gateway = NewHTTPGateway(httpClient) }
}

// WithTimeout sets the per-attempt timeout of the default gateway. Ignored
// when WithTransport or WithHTTPClient supplies the transport.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithMiddleware appends middleware to the transport chain, outermost first.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) { c.middleware = append(c.middleware, middleware...) }
}

// WithMaxAttempts sets the total attempt budget, first try included.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) { c.maxAttempts = attempts }
}

// WithInitialBackoff sets the base delay of the backoff schedule.
func WithInitialBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

// WithMaxBackoff caps the computed backoff delay.
func WithMaxBackoff(ceiling time.Duration) Option {
	return func(c *Client) { c.backoffCap = ceiling }
}

// WithBackoffMultiplier sets the exponential growth factor.
func WithBackoffMultiplier(multiplier float64) Option {
	return func(c *Client) { c.backoffMultiplier = multiplier }
}

// WithJitter sets the jitter fraction in [0, 1] applied to backoff delays.
func WithJitter(jitter float64) Option {
	return func(c *Client) { c.jitter = jitter }
}

// WithBackoffStrategy replaces the delay computation.
func WithBackoffStrategy(strategy backoff.Strategy) Option {
	return func(c *Client) { c.strategy = strategy }
}

// WithDecorrelatedJitter switches to decorrelated jitter backoff.
func WithDecorrelatedJitter() Option {
	return func(c *Client) { c.strategy = backoff.DecorrelatedJitter{} }
}

// WithRetryPolicy replaces the whole retry decision. The backoff options
// above are ignored when a custom policy is set.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) { c.retryPolicy = policy }
}

// WithRateLimiter caps dispatch admission at rps requests per second with
// the given burst. A dispatch that finds no token fails fast with a rate
// limit error rather than queueing.
func WithRateLimiter(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithCircuitBreaker enables the circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) { c.breaker = NewCircuitBreaker(config) }
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) { c.metrics = NewMetricsCollector() }
}

// WithMetricsCollector uses the supplied collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) { c.metrics = collector }
}

// WithLogger sets the structured logger for dispatch lifecycle records.
func WithLogger(logger Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithSimpleLogger enables the stderr logger.
func WithSimpleLogger() Option {
	return func(c *Client) { c.logger = NewSimpleLogger() }
}

// WithCorrelationIDGenerator replaces the per-dispatch id generator.
func WithCorrelationIDGenerator(gen func() string) Option {
	return func(c *Client) { c.cidGen = gen }
}

// ValidateConfiguration checks the assembled configuration for values that
// would make dispatch behavior undefined.
func (c *Client) ValidateConfiguration() error {
	if c.baseURL == "" {
		return validationError("base URL must not be empty")
	}
	if c.maxAttempts < 1 {
		return validationError(fmt.Sprintf("maxAttempts must be at least 1, got %d", c.maxAttempts))
	}
	if c.backoffBase <= 0 {
		return validationError(fmt.Sprintf("initial backoff must be positive, got %v", c.backoffBase))
	}
	if c.backoffCap < c.backoffBase {
		return validationError(fmt.Sprintf("max backoff %v is below initial backoff %v", c.backoffCap, c.backoffBase))
	}
	if c.backoffMultiplier < 1 {
		return validationError(fmt.Sprintf("backoff multiplier must be at least 1, got %v", c.backoffMultiplier))
	}
	if c.jitter < 0 || c.jitter > 1 {
		return validationError(fmt.Sprintf("jitter must be in [0, 1], got %v", c.jitter))
	}
	if c.timeout <= 0 {
		return validationError(fmt.Sprintf("timeout must be positive, got %v", c.timeout))
	}
	if !c.format.Valid() {
		return validationError(fmt.Sprintf("unknown segment format %q", c.format))
	}
	return nil
}

func validationError(msg string) error {
	return &ClientError{Type: ErrorTypeValidation, Message: msg}
}
