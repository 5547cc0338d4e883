package dynamix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Request dispatches a terminal call in blocking mode: the calling goroutine
// is suspended for the full dispatch including backoff waits. Cancellation is
// honored at attempt boundaries and during backoff, never mid-network-call.
func (p *Path) Request(ctx context.Context, method string, opts ...RequestOption) (*Response, error) {
	return p.client.dispatch(ctx, p, method, opts...)
}

// Get issues a GET terminal call.
func (p *Path) Get(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodGet, opts...)
}

// Post issues a POST terminal call.
func (p *Path) Post(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodPost, opts...)
}

// Put issues a PUT terminal call.
func (p *Path) Put(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodPut, opts...)
}

// Patch issues a PATCH terminal call.
func (p *Path) Patch(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodPatch, opts...)
}

// Delete issues a DELETE terminal call.
func (p *Path) Delete(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodDelete, opts...)
}

// Head issues a HEAD terminal call.
func (p *Path) Head(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodHead, opts...)
}

// Options issues an OPTIONS terminal call.
func (p *Path) Options(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodOptions, opts...)
}

// Trace issues a TRACE terminal call.
func (p *Path) Trace(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return p.Request(ctx, MethodTrace, opts...)
}

// buildRequest snapshots the accumulator and call-site options into an
// immutable descriptor. Header precedence: per-call > client default >
// auth-injected. Auth providers may add headers and query parameters but
// never displace a key that was already present.
func (c *Client) buildRequest(p *Path, method string, opts ...RequestOption) (*RequestDescriptor, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.segments) == 0 {
		return nil, &ClientError{
			Type:    ErrorTypeUnsupportedAccess,
			Message: fmt.Sprintf("terminal %s on an empty chain", method),
		}
	}

	rendered, err := p.Render()
	if err != nil {
		return nil, err
	}

	rc := newRequestConfig()
	for _, opt := range opts {
		opt(rc)
	}
	if rc.err != nil {
		return nil, rc.err
	}

	desc := &RequestDescriptor{
		Method: method,
		Path:   rendered,
		URL:    strings.TrimRight(c.baseURL, "/") + "/" + rendered,
		Query:  rc.query,
		Header: c.defaultHeaders.Clone(),
	}
	if desc.Header == nil {
		desc.Header = make(map[string][]string)
	}
	for k, vs := range rc.header {
		desc.Header[k] = vs
	}
	if rc.body != nil {
		desc.Body = rc.body
		if rc.contentType != "" && desc.Header.Get("Content-Type") == "" {
			desc.Header.Set("Content-Type", rc.contentType)
		}
	}

	if c.auth != nil {
		applied := c.auth.Apply(desc.Clone())
		for k, vs := range applied.Header {
			if desc.Header.Get(k) == "" {
				desc.Header[k] = vs
			}
		}
		for k, vs := range applied.Query {
			if !desc.Query.Has(k) {
				desc.Query[k] = vs
			}
		}
	}

	return desc, nil
}

// dispatch runs the retry state machine for one terminal call. Both
// execution modes funnel through here, so descriptors and retry decisions
// are identical regardless of how the caller waits.
func (c *Client) dispatch(ctx context.Context, p *Path, method string, opts ...RequestOption) (*Response, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}

	start := time.Now()
	desc, err := c.buildRequest(p, method, opts...)
	if err != nil {
		return nil, err
	}

	cid := c.correlationID()
	endpoint := desc.Path
	transport := chain(c.gateway, c.middleware)

	if c.metrics != nil {
		c.metrics.RecordRequestStart(method, endpoint)
		defer c.metrics.RecordRequestEnd(method, endpoint)
	}

	state := RetryIdle
	var lastErr error
	var lastResp *Response

	for attempt := 1; ; attempt++ {
		state = RetryAttempting

		if err := ctx.Err(); err != nil {
			state = RetryCancelled
			return nil, c.finish(state, start, cid, desc, attempt-1, c.cancelled(cid, desc, attempt-1, start, err))
		}

		if c.limiter != nil && !c.limiter.Allow() {
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeRateLimit, method, endpoint)
			}
			state = RetryFatal
			return nil, c.finish(state, start, cid, desc, attempt,
				c.newError(ErrorTypeRateLimit, "rate limit exceeded", ErrRateLimited, cid, desc, attempt, start, 0))
		}
		if c.limiter != nil && c.metrics != nil {
			c.metrics.RecordRateLimiterTokens("default", int(c.limiter.Tokens()))
		}

		if c.breaker != nil && !c.breaker.Allow() {
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeCircuitOpen, method, endpoint)
			}
			state = RetryFatal
			return nil, c.finish(state, start, cid, desc, attempt,
				c.newError(ErrorTypeCircuitOpen, "circuit breaker is open", ErrCircuitOpen, cid, desc, attempt, start, 0))
		}

		if attempt > 1 && c.metrics != nil {
			c.metrics.RecordRetry(method, endpoint, attempt)
		}

		attemptStart := time.Now()
		resp, execErr := transport.Execute(ctx, desc)
		out := classify(resp, execErr)

		if c.breaker != nil {
			if execErr != nil || (resp != nil && resp.StatusCode >= 500) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
			if c.metrics != nil {
				c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
			}
		}

		c.logAttempt(cid, method, endpoint, attempt, out, resp, execErr, attemptStart)
		if c.metrics != nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			c.metrics.RecordRequest(method, endpoint, status, time.Since(attemptStart))
		}

		switch out {
		case outcomeSuccess:
			state = RetrySucceeded
			return resp, c.finish(state, start, cid, desc, attempt, nil)

		case outcomeCancelled:
			state = RetryCancelled
			return nil, c.finish(state, start, cid, desc, attempt, c.cancelled(cid, desc, attempt, start, execErr))

		case outcomeTerminal:
			state = RetryFatal
			terminalErr := c.attemptError(cid, desc, resp, execErr, attempt, start)
			if c.metrics != nil {
				c.metrics.RecordError(terminalErr.Type, method, endpoint)
			}
			return resp, c.finish(state, start, cid, desc, attempt, terminalErr)

		default: // transient
			attemptErr := c.attemptError(cid, desc, resp, execErr, attempt, start)
			lastErr = attemptErr
			lastResp = resp
			if c.metrics != nil {
				c.metrics.RecordError(attemptErr.Type, method, endpoint)
			}

			delay, retry := c.retryPolicy.ShouldRetry(resp, execErr, attempt)
			if !retry {
				state = RetryExhausted
				return lastResp, c.finish(state, start, cid, desc, attempt, &ClientError{
					Type:          ErrorTypeRetryExhausted,
					Message:       "retry attempts exhausted",
					Cause:         lastErr,
					CorrelationID: cid,
					Method:        desc.Method,
					URL:           desc.FullURL(),
					Attempt:       attempt,
					MaxAttempts:   c.maxAttempts,
					Timestamp:     time.Now(),
					Duration:      time.Since(start),
				})
			}

			state = RetryScheduled
			c.log(debugLevel, "retry scheduled",
				"correlationId", cid, "method", method, "path", endpoint,
				"attempt", attempt, "backoff", delay)
			if err := waitBackoff(ctx, delay); err != nil {
				state = RetryCancelled
				return nil, c.finish(state, start, cid, desc, attempt, c.cancelled(cid, desc, attempt, start, err))
			}
		}
	}
}

// attemptError converts a failed attempt into the matching ClientError kind.
func (c *Client) attemptError(cid string, desc *RequestDescriptor, resp *Response, err error, attempt int, start time.Time) *ClientError {
	if err != nil {
		typ := ErrorTypeTransport
		msg := "transport request failed"
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			typ = ErrorTypeTimeout
			msg = "attempt timed out"
		}
		return c.newError(typ, msg, err, cid, desc, attempt, start, 0)
	}

	typ := ErrorTypeClient
	if resp.StatusCode >= 500 {
		typ = ErrorTypeServer
	}
	return c.newError(typ, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil, cid, desc, attempt, start, resp.StatusCode)
}

func (c *Client) cancelled(cid string, desc *RequestDescriptor, attempt int, start time.Time, cause error) error {
	return c.newError(ErrorTypeCancelled, "dispatch cancelled", cause, cid, desc, attempt, start, 0)
}

func (c *Client) newError(typ, msg string, cause error, cid string, desc *RequestDescriptor, attempt int, start time.Time, status int) *ClientError {
	return &ClientError{
		Type:          typ,
		Message:       msg,
		Cause:         cause,
		CorrelationID: cid,
		Method:        desc.Method,
		URL:           desc.FullURL(),
		StatusCode:    status,
		Attempt:       attempt,
		MaxAttempts:   c.maxAttempts,
		Timestamp:     time.Now(),
		Duration:      time.Since(start),
	}
}

// finish emits the per-dispatch terminal log record and passes the error
// through unchanged.
func (c *Client) finish(state RetryState, start time.Time, cid string, desc *RequestDescriptor, attempts int, err error) error {
	c.log(infoLevel, "dispatch finished",
		"correlationId", cid,
		"method", desc.Method,
		"path", desc.Path,
		"attempts", attempts,
		"outcome", state.String(),
		"elapsed", time.Since(start))
	return err
}

func (c *Client) logAttempt(cid, method, path string, attempt int, out outcome, resp *Response, err error, start time.Time) {
	kv := []any{
		"correlationId", cid,
		"method", method,
		"path", path,
		"attempt", attempt,
		"outcome", attemptOutcome(out),
		"elapsed", time.Since(start),
	}
	if resp != nil {
		kv = append(kv, "status", resp.StatusCode)
	}
	if err != nil {
		kv = append(kv, "error", err.Error())
	}
	c.log(infoLevel, "dispatch attempt", kv...)
}

func attemptOutcome(out outcome) string {
	switch out {
	case outcomeSuccess:
		return "success"
	case outcomeTransient:
		return "transient"
	case outcomeTerminal:
		return "terminal"
	case outcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
