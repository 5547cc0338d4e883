package dynamix

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aydabd/http-dynamix/internal/backoff"
)

// RetryState is the retry engine's state for one dispatch. Every dispatch
// walks Idle → Attempting and ends in exactly one terminal state.
type RetryState int

const (
	RetryIdle RetryState = iota
	RetryAttempting
	RetrySucceeded
	RetryScheduled
	RetryExhausted
	RetryFatal
	RetryCancelled
)

// String returns the state name used in logs and metrics labels.
func (s RetryState) String() string {
	switch s {
	case RetryIdle:
		return "idle"
	case RetryAttempting:
		return "attempting"
	case RetrySucceeded:
		return "succeeded"
	case RetryScheduled:
		return "retry_scheduled"
	case RetryExhausted:
		return "exhausted"
	case RetryFatal:
		return "fatal"
	case RetryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a dispatch.
func (s RetryState) Terminal() bool {
	switch s {
	case RetrySucceeded, RetryExhausted, RetryFatal, RetryCancelled:
		return true
	}
	return false
}

// outcome classifies one attempt.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeTransient
	outcomeTerminal
	outcomeCancelled
)

// classify buckets an attempt result. Cancellation is checked first so a
// cancelled attempt is never mistaken for a retryable network fault.
func classify(resp *Response, err error) outcome {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return outcomeCancelled
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return outcomeTransient
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return outcomeTransient
		}
		if permanentTransportError(err) {
			return outcomeTerminal
		}
		// Connection resets and other transient transport faults.
		return outcomeTransient
	}
	switch {
	case resp.StatusCode >= 500:
		return outcomeTransient
	case resp.StatusCode == http.StatusTooManyRequests:
		return outcomeTransient
	case resp.StatusCode >= 400:
		return outcomeTerminal
	default:
		return outcomeSuccess
	}
}

// permanentTransportError reports transport faults that retrying cannot fix:
// a request URL rejected at construction time and certificate verification
// failures.
func permanentTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return true
	}
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &certVerify) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	return false
}

// RetryPolicy decides whether a finished attempt should be retried and after
// what delay. attempt is the 1-based number of the attempt that just ran.
type RetryPolicy interface {
	ShouldRetry(resp *Response, err error, attempt int) (time.Duration, bool)
}

// DefaultRetryPolicy retries transient failures with a configurable backoff
// strategy, honoring Retry-After on 429 and 503 responses.
type DefaultRetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Multiplier  float64
	Jitter      float64
	Strategy    backoff.Strategy
}

// ShouldRetry implements RetryPolicy.
func (p *DefaultRetryPolicy) ShouldRetry(resp *Response, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	switch classify(resp, err) {
	case outcomeTransient:
	default:
		return 0, false
	}

	var delay time.Duration
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		delay = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	if delay == 0 {
		strategy := p.Strategy
		if strategy == nil {
			strategy = backoff.ExponentialJitter{}
		}
		delay = strategy.Delay(attempt-1, p.BackoffBase, p.BackoffCap, p.Multiplier, p.Jitter)
	}
	return delay, true
}

// parseRetryAfter parses a Retry-After header in either delay-seconds or
// HTTP-date form. The result is capped at one hour; unparseable values
// yield zero so the computed backoff applies instead.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}
	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}
	return 0
}

// waitBackoff sleeps for the scheduled delay, yielding immediately when the
// caller cancels. This is one of the two suspension points of a dispatch.
func waitBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
