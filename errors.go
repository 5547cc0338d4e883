package dynamix

import (
	"errors"
	"fmt"
	"time"
)

// Error type discriminators carried by ClientError.Type.
const (
	// ErrorTypeInvalidSegment marks a malformed path segment name. Local
	// misuse, surfaced at accumulation time and never retried.
	ErrorTypeInvalidSegment = "InvalidSegment"
	// ErrorTypeUnsupportedAccess marks misuse of the chain grammar (bad verb
	// arity, terminal call on an empty chain). Never retried.
	ErrorTypeUnsupportedAccess = "UnsupportedAccess"
	// ErrorTypeTransport marks a failure raised by the transport gateway.
	ErrorTypeTransport = "Transport"
	// ErrorTypeTimeout marks a per-attempt timeout, distinct from explicit
	// caller cancellation.
	ErrorTypeTimeout = "Timeout"
	// ErrorTypeClient marks a terminal HTTP status (4xx except 429).
	ErrorTypeClient = "Client"
	// ErrorTypeServer marks a 5xx HTTP status.
	ErrorTypeServer = "Server"
	// ErrorTypeRetryExhausted marks a dispatch that gave up after retrying;
	// the last underlying failure is the Cause.
	ErrorTypeRetryExhausted = "RetryExhausted"
	// ErrorTypeCancelled marks cooperative cancellation honored at a
	// suspension point.
	ErrorTypeCancelled = "Cancelled"
	// ErrorTypeParse marks a response decoding failure, independent of
	// transport and retry classification.
	ErrorTypeParse = "Parse"
	// ErrorTypeValidation marks invalid client configuration.
	ErrorTypeValidation = "Validation"
	// ErrorTypeRateLimit marks a dispatch denied by the client-side limiter.
	ErrorTypeRateLimit = "RateLimit"
	// ErrorTypeCircuitOpen marks a dispatch denied by an open circuit breaker.
	ErrorTypeCircuitOpen = "CircuitOpen"
)

// Sentinel errors for fail-fast dispatch denials.
var (
	ErrRateLimited = errors.New("dynamix: rate limited")
	ErrCircuitOpen = errors.New("dynamix: circuit open")
)

// ClientError is the single error carrier for the library. Type discriminates
// the failure kind; the remaining fields capture dispatch context when the
// error was produced by a terminal call.
type ClientError struct {
	Type          string
	Message       string
	Cause         error
	CorrelationID string
	Method        string
	URL           string
	StatusCode    int
	Attempt       int
	MaxAttempts   int
	Timestamp     time.Time
	Duration      time.Duration
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.CorrelationID != "" {
		msg = fmt.Sprintf("[%s] %s", e.CorrelationID, msg)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxAttempts)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches ClientError targets by Type so callers can distinguish error
// kinds with errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ClientError); ok {
		return e.Type == t.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.CorrelationID != "" {
		info += fmt.Sprintf("Correlation ID: %s\n", e.CorrelationID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d/%d\n", e.Attempt, e.MaxAttempts)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsTransient reports whether an error represents a failure that might
// succeed on retry: network faults, timeouts, 5xx responses and 429s.
// Grammar, validation, cancellation and other 4xx failures are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		switch ce.Type {
		case ErrorTypeTransport, ErrorTypeTimeout, ErrorTypeServer, ErrorTypeRateLimit, ErrorTypeCircuitOpen:
			return true
		case ErrorTypeClient:
			return ce.StatusCode == 429
		default:
			return false
		}
	}
	return false
}

// IsRetryExhausted reports whether the dispatch gave up after retrying.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeRetryExhausted})
}

// IsCancelled reports whether the dispatch observed cooperative cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeCancelled})
}

// IsUnsupportedAccess reports misuse of the chain grammar.
func IsUnsupportedAccess(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeUnsupportedAccess})
}

// IsInvalidSegment reports a malformed path segment name.
func IsInvalidSegment(err error) bool {
	return errors.Is(err, &ClientError{Type: ErrorTypeInvalidSegment})
}
