package dynamix

import (
	"context"
	"crypto/x509"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryTransientThenSuccess(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL,
		WithMaxAttempts(3),
		WithInitialBackoff(time.Millisecond),
		WithMaxBackoff(5*time.Millisecond),
	)
	resp, err := client.Child("flaky").Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRetryExhaustion(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL,
		WithMaxAttempts(2),
		WithInitialBackoff(time.Millisecond),
		WithMaxBackoff(5*time.Millisecond),
	)
	resp, err := client.Child("broken").Get(context.Background())
	if !IsRetryExhausted(err) {
		t.Fatalf("error = %v, want RetryExhausted", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	// The last response stays available for inspection.
	if resp == nil || resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("resp = %+v", resp)
	}
	// The last underlying failure is preserved as the cause.
	var ce *ClientError
	if errors.As(err, &ce) && ce.Cause == nil {
		t.Error("exhaustion error has no cause")
	}
}

func TestRetryTerminalStatusFailsFast(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, WithMaxAttempts(3), WithInitialBackoff(time.Millisecond))
	resp, err := client.Child("missing").Get(context.Background())
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrorTypeClient {
		t.Errorf("error = %v, want Client", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on terminal status)", got)
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("resp = %+v, want the 404 response alongside the error", resp)
	}
}

func TestRetryCertificateFailureFailsFast(t *testing.T) {
	var attempts int32
	certErr := &url.Error{Op: "Get", URL: "https://example.com/x", Err: x509.UnknownAuthorityError{}}
	transport := TransportFunc(func(ctx context.Context, req *RequestDescriptor) (*Response, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, certErr
	})

	client := New("https://example.com",
		WithTransport(transport),
		WithMaxAttempts(3),
		WithInitialBackoff(time.Millisecond),
	)
	_, err := client.Child("x").Get(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryExhausted(err) {
		t.Errorf("error = %v, want a fail-fast kind, not RetryExhausted", err)
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrorTypeTransport {
		t.Errorf("error = %v, want Transport", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on certificate failure)", got)
	}
}

func TestRetryMalformedURLFailsFast(t *testing.T) {
	var attempts int32
	counter := func(ctx context.Context, req *RequestDescriptor, next Transport) (*Response, error) {
		atomic.AddInt32(&attempts, 1)
		return next.Execute(ctx, req)
	}

	// The default gateway rejects this URL at request construction; that is a
	// malformed request, not a transient fault.
	client := New("http://bad url",
		WithMiddleware(counter),
		WithMaxAttempts(3),
		WithInitialBackoff(time.Millisecond),
	)
	_, err := client.Child("x").Get(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryExhausted(err) {
		t.Errorf("error = %v, want a fail-fast kind, not RetryExhausted", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on malformed URL)", got)
	}
}

func TestRetryTooManyRequestsIsTransient(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL,
		WithMaxAttempts(3),
		WithInitialBackoff(time.Millisecond),
		WithMaxBackoff(5*time.Millisecond),
	)
	resp, err := client.Child("throttled").Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestRetryCancellationDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL,
		WithMaxAttempts(5),
		WithInitialBackoff(10*time.Second),
		WithMaxBackoff(10*time.Second),
		WithJitter(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	start := time.Now()
	_, err := client.Child("slow").Get(ctx)
	if !IsCancelled(err) {
		t.Fatalf("error = %v, want Cancelled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v, backoff wait did not yield", elapsed)
	}
}

func TestRetryPreCancelledContext(t *testing.T) {
	called := false
	transport := TransportFunc(func(ctx context.Context, req *RequestDescriptor) (*Response, error) {
		called = true
		return &Response{StatusCode: 200}, nil
	})
	client := New("http://example.com", WithTransport(transport))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Child("x").Get(ctx)
	if !IsCancelled(err) {
		t.Fatalf("error = %v, want Cancelled", err)
	}
	if called {
		t.Error("transport was reached with a cancelled context")
	}
}

func TestDefaultRetryPolicyHonorsRetryAfter(t *testing.T) {
	policy := &DefaultRetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
		BackoffCap:  time.Second,
		Multiplier:  2,
	}
	resp := &Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"2"}},
	}
	delay, retry := policy.ShouldRetry(resp, nil, 1)
	if !retry {
		t.Fatal("expected retry")
	}
	if delay != 2*time.Second {
		t.Errorf("delay = %v, want 2s from Retry-After", delay)
	}
}

func TestDefaultRetryPolicyBudget(t *testing.T) {
	policy := &DefaultRetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffCap: time.Second, Multiplier: 2}
	resp := &Response{StatusCode: http.StatusInternalServerError, Header: http.Header{}}

	if _, retry := policy.ShouldRetry(resp, nil, 2); !retry {
		t.Error("attempt 2 of 3 should retry")
	}
	if _, retry := policy.ShouldRetry(resp, nil, 3); retry {
		t.Error("attempt 3 of 3 should not retry")
	}
}

func TestDefaultRetryPolicyTerminalStatus(t *testing.T) {
	policy := &DefaultRetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffCap: time.Second, Multiplier: 2}
	resp := &Response{StatusCode: http.StatusBadRequest, Header: http.Header{}}

	if _, retry := policy.ShouldRetry(resp, nil, 1); retry {
		t.Error("400 should not retry")
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{"0", 0},
		{"-3", 0},
		{"garbage", 0},
		{"7200", time.Hour}, // capped
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.value); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	date := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(date)
	if got <= 0 || got > 30*time.Second {
		t.Errorf("parseRetryAfter(date) = %v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		err  error
		want outcome
	}{
		{"ok", &Response{StatusCode: 200}, nil, outcomeSuccess},
		{"redirect", &Response{StatusCode: 302}, nil, outcomeSuccess},
		{"server error", &Response{StatusCode: 500}, nil, outcomeTransient},
		{"throttled", &Response{StatusCode: 429}, nil, outcomeTransient},
		{"not found", &Response{StatusCode: 404}, nil, outcomeTerminal},
		{"network fault", nil, errors.New("connection reset"), outcomeTransient},
		{"deadline", nil, context.DeadlineExceeded, outcomeTransient},
		{"cancelled", nil, context.Canceled, outcomeCancelled},
		{"malformed url", nil, &url.Error{Op: "parse", URL: "http://bad url/x", Err: errors.New("invalid character")}, outcomeTerminal},
		{"unknown authority", nil, &url.Error{Op: "Get", URL: "https://x", Err: x509.UnknownAuthorityError{}}, outcomeTerminal},
		{"invalid certificate", nil, x509.CertificateInvalidError{Reason: x509.Expired}, outcomeTerminal},
		{"hostname mismatch", nil, x509.HostnameError{Host: "x"}, outcomeTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.resp, tt.err); got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryStateNames(t *testing.T) {
	states := map[RetryState]string{
		RetryIdle:       "idle",
		RetryAttempting: "attempting",
		RetrySucceeded:  "succeeded",
		RetryScheduled:  "retry_scheduled",
		RetryExhausted:  "exhausted",
		RetryFatal:      "fatal",
		RetryCancelled:  "cancelled",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}

	for _, s := range []RetryState{RetrySucceeded, RetryExhausted, RetryFatal, RetryCancelled} {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	for _, s := range []RetryState{RetryIdle, RetryAttempting, RetryScheduled} {
		if s.Terminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}

func TestWaitBackoff(t *testing.T) {
	if err := waitBackoff(context.Background(), 0); err != nil {
		t.Errorf("zero delay error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitBackoff(ctx, time.Minute); err == nil {
		t.Error("expected cancellation error")
	}
}
