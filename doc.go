// Package dynamix is a fluent HTTP request-building layer. URL paths are
// accumulated as immutable chains of literal and parameterized segments,
// rendered under a configurable naming convention and dispatched through a
// resilient core with retries, backoff, auth injection and structured
// logging.
//
// A chain is built from a client and never mutates its parents, so partial
// chains can be stored and reused to issue sibling requests concurrently:
//
//	client := dynamix.New("https://api.example.com",
//		dynamix.WithSegmentFormat(dynamix.FormatKebab),
//		dynamix.WithMaxAttempts(5),
//	)
//
//	users := client.Child("users")
//	resp, err := users.Param("id", 42).Child("audit_log").Get(ctx)
//	// GET https://api.example.com/users/42/audit-log
//
// Terminal verbs dispatch in blocking mode; the Async variants return a Call
// that resolves through the same dispatch core:
//
//	call := users.GetAsync(ctx)
//	resp, err := call.Wait(ctx)
//
// Transient failures (5xx, 429, network faults, timeouts) are retried with
// exponential backoff and jitter until the attempt budget is spent. Other
// 4xx responses fail immediately but still return the response alongside the
// error so callers can inspect the body.
package dynamix
