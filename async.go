package dynamix

import "context"

// Call is a dispatch running in suspendable mode. The caller resumes it with
// Wait or observes Done; the dispatch itself suspends only at the transport
// call and during backoff waits, where cancellation of its context is
// honored promptly and resolves the call with a Cancelled error.
type Call struct {
	done chan struct{}
	resp *Response
	err  error
}

// Done is closed when the call has resolved.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait suspends the caller until the call resolves or waitCtx is cancelled.
// Abandoning the wait does not cancel the dispatch; cancel the dispatch
// context for that.
func (c *Call) Wait(waitCtx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.resp, c.err
	case <-waitCtx.Done():
		return nil, waitCtx.Err()
	}
}

// Result returns the resolved response and error. Valid only after Done is
// closed; before that it reports an unresolved call.
func (c *Call) Result() (*Response, error) {
	select {
	case <-c.done:
		return c.resp, c.err
	default:
		return nil, &ClientError{
			Type:    ErrorTypeUnsupportedAccess,
			Message: "call has not resolved yet",
		}
	}
}

// Async dispatches a terminal call in suspendable mode. The returned Call
// shares the blocking mode's dispatch core, so descriptors, retry decisions
// and outcome kinds are identical for identical inputs; only the waiting
// differs.
func (p *Path) Async(ctx context.Context, method string, opts ...RequestOption) *Call {
	call := &Call{done: make(chan struct{})}
	go func() {
		defer close(call.done)
		call.resp, call.err = p.client.dispatch(ctx, p, method, opts...)
	}()
	return call
}

// GetAsync issues a GET terminal call in suspendable mode.
func (p *Path) GetAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodGet, opts...)
}

// PostAsync issues a POST terminal call in suspendable mode.
func (p *Path) PostAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodPost, opts...)
}

// PutAsync issues a PUT terminal call in suspendable mode.
func (p *Path) PutAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodPut, opts...)
}

// PatchAsync issues a PATCH terminal call in suspendable mode.
func (p *Path) PatchAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodPatch, opts...)
}

// DeleteAsync issues a DELETE terminal call in suspendable mode.
func (p *Path) DeleteAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodDelete, opts...)
}

// HeadAsync issues a HEAD terminal call in suspendable mode.
func (p *Path) HeadAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodHead, opts...)
}

// OptionsAsync issues an OPTIONS terminal call in suspendable mode.
func (p *Path) OptionsAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodOptions, opts...)
}

// TraceAsync issues a TRACE terminal call in suspendable mode.
func (p *Path) TraceAsync(ctx context.Context, opts ...RequestOption) *Call {
	return p.Async(ctx, MethodTrace, opts...)
}
