package dynamix

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Transport is the gateway contract the dispatcher hands each attempt to.
// Connection management, TLS and redirects are entirely the gateway's
// concern; implementations must be safe for concurrent use.
type Transport interface {
	Execute(ctx context.Context, req *RequestDescriptor) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *RequestDescriptor) (*Response, error)

// Execute implements Transport.
func (f TransportFunc) Execute(ctx context.Context, req *RequestDescriptor) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps transport execution for cross-cutting concerns. Middleware
// run in registration order, the first wrapping all the others.
type Middleware func(ctx context.Context, req *RequestDescriptor, next Transport) (*Response, error)

// HTTPGateway is the default transport gateway over net/http. The underlying
// client's timeout bounds each attempt individually.
type HTTPGateway struct {
	client *http.Client
}

// NewHTTPGateway wraps an *http.Client as a transport gateway. A nil client
// gets a default with a 30s per-attempt timeout.
func NewHTTPGateway(client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{client: client}
}

// Execute implements Transport. The response body is read to completion and
// the connection released before returning, so the Response owns its bytes.
func (g *HTTPGateway) Execute(ctx context.Context, req *RequestDescriptor) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = vs
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	b, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       b,
	}, nil
}

// chain folds the middleware stack around the gateway, last middleware
// closest to the wire.
func chain(gateway Transport, middleware []Middleware) Transport {
	current := gateway
	for i := len(middleware) - 1; i >= 0; i-- {
		mw := middleware[i]
		next := current
		current = TransportFunc(func(ctx context.Context, req *RequestDescriptor) (*Response, error) {
			return mw(ctx, req, next)
		})
	}
	return current
}
