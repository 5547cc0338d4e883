package dynamix

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestHTTPGatewayExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Errorf("X-Test = %q", r.Header.Get("X-Test"))
		}
		if r.URL.Query().Get("q") != "1" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q", body)
		}
		w.Header().Set("X-Resp", "ok")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	gateway := NewHTTPGateway(nil)
	resp, err := gateway.Execute(context.Background(), &RequestDescriptor{
		Method: http.MethodPost,
		URL:    server.URL + "/things",
		Query:  url.Values{"q": []string{"1"}},
		Header: http.Header{"X-Test": []string{"yes"}},
		Body:   []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Resp") != "ok" {
		t.Errorf("response header = %v", resp.Header)
	}
	if resp.Text() != "done" {
		t.Errorf("body = %q", resp.Text())
	}
}

func TestChainWithoutMiddleware(t *testing.T) {
	gateway := TransportFunc(func(ctx context.Context, req *RequestDescriptor) (*Response, error) {
		return &Response{StatusCode: 204}, nil
	})

	resp, err := chain(gateway, nil).Execute(context.Background(), &RequestDescriptor{Method: "GET"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.StatusCode != 204 {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestMiddlewareCanRewriteRequest(t *testing.T) {
	gateway := TransportFunc(func(ctx context.Context, req *RequestDescriptor) (*Response, error) {
		return &Response{StatusCode: 200, Body: []byte(req.Header.Get("X-Injected"))}, nil
	})
	inject := func(ctx context.Context, req *RequestDescriptor, next Transport) (*Response, error) {
		mutated := req.Clone()
		mutated.Header.Set("X-Injected", "by-middleware")
		return next.Execute(ctx, mutated)
	}

	resp, err := chain(gateway, []Middleware{inject}).Execute(context.Background(), &RequestDescriptor{
		Method: "GET",
		Header: http.Header{},
		Query:  url.Values{},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Text() != "by-middleware" {
		t.Errorf("body = %q", resp.Text())
	}
}

func TestRequestDescriptorClone(t *testing.T) {
	original := &RequestDescriptor{
		Method: "GET",
		URL:    "http://example.com/a",
		Query:  url.Values{"q": []string{"1"}},
		Header: http.Header{"X-A": []string{"1"}},
		Body:   []byte("body"),
	}
	clone := original.Clone()
	clone.Header.Set("X-A", "2")
	clone.Query.Set("q", "2")
	clone.Body[0] = 'B'

	if original.Header.Get("X-A") != "1" || original.Query.Get("q") != "1" || original.Body[0] != 'b' {
		t.Error("clone shares storage with the original")
	}
}

func TestRequestDescriptorFullURL(t *testing.T) {
	desc := &RequestDescriptor{URL: "http://example.com/a"}
	if desc.FullURL() != "http://example.com/a" {
		t.Errorf("FullURL() = %q", desc.FullURL())
	}
	desc.Query = url.Values{"b": []string{"2"}, "a": []string{"1"}}
	if desc.FullURL() != "http://example.com/a?a=1&b=2" {
		t.Errorf("FullURL() = %q", desc.FullURL())
	}
}
