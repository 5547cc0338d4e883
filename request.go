package dynamix

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// RequestDescriptor is the immutable description of one terminal call, built
// once from a Path snapshot plus call-site options and handed to the
// transport gateway. Header keys are canonicalized (case-insensitive).
type RequestDescriptor struct {
	Method string
	// Path is the rendered segment path, without the base URL.
	Path   string
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Clone returns a deep copy. Auth providers receive and return clones so the
// original descriptor is never mutated behind the dispatcher's back.
func (d *RequestDescriptor) Clone() *RequestDescriptor {
	c := &RequestDescriptor{
		Method: d.Method,
		Path:   d.Path,
		URL:    d.URL,
		Query:  make(url.Values, len(d.Query)),
		Header: d.Header.Clone(),
	}
	for k, vs := range d.Query {
		c.Query[k] = append([]string(nil), vs...)
	}
	if d.Body != nil {
		c.Body = append([]byte(nil), d.Body...)
	}
	return c
}

// FullURL returns the absolute URL including the encoded query string.
func (d *RequestDescriptor) FullURL() string {
	if len(d.Query) == 0 {
		return d.URL
	}
	return d.URL + "?" + d.Query.Encode()
}

// Response is the terminal result of a dispatch. The body is fully read and
// the connection released before it is returned; ownership passes to the
// caller and nothing is shared with other dispatches.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status code is below 400.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

type requestConfig struct {
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
	err         error
}

// RequestOption customizes a single terminal call: query parameters, headers
// and body. Per-call headers take precedence over client defaults and over
// auth-injected headers.
type RequestOption func(*requestConfig)

// WithQuery adds one query parameter.
func WithQuery(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.query.Add(key, value)
	}
}

// WithQueryValues merges a set of query parameters.
func WithQueryValues(values url.Values) RequestOption {
	return func(rc *requestConfig) {
		for k, vs := range values {
			for _, v := range vs {
				rc.query.Add(k, v)
			}
		}
	}
}

// WithHeader sets one per-call header, replacing any default of the same name.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.header.Set(key, value)
	}
}

// WithHeaders merges per-call headers.
func WithHeaders(h http.Header) RequestOption {
	return func(rc *requestConfig) {
		for k, vs := range h {
			for _, v := range vs {
				rc.header.Add(k, v)
			}
		}
	}
}

// WithJSON serializes v as the JSON request body. Serialization failures
// surface from the terminal call before anything reaches the transport.
func WithJSON(v any) RequestOption {
	return func(rc *requestConfig) {
		b, err := json.Marshal(v)
		if err != nil {
			rc.err = &ClientError{
				Type:    ErrorTypeValidation,
				Message: "cannot serialize JSON body",
				Cause:   err,
			}
			return
		}
		rc.body = b
		rc.contentType = "application/json"
	}
}

// WithBody sets a raw request body with an explicit content type.
func WithBody(contentType string, body []byte) RequestOption {
	return func(rc *requestConfig) {
		rc.body = body
		rc.contentType = contentType
	}
}

// WithForm sets a URL-encoded form body.
func WithForm(values url.Values) RequestOption {
	return func(rc *requestConfig) {
		rc.body = []byte(values.Encode())
		rc.contentType = "application/x-www-form-urlencoded"
	}
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		query:  url.Values{},
		header: http.Header{},
	}
}
