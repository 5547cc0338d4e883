package dynamix

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// Parse failures are independent of transport and retry classification: a
// response that arrived fine but does not decode yields ErrorTypeParse.

// ParseJSON validates and wraps a JSON body for query-style access.
func ParseJSON(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ClientError{
			Type:    ErrorTypeParse,
			Message: "body is not valid JSON",
		}
	}
	return gjson.ParseBytes(body), nil
}

// ParseHTML parses an HTML body into a queryable document.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeParse,
			Message: "body is not parseable HTML",
			Cause:   err,
		}
	}
	return doc, nil
}

// Parse decodes a body according to its content type: JSON bodies become a
// gjson.Result, HTML bodies a *goquery.Document, text bodies a string, and
// anything else the raw bytes.
func Parse(body []byte, contentType string) (any, error) {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)

	switch {
	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		return ParseJSON(body)
	case ct == "text/html" || ct == "application/xhtml+xml":
		return ParseHTML(body)
	case strings.HasPrefix(ct, "text/"):
		return string(body), nil
	default:
		return body, nil
	}
}

// JSON decodes the response body for query-style access.
func (r *Response) JSON() (gjson.Result, error) {
	return ParseJSON(r.Body)
}

// HTML decodes the response body into a queryable document.
func (r *Response) HTML() (*goquery.Document, error) {
	return ParseHTML(r.Body)
}

// Decode unmarshals the JSON response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &ClientError{
			Type:    ErrorTypeParse,
			Message: "cannot decode JSON body",
			Cause:   err,
		}
	}
	return nil
}

// Parse decodes the response body according to its content type.
func (r *Response) Parse() (any, error) {
	return Parse(r.Body, r.Header.Get("Content-Type"))
}
