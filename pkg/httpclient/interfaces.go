package httpclient

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a fully built HTTP request handed to a Session.
type Request struct {
	Method Method
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Response is the response metadata a Session returns alongside the raw body.
type Response interface {
	StatusCode() int
	Header() http.Header
}

// Session performs exactly one HTTP exchange for a built request. It returns the
// raw response body and metadata; non-2xx statuses are not errors at this layer.
// Implementations used by concurrent callers must be safe for concurrent use.
type Session interface {
	Do(ctx context.Context, req *Request) ([]byte, Response, error)
}
