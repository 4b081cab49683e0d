package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestySession adapts resty.Client to the Session interface.
type RestySession struct {
	client *resty.Client
}

// NewRestySession creates a session whose client gives up after timeout.
// A zero timeout leaves the client without a deadline.
func NewRestySession(timeout time.Duration) *RestySession {
	return &RestySession{client: newRestyBaseClient(timeout)}
}

// NewRestySessionFromClient wraps an already configured resty.Client.
func NewRestySessionFromClient(client *resty.Client) *RestySession {
	if client == nil {
		client = newRestyBaseClient(0)
	}
	return &RestySession{client: client}
}

// newRestyBaseClient creates a single-attempt resty.Client. GET bodies are sent
// as declared instead of being silently dropped.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	c.SetAllowGetMethodPayload(true)
	return c
}

// Do sends req once and returns the raw body with its response metadata.
// When req carries a body but no Content-Type, resty sniffs one from the bytes
// (text/plain for most payloads); headers that are set are sent unchanged.
func (r *RestySession) Do(ctx context.Context, req *Request) ([]byte, Response, error) {
	if req == nil || req.URL == nil {
		return nil, nil, fmt.Errorf("resty session: request has no url")
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Header) > 0 {
		rr.Header = req.Header.Clone()
	}
	if len(req.Body) > 0 {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(req.Method.String(), req.URL.String())
	if err != nil {
		return nil, nil, err
	}
	return resp.Body(), &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
