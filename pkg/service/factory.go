package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// DefaultTimeout bounds exchanges made through DefaultSession.
const DefaultTimeout = 60 * time.Second

// DefaultSession returns the resty-backed session used when none is injected.
func DefaultSession() httpclient.Session { return httpclient.NewRestySession(DefaultTimeout) }

// Fetcher decodes the response of an endpoint into out, a non-nil pointer.
// *Factory is the production implementation; servicetest.FactoryMock is a double.
type Fetcher interface {
	FetchInto(ctx context.Context, ep endpoint.Endpoint, out any) error
}

// Fetch calls ep through f and decodes the JSON response into a T.
// On any failure the zero T is returned alongside the error.
func Fetch[T any](ctx context.Context, f Fetcher, ep endpoint.Endpoint) (T, error) {
	var out T
	if err := f.FetchInto(ctx, ep, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Factory builds requests from endpoints, sends them through a Session and
// decodes the results. It keeps no per-call state and is safe for concurrent
// use whenever its Session is.
type Factory struct {
	session     httpclient.Session
	log         Logger
	statusCheck bool
}

// Option customizes a Factory.
type Option func(*Factory)

// WithLogger attaches a logger for request/response diagnostics.
func WithLogger(log Logger) Option {
	return func(f *Factory) { f.log = ensureLogger(log) }
}

// WithStatusCheck makes the factory fail responses with status >= 400 using
// httpclient.ErrorForStatus. Without it, status codes are not inspected.
func WithStatusCheck() Option {
	return func(f *Factory) { f.statusCheck = true }
}

// NewFactory returns a factory bound to session, or to DefaultSession when nil.
func NewFactory(session httpclient.Session, opts ...Option) *Factory {
	if session == nil {
		session = DefaultSession()
	}
	f := &Factory{session: session, log: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Session returns the session the factory borrows for each call.
func (f *Factory) Session() httpclient.Session { return f.session }

// Execute builds the request for ep and performs a single session call. Session
// errors are returned unchanged. The raw body and response metadata are
// returned for callers that decode on their own.
func (f *Factory) Execute(ctx context.Context, ep endpoint.Endpoint) ([]byte, httpclient.Response, error) {
	req, err := NewRequest(ep)
	if err != nil {
		f.log.WarnObj("service request rejected", "service_request_error", map[string]any{
			"error": err.Error(),
		})
		return nil, nil, err
	}

	f.log.DebugObj("service request built", "service_request", map[string]any{
		"method":     req.Method.String(),
		"url":        req.URL.String(),
		"body_bytes": len(req.Body),
	})

	body, resp, err := f.session.Do(ctx, req)
	if err != nil {
		f.log.DebugObj("service session failed", "service_session_error", map[string]any{
			"url":   req.URL.String(),
			"error": err.Error(),
		})
		return nil, nil, err
	}

	if f.statusCheck && resp != nil {
		if err := httpclient.ErrorForStatus(resp.StatusCode()); err != nil {
			return body, resp, err
		}
	}

	f.log.DebugObj("service response received", "service_response", map[string]any{
		"url":        req.URL.String(),
		"body_bytes": len(body),
	})
	return body, resp, nil
}

// FetchInto implements Fetcher.
func (f *Factory) FetchInto(ctx context.Context, ep endpoint.Endpoint, out any) error {
	body, _, err := f.Execute(ctx, ep)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Target: fmt.Sprintf("%T", out), Body: bodySnippet(body), Err: err}
	}
	return nil
}
