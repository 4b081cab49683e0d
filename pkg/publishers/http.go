package publishers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

const maxErrorBodySnippet = 512

// httpPublisher posts each event as JSON to a webhook through an httpclient.Session.
type httpPublisher struct {
	id      string
	method  httpclient.Method
	target  *url.URL
	headers http.Header
	session httpclient.Session
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return newHTTPPublisherWithSession(cfg, httpclient.NewRestySession(timeout), log)
}

func newHTTPPublisherWithSession(cfg PublisherConfig, session httpclient.Session, log Logger) (*httpPublisher, error) {
	raw := cfg.HTTP.Method
	if strings.TrimSpace(raw) == "" {
		raw = httpDefaultMethod
	}
	method, ok := httpclient.ParseMethod(raw)
	if !ok {
		return nil, fmt.Errorf("publisher %q: unsupported http method %q", cfg.ID, cfg.HTTP.Method)
	}
	target, err := url.Parse(cfg.HTTP.URL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("publisher %q: invalid http url %q", cfg.ID, cfg.HTTP.URL)
	}

	headers := make(http.Header, len(cfg.HTTP.Headers)+1)
	for k, v := range cfg.HTTP.Headers {
		headers.Set(k, v)
	}
	headers.Set(httpclient.HeaderContentType, httpclient.ContentTypeJSON.String())

	return &httpPublisher{
		id:      cfg.ID,
		method:  method,
		target:  target,
		headers: headers,
		session: session,
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event once. Any status of 400 or above is an error.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	target := *h.target
	req := &httpclient.Request{
		Method: h.method,
		URL:    &target,
		Header: h.headers.Clone(),
		Body:   []byte(body),
	}

	respBody, resp, err := h.session.Do(ctx, req)
	if err != nil {
		logFailure(h.log, TypeHTTP, h.id, err)
		return fmt.Errorf("http request: %w", err)
	}
	if statusErr := httpclient.ErrorForStatus(resp.StatusCode()); statusErr != nil {
		logFailure(h.log, TypeHTTP, h.id, statusErr)
		return fmt.Errorf("http response %s: %w", bodySnippet(respBody), statusErr)
	}

	logDelivery(h.log, TypeHTTP, h.id, evt, map[string]any{"status": resp.StatusCode()})
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) > maxErrorBodySnippet {
		body = body[:maxErrorBodySnippet]
	}
	return strings.TrimSpace(string(body))
}
