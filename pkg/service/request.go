package service

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// RFC 3986: scheme = ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)

// NewRequest translates ep into a request. It fails with *MalformedRequestError
// when scheme, host, path and query do not form a valid URL.
//
// Endpoint headers are applied first, one value per canonical name. When the
// content type is JSON the Content-Type header is then set, replacing any
// value the endpoint supplied for it.
func NewRequest(ep endpoint.Endpoint) (*httpclient.Request, error) {
	if ep == nil {
		return nil, malformed(nil, "endpoint is nil")
	}

	u, err := buildURL(ep)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for name, value := range ep.Headers() {
		header.Set(name, value)
	}
	if ep.ContentType() == httpclient.ContentTypeJSON {
		header.Set(httpclient.HeaderContentType, httpclient.ContentTypeJSON.String())
	}

	return &httpclient.Request{
		Method: ep.Method(),
		URL:    u,
		Header: header,
		Body:   ep.Body(),
	}, nil
}

func buildURL(ep endpoint.Endpoint) (*url.URL, error) {
	scheme, host, path := ep.Scheme(), ep.Host(), ep.Path()

	if !schemePattern.MatchString(scheme) {
		return nil, malformed(nil, "invalid scheme %q", scheme)
	}
	if host == "" {
		return nil, malformed(nil, "host is empty")
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		return nil, malformed(nil, "path %q must start with /", path)
	}

	u := &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawQuery: encodeQuery(ep.QueryItems()),
	}
	parsed, err := url.Parse(u.String())
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, malformed(err, "invalid url components")
	}
	if parsed.Host != host {
		return nil, malformed(nil, "invalid host %q", host)
	}
	return parsed, nil
}

// encodeQuery keeps item order, unlike url.Values.Encode which sorts by key.
func encodeQuery(items []endpoint.QueryItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(item.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(item.Value))
	}
	return b.String()
}
