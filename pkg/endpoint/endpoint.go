package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// Endpoint describes the shape of one API call. It is read-only and performs
// no validation; malformed values surface when the request is built.
type Endpoint interface {
	Scheme() string
	Host() string
	Path() string
	Method() httpclient.Method
	// QueryItems returns the ordered query parameters, or nil for none.
	QueryItems() []QueryItem
	// Body returns the raw request payload, or nil for none.
	Body() []byte
	// ContentType returns the payload type, or "" for none.
	ContentType() httpclient.ContentType
	Headers() map[string]string
}

// QueryItem is a single query parameter. Order is preserved in the built URL.
type QueryItem struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Definition is the file representation of an endpoint, as found in catalog files.
type Definition struct {
	ID          string            `json:"id" yaml:"id"`
	Scheme      string            `json:"scheme" yaml:"scheme"`
	Host        string            `json:"host" yaml:"host"`
	Path        string            `json:"path" yaml:"path"`
	Method      string            `json:"method" yaml:"method"`
	Query       []QueryItem       `json:"query" yaml:"query"`
	Body        string            `json:"body" yaml:"body"`
	JSONBody    any               `json:"json_body" yaml:"json_body"`
	ContentType string            `json:"content_type" yaml:"content_type"`
	Headers     map[string]string `json:"headers" yaml:"headers"`
}

// Endpoint converts the definition into an Endpoint. Only the method, content
// type and body are checked here; URL validity is left to request building.
func (d Definition) Endpoint() (Endpoint, error) {
	method, ok := httpclient.ParseMethod(d.Method)
	if !ok {
		return nil, fmt.Errorf("unsupported method %q", d.Method)
	}
	ct, ok := httpclient.ParseContentType(d.ContentType)
	if !ok {
		return nil, fmt.Errorf("unsupported content_type %q", d.ContentType)
	}

	var body []byte
	switch {
	case d.Body != "" && d.JSONBody != nil:
		return nil, errors.New("body and json_body are mutually exclusive")
	case d.Body != "":
		body = []byte(d.Body)
	case d.JSONBody != nil:
		raw, err := json.Marshal(d.JSONBody)
		if err != nil {
			return nil, fmt.Errorf("encode json_body: %w", err)
		}
		body = raw
	}

	return &static{
		scheme:      d.Scheme,
		host:        d.Host,
		path:        d.Path,
		method:      method,
		query:       append([]QueryItem(nil), d.Query...),
		body:        body,
		contentType: ct,
		headers:     copyHeaders(d.Headers),
	}, nil
}

type static struct {
	scheme      string
	host        string
	path        string
	method      httpclient.Method
	query       []QueryItem
	body        []byte
	contentType httpclient.ContentType
	headers     map[string]string
}

func (s *static) Scheme() string                      { return s.scheme }
func (s *static) Host() string                        { return s.host }
func (s *static) Path() string                        { return s.path }
func (s *static) Method() httpclient.Method           { return s.method }
func (s *static) Body() []byte                        { return s.body }
func (s *static) ContentType() httpclient.ContentType { return s.contentType }

func (s *static) QueryItems() []QueryItem {
	if len(s.query) == 0 {
		return nil
	}
	return append([]QueryItem(nil), s.query...)
}

func (s *static) Headers() map[string]string { return copyHeaders(s.headers) }

func copyHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// sanitizeDefinition trims whitespace; values are otherwise kept verbatim.
func sanitizeDefinition(d Definition) Definition {
	d.ID = strings.TrimSpace(d.ID)
	d.Scheme = strings.TrimSpace(d.Scheme)
	d.Host = strings.TrimSpace(d.Host)
	d.Path = strings.TrimSpace(d.Path)
	d.Method = strings.ToUpper(strings.TrimSpace(d.Method))
	if d.Method == "" {
		d.Method = string(httpclient.MethodGet)
	}
	d.ContentType = strings.TrimSpace(d.ContentType)

	if len(d.Headers) > 0 {
		headers := make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			headers[key] = strings.TrimSpace(v)
		}
		d.Headers = headers
	}
	return d
}
