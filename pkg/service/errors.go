package service

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// MalformedRequestError is returned when an endpoint's components cannot form
// a valid URL. It unwraps to httpclient.ErrBadRequest.
type MalformedRequestError struct {
	Reason string
	Err    error
}

func (e *MalformedRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed request: %s: %v", e.Reason, e.Err)
	}
	return "malformed request: " + e.Reason
}

func (e *MalformedRequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{httpclient.ErrBadRequest, e.Err}
	}
	return []error{httpclient.ErrBadRequest}
}

func malformed(err error, format string, args ...any) *MalformedRequestError {
	return &MalformedRequestError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// DecodeError is returned when the response body does not decode into the
// requested type.
type DecodeError struct {
	Target string
	Body   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response into %s: %v (body: %s)", e.Target, e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
