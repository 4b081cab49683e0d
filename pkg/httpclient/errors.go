package httpclient

import (
	"fmt"
	"net/http"
)

// HTTPError is a closed set of request failure kinds. Values are comparable
// with == and errors.Is.
type HTTPError string

const (
	ErrUnauthorized HTTPError = "unauthorized"
	ErrBadRequest   HTTPError = "bad request"
	ErrNotFound     HTTPError = "not found"
	ErrForbidden    HTTPError = "forbidden"
	ErrServerError  HTTPError = "server error"
)

func (e HTTPError) Error() string { return string(e) }

// StatusError reports a response status that maps to an HTTPError kind.
type StatusError struct {
	Code int
	Kind HTTPError
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Kind)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// ErrorForStatus maps a response status code to a *StatusError, or returns nil
// for codes below 400.
//
// 400 and unlisted 4xx codes map to ErrBadRequest, 401 to ErrUnauthorized,
// 403 to ErrForbidden, 404 to ErrNotFound and 5xx to ErrServerError.
func ErrorForStatus(code int) error {
	var kind HTTPError
	switch {
	case code < http.StatusBadRequest:
		return nil
	case code == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case code == http.StatusForbidden:
		kind = ErrForbidden
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code >= http.StatusInternalServerError:
		kind = ErrServerError
	default:
		kind = ErrBadRequest
	}
	return &StatusError{Code: code, Kind: kind}
}
