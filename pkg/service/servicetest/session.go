package servicetest

import (
	"context"
	"net/http"
	"sync"

	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// FakeResponse is canned response metadata.
type FakeResponse struct {
	Status  int
	Headers http.Header
}

func (r *FakeResponse) StatusCode() int { return r.Status }

func (r *FakeResponse) Header() http.Header {
	if r.Headers == nil {
		return http.Header{}
	}
	return r.Headers
}

// FakeSession returns scripted data or an error and records every request it
// receives. It is safe for concurrent use; set its fields before sharing it.
type FakeSession struct {
	Data     []byte
	Response httpclient.Response
	Err      error

	mu       sync.Mutex
	requests []*httpclient.Request
}

// Do implements httpclient.Session. Err wins over Data. A nil Response is
// answered as a bare 200, and a nil Data as an empty body.
func (s *FakeSession) Do(_ context.Context, req *httpclient.Request) ([]byte, httpclient.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, nil, s.Err
	}
	data, resp := s.Data, s.Response
	if data == nil {
		data = []byte{}
	}
	if resp == nil {
		resp = &FakeResponse{Status: http.StatusOK}
	}
	return data, resp, nil
}

// Calls reports how many times Do was invoked.
func (s *FakeSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns the requests received so far, oldest first.
func (s *FakeSession) Requests() []*httpclient.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*httpclient.Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or nil.
func (s *FakeSession) LastRequest() *httpclient.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}
