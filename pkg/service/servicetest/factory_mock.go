package servicetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// ErrReturnDataNotSet is returned by FactoryMock when neither DataToReturn nor
// ErrorToThrow is configured.
var ErrReturnDataNotSet = errors.New("mock return data is not set")

// FactoryMock implements service.Fetcher without touching its session.
type FactoryMock struct {
	Session      httpclient.Session
	DataToReturn any
	ErrorToThrow error

	mu     sync.Mutex
	called bool
}

// NewFactoryMock returns a mock holding session, or a FakeSession when nil.
func NewFactoryMock(session httpclient.Session) *FactoryMock {
	if session == nil {
		session = &FakeSession{}
	}
	return &FactoryMock{Session: session}
}

// FetchCalled reports whether FetchInto has been invoked.
func (m *FactoryMock) FetchCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

// FetchInto records the call, then returns ErrorToThrow or copies
// DataToReturn into out when its type is assignable.
func (m *FactoryMock) FetchInto(_ context.Context, _ endpoint.Endpoint, out any) error {
	m.mu.Lock()
	m.called = true
	m.mu.Unlock()

	if m.ErrorToThrow != nil {
		return m.ErrorToThrow
	}
	if m.DataToReturn == nil {
		return ErrReturnDataNotSet
	}

	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("mock fetch target must be a non-nil pointer, got %T", out)
	}
	src := reflect.ValueOf(m.DataToReturn)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return fmt.Errorf("mock return data %T is not assignable to %s", m.DataToReturn, dst.Elem().Type())
	}
	dst.Elem().Set(src)
	return nil
}
