package poller

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/servicekit/internal/storage"
	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
	"github.com/samvad-hq/servicekit/pkg/publishers"
	"github.com/samvad-hq/servicekit/pkg/service"
	"github.com/samvad-hq/servicekit/pkg/service/servicetest"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu        sync.Mutex
	events    []publishers.Event
	failFor   string
	delivered int
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if evt.EndpointID == f.failFor {
		return f.delivered, errors.New("sink down")
	}
	return 1, nil
}

// fakeDeduper tracks marked keys.
type fakeDeduper struct {
	seen    map[string]bool
	seenErr error
}

func (f *fakeDeduper) Seen(key string) (bool, error) {
	if f.seenErr != nil {
		return false, f.seenErr
	}
	return f.seen[key], nil
}

func (f *fakeDeduper) Mark(key string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[key] = true
	return nil
}

func defs() []endpoint.Definition {
	return []endpoint.Definition{
		{ID: "users", Scheme: "https", Host: "api.example.com", Path: "/users", Method: "GET"},
		{ID: "orders", Scheme: "https", Host: "api.example.com", Path: "/orders", Method: "GET"},
	}
}

func TestRunPublishesFetchedPayloads(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{"items":[1,2]}`)}
	pub := &fakePublisher{}
	svc := NewService(service.NewFactory(session), pub, nil, &fakeDeduper{})

	res, err := svc.Run(context.Background(), defs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fetched != 2 || res.Published != 2 || res.Unchanged != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if session.Calls() != 2 {
		t.Fatalf("expected 2 session calls, got %d", session.Calls())
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.EndpointID != "users" || evt.Method != "GET" || evt.URL != "https://api.example.com/users" {
		t.Fatalf("unexpected event metadata %+v", evt)
	}
	if string(evt.Payload) != `{"items":[1,2]}` {
		t.Fatalf("payload = %s", evt.Payload)
	}
	if evt.ID == "" {
		t.Fatalf("expected event id to be set")
	}
}

func TestRunSkipsUnchangedPayloads(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{"v":1}`)}
	pub := &fakePublisher{}
	dedupe := &fakeDeduper{}
	svc := NewService(service.NewFactory(session), pub, nil, dedupe)

	if _, err := svc.Run(context.Background(), defs()[:1]); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := svc.Run(context.Background(), defs()[:1])
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Unchanged != 1 || res.Published != 0 {
		t.Fatalf("expected unchanged payload on second pass, got %+v", res)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected single publish across passes, got %d", len(pub.events))
	}

	session.Data = []byte(`{"v":2}`)
	res, err = svc.Run(context.Background(), defs()[:1])
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if res.Published != 1 {
		t.Fatalf("expected changed payload to publish, got %+v", res)
	}
}

func TestRunWithBoltStoreDedupes(t *testing.T) {
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "poll.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	session := &servicetest.FakeSession{Data: []byte(`[]`)}
	pub := &fakePublisher{}
	svc := NewService(service.NewFactory(session), pub, nil, store)

	for i := 0; i < 3; i++ {
		if _, err := svc.Run(context.Background(), defs()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected one event per endpoint, got %d", len(pub.events))
	}
}

func TestRunJoinsPerEndpointErrors(t *testing.T) {
	session := &servicetest.FakeSession{Err: httpclient.ErrServerError}
	svc := NewService(service.NewFactory(session), &fakePublisher{}, nil, nil)

	res, err := svc.Run(context.Background(), defs())
	if !errors.Is(err, httpclient.ErrServerError) {
		t.Fatalf("expected session error in joined result, got %v", err)
	}
	if !strings.Contains(err.Error(), "users") || !strings.Contains(err.Error(), "orders") {
		t.Fatalf("expected both endpoints named, got %v", err)
	}
	if res.Fetched != 0 {
		t.Fatalf("expected no fetched endpoints, got %+v", res)
	}
	if session.Calls() != 2 {
		t.Fatalf("expected every endpoint attempted, got %d calls", session.Calls())
	}
}

func TestRunDecodeFailure(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`<html>`)}
	svc := NewService(service.NewFactory(session), &fakePublisher{}, nil, nil)

	_, err := svc.Run(context.Background(), defs()[:1])
	var decodeErr *service.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestRunInvalidDefinitionSkipsSession(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{}`)}
	svc := NewService(service.NewFactory(session), &fakePublisher{}, nil, nil)

	bad := []endpoint.Definition{{ID: "bad", Scheme: "1http", Host: "example.com", Method: "GET"}}
	_, err := svc.Run(context.Background(), bad)
	if !errors.Is(err, httpclient.ErrBadRequest) {
		t.Fatalf("expected malformed request error, got %v", err)
	}
	if session.Calls() != 0 {
		t.Fatalf("expected no session calls, got %d", session.Calls())
	}
}

func TestRunPartialPublishMarksPayload(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{"a":1}`)}
	pub := &fakePublisher{failFor: "users", delivered: 1}
	dedupe := &fakeDeduper{}
	svc := NewService(service.NewFactory(session), pub, nil, dedupe)

	res, err := svc.Run(context.Background(), defs()[:1])
	if err == nil {
		t.Fatalf("expected publish error to surface")
	}
	if res.Published != 1 {
		t.Fatalf("expected partial delivery to count as published, got %+v", res)
	}
	if len(dedupe.seen) != 1 {
		t.Fatalf("expected payload to be marked, got %v", dedupe.seen)
	}
}

func TestRunFailedPublishDoesNotMark(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{"a":1}`)}
	pub := &fakePublisher{failFor: "users"}
	dedupe := &fakeDeduper{}
	svc := NewService(service.NewFactory(session), pub, nil, dedupe)

	if _, err := svc.Run(context.Background(), defs()[:1]); err == nil {
		t.Fatalf("expected publish error")
	}
	if len(dedupe.seen) != 0 {
		t.Fatalf("expected nothing marked, got %v", dedupe.seen)
	}
}

func TestRunDedupeLookupError(t *testing.T) {
	lookupErr := errors.New("db closed")
	session := &servicetest.FakeSession{Data: []byte(`{}`)}
	svc := NewService(service.NewFactory(session), &fakePublisher{}, nil, &fakeDeduper{seenErr: lookupErr})

	if _, err := svc.Run(context.Background(), defs()[:1]); !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	session := &servicetest.FakeSession{Data: []byte(`{}`)}
	svc := NewService(service.NewFactory(session), &fakePublisher{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, defs())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if session.Calls() != 0 {
		t.Fatalf("expected no session calls after cancel, got %d", session.Calls())
	}
}

func TestRunRequiresEndpoints(t *testing.T) {
	svc := NewService(service.NewFactory(&servicetest.FakeSession{}), &fakePublisher{}, nil, nil)
	if _, err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty endpoint list")
	}
}
