package poller

import (
	"context"

	"github.com/samvad-hq/servicekit/pkg/publishers"
)

// EventPublisher forwards fetched payloads downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers payload digests between polls.
type Deduper interface {
	Seen(key string) (bool, error)
	Mark(key string) error
}
