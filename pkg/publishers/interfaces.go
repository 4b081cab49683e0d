package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// attributeEndpointID is the message attribute carrying Event.EndpointID on
// queue and topic sinks.
const attributeEndpointID = "endpoint_id"
