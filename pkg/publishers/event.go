package publishers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event represents a fetched endpoint payload published downstream.
type Event struct {
	ID         string          `json:"id"`
	EndpointID string          `json:"endpoint_id"`
	Method     string          `json:"method"`
	URL        string          `json:"url"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// NewEvent constructs an Event for the given endpoint and decoded payload.
func NewEvent(endpointID, method, url string, payload json.RawMessage) Event {
	return Event{
		ID:         uuid.NewString(),
		EndpointID: endpointID,
		Method:     method,
		URL:        url,
		Payload:    payload,
		FetchedAt:  time.Now().UTC(),
	}
}
