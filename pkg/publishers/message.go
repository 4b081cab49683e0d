package publishers

import (
	"encoding/json"
	"fmt"
	"strings"
)

const fifoSuffix = ".fifo"

// encodeEvent renders evt as the message body shared by queue and topic sinks.
func encodeEvent(evt Event) (string, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(raw), nil
}

// isFIFO reports whether a queue URL or topic ARN names a FIFO resource.
// FIFO sinks need a group id and a deduplication id on every message.
func isFIFO(target string) bool {
	return strings.HasSuffix(target, fifoSuffix)
}

func logDelivery(log Logger, typ, publisherID string, evt Event, extra map[string]any) {
	fields := map[string]any{
		"publisher_id": publisherID,
		"event_id":     evt.ID,
		"endpoint_id":  evt.EndpointID,
	}
	for k, v := range extra {
		fields[k] = v
	}
	log.DebugObj(typ+" publisher delivered event", "publisher_"+typ+"_delivery", fields)
}

func logFailure(log Logger, typ, publisherID string, err error) {
	log.ErrorObj(typ+" publisher send failed", "publisher_"+typ+"_error", map[string]any{
		"publisher_id": publisherID,
		"error":        err.Error(),
	})
}
