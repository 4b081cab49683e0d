package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// PayloadKey derives the store key for a payload returned by an endpoint.
// Identical payloads from different endpoints get different keys.
func PayloadKey(endpointID string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(endpointID))
	h.Write([]byte{0})
	h.Write(payload)
	return endpointID + ":" + hex.EncodeToString(h.Sum(nil))
}
