package httpclient

import "strings"

// ContentType is the MIME type attached to a request body.
type ContentType string

const (
	// ContentTypeJSON is the only content type the factory synthesizes a header for.
	ContentTypeJSON ContentType = "application/json"

	HeaderContentType = "Content-Type"
)

// ParseContentType maps a config value ("json" or the MIME string) to a ContentType.
// An empty value means no content type and is reported as valid.
func ParseContentType(s string) (ContentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "json", string(ContentTypeJSON):
		return ContentTypeJSON, true
	default:
		return "", false
	}
}

func (c ContentType) String() string { return string(c) }
