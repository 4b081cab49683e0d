package servicetest

import (
	"encoding/json"

	"github.com/samvad-hq/servicekit/pkg/endpoint"
	"github.com/samvad-hq/servicekit/pkg/httpclient"
)

// FakeDTOName is the name carried by the default FakeDTO.
const FakeDTOName = "I am a fake DTO"

// FakeDTO is a minimal JSON-decodable payload.
type FakeDTO struct {
	Name string `json:"name"`
}

// NewFakeDTO returns a FakeDTO named FakeDTOName.
func NewFakeDTO() FakeDTO { return FakeDTO{Name: FakeDTOName} }

// FakeEndpoint is a fully configurable endpoint.Endpoint.
type FakeEndpoint struct {
	SchemeValue  string
	HostValue    string
	PathValue    string
	MethodValue  httpclient.Method
	Query        []endpoint.QueryItem
	Payload      []byte
	Type         httpclient.ContentType
	HeaderValues map[string]string
}

// NewFakeEndpoint describes GET https://www.fake.com/fake-path carrying dto as
// an indented JSON body.
func NewFakeEndpoint(dto FakeDTO) *FakeEndpoint {
	payload, _ := json.MarshalIndent(dto, "", "  ")
	return &FakeEndpoint{
		SchemeValue:  "https",
		HostValue:    "www.fake.com",
		PathValue:    "/fake-path",
		MethodValue:  httpclient.MethodGet,
		Payload:      payload,
		Type:         httpclient.ContentTypeJSON,
		HeaderValues: map[string]string{},
	}
}

func (e *FakeEndpoint) Scheme() string                      { return e.SchemeValue }
func (e *FakeEndpoint) Host() string                        { return e.HostValue }
func (e *FakeEndpoint) Path() string                        { return e.PathValue }
func (e *FakeEndpoint) Method() httpclient.Method           { return e.MethodValue }
func (e *FakeEndpoint) QueryItems() []endpoint.QueryItem    { return e.Query }
func (e *FakeEndpoint) ContentType() httpclient.ContentType { return e.Type }
func (e *FakeEndpoint) Headers() map[string]string          { return e.HeaderValues }

// Body returns the payload only when the content type is JSON.
func (e *FakeEndpoint) Body() []byte {
	if e.Type != httpclient.ContentTypeJSON {
		return nil
	}
	return e.Payload
}
