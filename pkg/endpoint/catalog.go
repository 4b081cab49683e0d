package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// catalogFile represents the structure of the endpoints file.
type catalogFile struct {
	Endpoints []Definition `json:"endpoints" yaml:"endpoints"`
}

// Catalog holds validated endpoint definitions loaded from a file.
type Catalog struct {
	mu          sync.RWMutex
	definitions []Definition
	idx         map[string]Definition
}

// LoadCatalog loads endpoint definitions from a YAML/JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	parsed, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewCatalog(parsed.Endpoints)
}

// NewCatalog validates defs and indexes them by id.
func NewCatalog(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	c := &Catalog{
		definitions: make([]Definition, len(defs)),
		idx:         make(map[string]Definition, len(defs)),
	}
	for i := range defs {
		def := sanitizeDefinition(defs[i])
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := c.idx[def.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", def.ID)
		}
		c.definitions[i] = def
		c.idx[def.ID] = def
	}
	return c, nil
}

type unmarshalFn func([]byte, any) error

func parseCatalog(data []byte, ext string) (catalogFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if cf, err := unmarshalCatalog(d.name, data, d.fn); err == nil {
			return cf, nil
		}
	}

	return catalogFile{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func unmarshalCatalog(name string, data []byte, fn unmarshalFn) (catalogFile, error) {
	var cf catalogFile
	if err := fn(data, &cf); err != nil {
		return catalogFile{}, fmt.Errorf("decode %s endpoints: %w", name, err)
	}
	return cf, nil
}

// validateDefinition checks required fields. Scheme/host/path syntax is not
// checked so that request building stays the single place URLs are judged.
func validateDefinition(d Definition) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	if d.Scheme == "" {
		return fmt.Errorf("scheme is required for endpoint %q", d.ID)
	}
	if d.Host == "" {
		return fmt.Errorf("host is required for endpoint %q", d.ID)
	}
	if _, err := d.Endpoint(); err != nil {
		return fmt.Errorf("endpoint %q: %w", d.ID, err)
	}
	return nil
}

// ByID returns the definition registered under id.
func (c *Catalog) ByID(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.idx[id]
	return def, ok
}

// Endpoint resolves id to a ready-to-use Endpoint.
func (c *Catalog) Endpoint(id string) (Endpoint, error) {
	def, ok := c.ByID(id)
	if !ok {
		return nil, fmt.Errorf("no endpoint registered for id %q", id)
	}
	return def.Endpoint()
}

// All returns every definition in file order.
func (c *Catalog) All() []Definition {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Definition, len(c.definitions))
	copy(out, c.definitions)
	return out
}

// IDs returns the endpoint ids in file order.
func (c *Catalog) IDs() []string {
	all := c.All()
	ids := make([]string, 0, len(all))
	for _, d := range all {
		ids = append(ids, d.ID)
	}
	return ids
}
