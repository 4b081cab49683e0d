package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/servicekit/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is a single sink entry from the publishers file. Exactly one
// of the type specific blocks is expected, matching Type.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
}

// HTTPPublisherConfig holds webhook sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSConnection carries the region and optional overrides shared by AWS sinks.
// Endpoint and static keys are meant for local emulators such as LocalStack.
type AWSConnection struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSPublisherConfig holds AWS SQS settings.
type SQSPublisherConfig struct {
	AWSConnection `yaml:",inline"`
	QueueURL      string `json:"uri" yaml:"uri"`
}

// SNSPublisherConfig holds AWS SNS settings.
type SNSPublisherConfig struct {
	AWSConnection `yaml:",inline"`
	TopicARN      string `json:"topic_arn" yaml:"topic_arn"`
}

// PubSubPublisherConfig holds GCP Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID    string `json:"project_id" yaml:"project_id"`
	Topic        string `json:"topic" yaml:"topic"`
	EmulatorHost string `json:"emulator_host" yaml:"emulator_host"`
}

// Configs is the validated set of publisher entries loaded from a file.
type Configs struct {
	entries []PublisherConfig
	idx     map[string]int
}

// LoadConfigs reads publisher entries from a YAML or JSON file.
func LoadConfigs(path string) (*Configs, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}
	return NewConfigs(file.Publishers)
}

// NewConfigs sanitizes and validates entries, rejecting duplicate ids.
func NewConfigs(entries []PublisherConfig) (*Configs, error) {
	c := &Configs{
		entries: make([]PublisherConfig, 0, len(entries)),
		idx:     make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := c.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		c.idx[cfg.ID] = len(c.entries)
		c.entries = append(c.entries, cfg)
	}
	return c, nil
}

func decodeConfigFile(data []byte, ext string) (configFile, error) {
	var file configFile
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return configFile{}, fmt.Errorf("decode json publishers: %w", err)
		}
	case ".yaml", ".yml", "":
		// YAML is a superset of JSON, so extensionless files go through it.
		if err := yaml.Unmarshal(data, &file); err != nil {
			return configFile{}, fmt.Errorf("decode yaml publishers: %w", err)
		}
	default:
		return configFile{}, fmt.Errorf("publishers file extension %q not supported (expected YAML or JSON)", ext)
	}
	return file, nil
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}

	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.AWSConnection = sanitizeAWS(c.AWSConnection)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		c.TopicARN = strings.TrimSpace(c.TopicARN)
		c.AWSConnection = sanitizeAWS(c.AWSConnection)
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.EmulatorHost = strings.TrimSpace(c.EmulatorHost)
		cfg.PubSub = &c
	}
	return cfg
}

func sanitizeAWS(conn AWSConnection) AWSConnection {
	conn.Region = strings.TrimSpace(conn.Region)
	conn.Endpoint = strings.TrimSpace(conn.Endpoint)
	conn.AccessKeyID = strings.TrimSpace(conn.AccessKeyID)
	conn.SecretAccessKey = strings.TrimSpace(conn.SecretAccessKey)
	return conn
}

// sanitizeHeaders drops entries with an empty name or value.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	missing := func(field string) error {
		return fmt.Errorf("%s is required for publisher %q", field, cfg.ID)
	}

	switch cfg.Type {
	case "":
		return missing("type")
	case TypeHTTP:
		if cfg.HTTP == nil {
			return missing("http block")
		}
		if cfg.HTTP.URL == "" {
			return missing("http.url")
		}
		if _, ok := httpclient.ParseMethod(cfg.HTTP.Method); !ok {
			return fmt.Errorf("http.method %q not supported for publisher %q", cfg.HTTP.Method, cfg.ID)
		}
	case TypeSQS:
		if cfg.SQS == nil {
			return missing("sqs block")
		}
		if cfg.SQS.QueueURL == "" {
			return missing("sqs.uri")
		}
		if cfg.SQS.Region == "" {
			return missing("sqs.region")
		}
	case TypeSNS:
		if cfg.SNS == nil {
			return missing("sns block")
		}
		if cfg.SNS.TopicARN == "" {
			return missing("sns.topic_arn")
		}
		if cfg.SNS.Region == "" {
			return missing("sns.region")
		}
	case TypePubSub:
		if cfg.PubSub == nil {
			return missing("pubsub block")
		}
		if cfg.PubSub.ProjectID == "" {
			return missing("pubsub.project_id")
		}
		if cfg.PubSub.Topic == "" {
			return missing("pubsub.topic")
		}
	}
	return nil
}

// ByID returns the entry with the given id.
func (c *Configs) ByID(id string) (PublisherConfig, bool) {
	if c == nil {
		return PublisherConfig{}, false
	}
	i, ok := c.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return c.entries[i], true
}

// All returns every entry in file order.
func (c *Configs) All() []PublisherConfig {
	if c == nil {
		return nil
	}
	out := make([]PublisherConfig, len(c.entries))
	copy(out, c.entries)
	return out
}

// Enabled returns the entries whose enabled flag is unset or true.
func (c *Configs) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range c.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
