package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile is the top level of a publishers file. Values may reference environment variables ($VAR or
// ${VAR}); they are expanded before decoding.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is one publisher entry.
type PublisherConfig struct {
	ID      string                `json:"id" yaml:"id"`
	Type    string                `json:"type" yaml:"type"`
	Enabled *bool                 `json:"enabled" yaml:"enabled"`
	Queue   *QueuePublisherConfig `json:"queue" yaml:"queue"`
	HTTP    *HTTPPublisherConfig  `json:"http" yaml:"http"`
}

// QueuePublisherConfig selects a cloud queue provider.
type QueuePublisherConfig struct {
	Provider string                 `json:"provider" yaml:"provider"`
	AWS      *AWSSQSPublisherConfig `json:"aws" yaml:"aws"`
	SNS      *AWSSNSPublisherConfig `json:"sns" yaml:"sns"`
	GCP      *GCPQueueConfig        `json:"gcp" yaml:"gcp"`
}

// AWSSQSPublisherConfig holds AWS SQS settings.
type AWSSQSPublisherConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// AWSSNSPublisherConfig holds AWS SNS settings.
type AWSSNSPublisherConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// GCPQueueConfig holds Pub/Sub topic settings.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds the validated publisher entries of one file, in file order.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry loads and validates a YAML or JSON publishers file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		idx:        make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := entry.sanitized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}

	return reg, nil
}

// decodeConfigFile decodes by extension; files without a known extension are tried as YAML, then JSON.
func decodeConfigFile(data []byte, ext string) (configFile, error) {
	var decoders []func([]byte, any) error
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		decoders = append(decoders, yaml.Unmarshal)
	case ".json":
		decoders = append(decoders, json.Unmarshal)
	default:
		decoders = append(decoders, yaml.Unmarshal, json.Unmarshal)
	}

	var lastErr error
	for _, decode := range decoders {
		var file configFile
		if lastErr = decode(data, &file); lastErr == nil {
			return file, nil
		}
	}
	return configFile{}, fmt.Errorf("publishers file format not recognized (expected YAML or JSON): %w", lastErr)
}

// sanitized returns a copy with whitespace trimmed, names lower-cased and defaults applied.
func (cfg PublisherConfig) sanitized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}

	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.AWS != nil {
			a := AWSSQSPublisherConfig{
				QueueURL:        strings.TrimSpace(q.AWS.QueueURL),
				Region:          strings.TrimSpace(q.AWS.Region),
				AccessKeyID:     strings.TrimSpace(q.AWS.AccessKeyID),
				SecretAccessKey: strings.TrimSpace(q.AWS.SecretAccessKey),
			}
			q.AWS = &a
		}
		if q.SNS != nil {
			s := AWSSNSPublisherConfig{
				TopicARN:        strings.TrimSpace(q.SNS.TopicARN),
				Region:          strings.TrimSpace(q.SNS.Region),
				AccessKeyID:     strings.TrimSpace(q.SNS.AccessKeyID),
				SecretAccessKey: strings.TrimSpace(q.SNS.SecretAccessKey),
			}
			q.SNS = &s
		}
		if q.GCP != nil {
			g := GCPQueueConfig{
				ProjectID:       strings.TrimSpace(q.GCP.ProjectID),
				Topic:           strings.TrimSpace(q.GCP.Topic),
				CredentialsFile: strings.TrimSpace(q.GCP.CredentialsFile),
			}
			q.GCP = &g
		}
		cfg.Queue = &q
	}

	if cfg.HTTP != nil {
		h := *cfg.HTTP
		h.URL = strings.TrimSpace(h.URL)
		if h.Method = strings.ToUpper(strings.TrimSpace(h.Method)); h.Method == "" {
			h.Method = httpDefaultMethod
		}
		h.Headers = sanitizeHeaders(h.Headers)
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &h
	}

	return cfg
}

// sanitizeHeaders trims keys and values and drops empty entries.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if key, val := strings.TrimSpace(k), strings.TrimSpace(v); key != "" && val != "" {
			out[key] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validate checks that the fields required by the entry's type are present.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		return cfg.Queue.validate(cfg.ID)
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		return cfg.HTTP.validate(cfg.ID)
	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
}

func (q *QueuePublisherConfig) validate(id string) error {
	var required []requiredField
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.AWS == nil {
			return fmt.Errorf("sqs config required for publisher %q", id)
		}
		required = []requiredField{
			{"sqs.uri", q.AWS.QueueURL},
			{"sqs.region", q.AWS.Region},
			{"sqs.access_key_id", q.AWS.AccessKeyID},
			{"sqs.secret_access_key", q.AWS.SecretAccessKey},
		}
	case QueueProviderAWSSNS:
		if q.SNS == nil {
			return fmt.Errorf("sns config required for publisher %q", id)
		}
		required = []requiredField{
			{"sns.topic_arn", q.SNS.TopicARN},
			{"sns.region", q.SNS.Region},
			{"sns.access_key_id", q.SNS.AccessKeyID},
			{"sns.secret_access_key", q.SNS.SecretAccessKey},
		}
	case QueueProviderGCP:
		if q.GCP == nil {
			return fmt.Errorf("gcp config required for publisher %q", id)
		}
		required = []requiredField{
			{"gcp.project_id", q.GCP.ProjectID},
			{"gcp.topic", q.GCP.Topic},
		}
	default:
		return fmt.Errorf("queue provider %q not supported for publisher %q", q.Provider, id)
	}

	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s is required for publisher %q", f.name, id)
		}
	}
	return nil
}

func (h *HTTPPublisherConfig) validate(id string) error {
	if h.URL == "" {
		return fmt.Errorf("http.url is required for publisher %q", id)
	}
	if h.Method != "POST" && h.Method != "PUT" {
		return fmt.Errorf("http.method %q not supported for publisher %q (POST or PUT)", h.Method, id)
	}
	return nil
}

type requiredField struct {
	name  string
	value string
}

// All returns a copy of every configured publisher.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns the publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
