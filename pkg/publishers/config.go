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

// Publisher types understood by DefaultRegistry.
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

// PublisherConfig is one entry of the publishers file. Exactly the block
// matching Type is read.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSConfig is shared by the sqs and sns blocks.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `json:",inline" yaml:",inline"`
}

type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `json:",inline" yaml:",inline"`
}

type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig describes a webhook sink. Method defaults to POST.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// EnabledValue treats a missing flag as enabled.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// normalized returns a trimmed copy with defaults filled in. Nested blocks are copied.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	if c := cfg.HTTP; c != nil {
		cp := *c
		cp.URL = strings.TrimSpace(cp.URL)
		cp.Method = strings.ToUpper(strings.TrimSpace(cp.Method))
		if cp.Method == "" {
			cp.Method = httpDefaultMethod
		}
		if cp.TimeoutSeconds <= 0 {
			cp.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cp.Headers = trimHeaders(cp.Headers)
		cfg.HTTP = &cp
	}
	if c := cfg.SQS; c != nil {
		cp := *c
		cp.QueueURL = strings.TrimSpace(cp.QueueURL)
		cp.AWSConfig = cp.AWSConfig.trimmed()
		cfg.SQS = &cp
	}
	if c := cfg.SNS; c != nil {
		cp := *c
		cp.TopicARN = strings.TrimSpace(cp.TopicARN)
		cp.AWSConfig = cp.AWSConfig.trimmed()
		cfg.SNS = &cp
	}
	if c := cfg.PubSub; c != nil {
		cp := *c
		cp.ProjectID = strings.TrimSpace(cp.ProjectID)
		cp.Topic = strings.TrimSpace(cp.Topic)
		cp.CredentialsFile = strings.TrimSpace(cp.CredentialsFile)
		cfg.PubSub = &cp
	}
	return cfg
}

func (a AWSConfig) trimmed() AWSConfig {
	return AWSConfig{
		Region:          strings.TrimSpace(a.Region),
		Endpoint:        strings.TrimSpace(a.Endpoint),
		AccessKeyID:     strings.TrimSpace(a.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(a.SecretAccessKey),
	}
}

// trimHeaders drops entries whose name or value is blank. It returns nil when nothing is left.
func trimHeaders(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}

// Validate reports the first missing required field for the entry's type.
func (cfg PublisherConfig) Validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	var missing []string
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeHTTP:
		if cfg.HTTP == nil {
			missing = []string{"http"}
		} else {
			missing = required("http.url", cfg.HTTP.URL)
		}
	case TypeSQS:
		if cfg.SQS == nil {
			missing = []string{"sqs"}
		} else {
			missing = required("sqs.uri", cfg.SQS.QueueURL, "sqs.region", cfg.SQS.Region)
		}
	case TypeSNS:
		if cfg.SNS == nil {
			missing = []string{"sns"}
		} else {
			missing = required("sns.topic_arn", cfg.SNS.TopicARN, "sns.region", cfg.SNS.Region)
		}
	case TypePubSub:
		if cfg.PubSub == nil {
			missing = []string{"pubsub"}
		} else {
			missing = required("pubsub.project_id", cfg.PubSub.ProjectID, "pubsub.topic", cfg.PubSub.Topic)
		}
	default:
		return fmt.Errorf("unsupported type %q for publisher %q", cfg.Type, cfg.ID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("publisher %q missing %s", cfg.ID, strings.Join(missing, ", "))
	}
	return nil
}

// required takes name/value pairs and returns the names whose value is empty.
func required(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

// ConfigRegistry holds the validated entries of a publishers file in file order.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. JSON is chosen by the
// .json extension; anything else is decoded as YAML.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", filepath.Base(path), err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{byID: make(map[string]int, len(file.Publishers))}
	for i, entry := range file.Publishers {
		cfg := entry.normalized()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

// ByID looks an entry up by its trimmed id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns a copy of every entry.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.entries...)
}

// Enabled returns the entries whose enabled flag is unset or true.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
